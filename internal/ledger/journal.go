package ledger

import (
	"context"
	"time"
)

type EntryKind string

const (
	KindCredit EntryKind = "credit"
	KindDebit  EntryKind = "debit"
	KindBet    EntryKind = "bet"
	KindWin    EntryKind = "win"
	KindRefund EntryKind = "refund"
	KindAdjust EntryKind = "adjustment"
)

// Entry is one balance movement. Amount is the signed delta applied to the
// user's spendable balance.
type Entry struct {
	UserID    string
	Amount    int64
	Kind      EntryKind
	MatchID   string
	Reason    string
	CreatedAt time.Time
}

// Journal receives every committed balance movement. Implementations must
// tolerate being called from concurrent matches.
type Journal interface {
	Record(ctx context.Context, entry *Entry) error
}
