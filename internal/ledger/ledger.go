package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/playpoints/xo-backend/internal/apperror"
)

type wagerStatus string

const (
	wagerHeld     wagerStatus = "held"
	wagerSettled  wagerStatus = "settled"
	wagerRefunded wagerStatus = "refunded"
)

// balanceSink persists committed balances; write-through is best-effort and
// never part of the critical section.
type balanceSink interface {
	SaveBalance(ctx context.Context, userID string, balance int64) error
}

type account struct {
	mu      sync.Mutex
	balance int64
}

type heldWager struct {
	amount       int64
	contributors []string
	status       wagerStatus
}

// Ledger is the in-memory authority over point balances. A balance can never
// go below zero: escrows hold points against a match id until settlement, and
// the dual debit of an escrow is all-or-nothing.
type Ledger struct {
	logger          *slog.Logger
	startingBalance int64
	journal         Journal
	balances        balanceSink

	mu       sync.Mutex // guards the two maps, never held across account locks
	accounts map[string]*account
	wagers   map[string]*heldWager
}

// New - creates a ledger. journal and balances may be nil; startingBalance is
// credited the first time an account is touched.
func New(logger *slog.Logger, startingBalance int64, journal Journal, balances balanceSink) *Ledger {
	return &Ledger{
		logger:          logger.With("component", "ledger"),
		startingBalance: startingBalance,
		journal:         journal,
		balances:        balances,
		accounts:        make(map[string]*account),
		wagers:          make(map[string]*heldWager),
	}
}

// Restore - pre-seeds balances loaded from storage. Must be called before the
// ledger starts serving; restored accounts skip the starting credit.
func (that *Ledger) Restore(balances map[string]int64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for userID, balance := range balances {
		that.accounts[userID] = &account{balance: balance}
	}
}

// Balance - current spendable balance; unknown users are seeded lazily.
func (that *Ledger) Balance(ctx context.Context, userID string) int64 {
	acc := that.account(ctx, userID)

	acc.mu.Lock()
	defer acc.mu.Unlock()

	return acc.balance
}

// Credit - adds amount to the user's balance. Fails only on a negative amount.
func (that *Ledger) Credit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount < 0 {
		return fmt.Errorf("%w: credit %d", apperror.ErrNegativeAmount, amount)
	}

	that.apply(ctx, userID, amount, KindCredit, "", reason)

	return nil
}

// Debit - removes amount from the user's balance.
func (that *Ledger) Debit(ctx context.Context, userID string, amount int64, reason string) error {
	if amount < 0 {
		return fmt.Errorf("%w: debit %d", apperror.ErrNegativeAmount, amount)
	}

	acc := that.account(ctx, userID)

	acc.mu.Lock()
	if acc.balance < amount {
		acc.mu.Unlock()
		return fmt.Errorf("%w: user %s", apperror.ErrInsufficientFunds, userID)
	}
	acc.balance -= amount
	balance := acc.balance
	acc.mu.Unlock()

	that.report(ctx, userID, balance, -amount, KindDebit, "", reason)

	return nil
}

// Adjust - signed admin/payment adjustment routed through the same invariants
// as credit and debit. Returns the new balance.
func (that *Ledger) Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	acc := that.account(ctx, userID)

	acc.mu.Lock()
	if acc.balance+delta < 0 {
		acc.mu.Unlock()
		return 0, fmt.Errorf("%w: user %s", apperror.ErrInsufficientFunds, userID)
	}
	acc.balance += delta
	balance := acc.balance
	acc.mu.Unlock()

	that.report(ctx, userID, balance, delta, KindAdjust, "", reason)

	return balance, nil
}

// Escrow - atomically debits amount from every contributor and records a held
// wager tied to matchID. Either every debit succeeds or none does: all
// contributor locks are taken (in sorted order, so two overlapping escrows
// cannot deadlock) before the first balance changes.
func (that *Ledger) Escrow(ctx context.Context, matchID string, contributors []string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%w: escrow %d", apperror.ErrNegativeAmount, amount)
	}

	users := dedup(contributors)
	if len(users) == 0 {
		return fmt.Errorf("%w: escrow without contributors", apperror.ErrUnknownMatch)
	}

	that.mu.Lock()
	if _, ok := that.wagers[matchID]; ok {
		that.mu.Unlock()
		return fmt.Errorf("%w: match %s already has a wager", apperror.ErrAlreadySettled, matchID)
	}
	that.mu.Unlock()

	accounts := make([]*account, len(users))
	for i, userID := range users {
		accounts[i] = that.account(ctx, userID)
	}

	for _, acc := range accounts {
		acc.mu.Lock()
	}

	for i, acc := range accounts {
		if acc.balance < amount {
			for _, locked := range accounts {
				locked.mu.Unlock()
			}
			return fmt.Errorf("%w: user %s", apperror.ErrInsufficientFunds, users[i])
		}
	}

	balances := make([]int64, len(accounts))
	for i, acc := range accounts {
		acc.balance -= amount
		that.assertNonNegative(users[i], acc.balance)
		balances[i] = acc.balance
	}

	for _, acc := range accounts {
		acc.mu.Unlock()
	}

	that.mu.Lock()
	that.wagers[matchID] = &heldWager{amount: amount, contributors: users, status: wagerHeld}
	that.mu.Unlock()

	for i, userID := range users {
		that.report(ctx, userID, balances[i], -amount, KindBet, matchID, "stake held in escrow")
	}

	return nil
}

// Settle - pays the whole pot to the winner and marks the wager settled.
// When the winner is not a contributor (the computer agent won) the pot stays
// with the house. Settling twice reports ErrAlreadySettled without paying.
func (that *Ledger) Settle(ctx context.Context, matchID, winnerID string) error {
	held, err := that.close(matchID, wagerSettled)
	if err != nil {
		return err
	}

	for _, userID := range held.contributors {
		if userID == winnerID {
			that.apply(ctx, userID, 2*held.amount, KindWin, matchID, "wager won")
			return nil
		}
	}

	that.logger.Info("pot kept by the house", "matchID", matchID, "winner", winnerID)

	return nil
}

// SettleDraw - returns the stake to each contributor and marks the wager
// settled. Same idempotency guarantee as Settle.
func (that *Ledger) SettleDraw(ctx context.Context, matchID string) error {
	held, err := that.close(matchID, wagerSettled)
	if err != nil {
		return err
	}

	for _, userID := range held.contributors {
		that.apply(ctx, userID, held.amount, KindRefund, matchID, "draw, stake returned")
	}

	return nil
}

// Refund - returns escrowed stakes when a match is aborted before completion.
func (that *Ledger) Refund(ctx context.Context, matchID string) error {
	held, err := that.close(matchID, wagerRefunded)
	if err != nil {
		return err
	}

	for _, userID := range held.contributors {
		that.apply(ctx, userID, held.amount, KindRefund, matchID, "match aborted, stake returned")
	}

	return nil
}

// HeldTotal - sum of all escrow liabilities; spendable balances plus this
// figure is conserved across escrow/settle/refund sequences.
func (that *Ledger) HeldTotal() int64 {
	that.mu.Lock()
	defer that.mu.Unlock()

	var total int64
	for _, held := range that.wagers {
		if held.status == wagerHeld {
			total += held.amount * int64(len(held.contributors))
		}
	}

	return total
}

// close - flips a held wager into its terminal status exactly once.
func (that *Ledger) close(matchID string, status wagerStatus) (*heldWager, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	held, ok := that.wagers[matchID]
	if !ok {
		return nil, fmt.Errorf("%w: match %s", apperror.ErrUnknownMatch, matchID)
	}

	if held.status != wagerHeld {
		return nil, fmt.Errorf("%w: match %s is %s", apperror.ErrAlreadySettled, matchID, held.status)
	}

	held.status = status

	return held, nil
}

// apply - unconditional positive credit used by settlement paths.
func (that *Ledger) apply(ctx context.Context, userID string, delta int64, kind EntryKind, matchID, reason string) {
	acc := that.account(ctx, userID)

	acc.mu.Lock()
	acc.balance += delta
	that.assertNonNegative(userID, acc.balance)
	balance := acc.balance
	acc.mu.Unlock()

	that.report(ctx, userID, balance, delta, kind, matchID, reason)
}

// report - journals the movement and mirrors the balance to storage.
// Persistence failures are logged, never surfaced: memory is the authority.
func (that *Ledger) report(ctx context.Context, userID string, balance, delta int64, kind EntryKind, matchID, reason string) {
	if that.journal != nil {
		entry := &Entry{
			UserID:    userID,
			Amount:    delta,
			Kind:      kind,
			MatchID:   matchID,
			Reason:    reason,
			CreatedAt: time.Now(),
		}
		if err := that.journal.Record(ctx, entry); err != nil {
			that.logger.Error("failed to journal entry", "user", userID, "error", err)
		}
	}

	if that.balances != nil {
		if err := that.balances.SaveBalance(ctx, userID, balance); err != nil {
			that.logger.Error("failed to persist balance", "user", userID, "error", err)
		}
	}
}

// account - fetches or lazily seeds the account for userID.
func (that *Ledger) account(ctx context.Context, userID string) *account {
	that.mu.Lock()
	acc, ok := that.accounts[userID]
	if !ok {
		acc = &account{balance: that.startingBalance}
		that.accounts[userID] = acc
	}
	that.mu.Unlock()

	if !ok && that.startingBalance > 0 {
		that.report(ctx, userID, that.startingBalance, that.startingBalance, KindCredit, "", "starting balance")
	}

	return acc
}

// assertNonNegative - a negative balance is a bug in the engine, not a
// recoverable condition.
func (that *Ledger) assertNonNegative(userID string, balance int64) {
	if balance < 0 {
		panic(fmt.Sprintf("ledger invariant violated: user %s has balance %d", userID, balance))
	}
}

func dedup(userIDs []string) []string {
	seen := make(map[string]struct{}, len(userIDs))
	users := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		if _, ok := seen[userID]; ok {
			continue
		}
		seen[userID] = struct{}{}
		users = append(users, userID)
	}

	sort.Strings(users)

	return users
}
