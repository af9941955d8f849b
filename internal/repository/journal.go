package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/playpoints/xo-backend/internal/ledger"
)

// JournalRepository persists every balance movement into sqlite. It backs
// the admin surface's bookkeeping; the engine never reads it.
type JournalRepository interface {
	Init(ctx context.Context) error
	Record(ctx context.Context, entry *ledger.Entry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*ledger.Entry, error)
}

type dbJournal struct {
	conn *sql.DB
}

func NewJournalRepository(conn *sql.DB) JournalRepository {
	return &dbJournal{
		conn: conn,
	}
}

// Init - creates the transactions table.
func (that *dbJournal) Init(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		kind TEXT NOT NULL,
		match_id TEXT,
		reason TEXT,
		created_at TIMESTAMP NOT NULL
	)`

	if _, err := that.conn.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("can't create transactions table: %w", err)
	}

	return nil
}

func (that *dbJournal) Record(ctx context.Context, entry *ledger.Entry) error {
	query := `INSERT INTO transactions (user_id, amount, kind, match_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	_, err := that.conn.ExecContext(ctx, query,
		entry.UserID, entry.Amount, string(entry.Kind), entry.MatchID, entry.Reason, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("can't record transaction: %w", err)
	}

	return nil
}

func (that *dbJournal) ListByUser(ctx context.Context, userID string, limit int) ([]*ledger.Entry, error) {
	query := `SELECT user_id, amount, kind, match_id, reason, created_at
		FROM transactions WHERE user_id = ? ORDER BY id DESC LIMIT ?`

	rows, err := that.conn.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("can't list transactions: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry
	for rows.Next() {
		var (
			entry ledger.Entry
			kind  string
		)
		if err = rows.Scan(&entry.UserID, &entry.Amount, &kind, &entry.MatchID, &entry.Reason, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("can't scan transaction: %w", err)
		}
		entry.Kind = ledger.EntryKind(kind)
		entries = append(entries, &entry)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't iterate transactions: %w", err)
	}

	return entries, nil
}
