package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type ExpenseRow struct {
	ID         int64
	Title      sql.NullString
	OccurredAt sql.NullInt64
	Category   sql.NullString
	Amount     sql.NullInt64
}

type CreateExpenseParams struct {
	Title      string
	OccurredAt int64
	Category   string
	Amount     int64
}

const createExpense = `INSERT INTO expenses (title, occurred_at, category, amount)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createExpense,
		arg.Title, arg.OccurredAt, arg.Category, arg.Amount).Scan(&id)
	return id, err
}

const listCategories = `SELECT name FROM categories ORDER BY sort_order, name`

func (q *Queries) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

const upsertCategory = `INSERT INTO categories (name, sort_order)
VALUES (?, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM categories))
ON CONFLICT(name) DO NOTHING`

func (q *Queries) UpsertCategory(ctx context.Context, name string) error {
	_, err := q.db.ExecContext(ctx, upsertCategory, name)
	return err
}

type ListExpensesBetweenParams struct {
	From int64
	To   int64
}

const listExpensesBetween = `SELECT id, title, occurred_at, category, amount
FROM expenses
WHERE occurred_at >= ? AND occurred_at <= ?
ORDER BY occurred_at, id`

func (q *Queries) ListExpensesBetween(ctx context.Context, arg ListExpensesBetweenParams) ([]ExpenseRow, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesBetween, arg.From, arg.To)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseRow
	for rows.Next() {
		var i ExpenseRow
		if err := rows.Scan(&i.ID, &i.Title, &i.OccurredAt, &i.Category, &i.Amount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const claimEvent = `INSERT INTO mirrored_events (event_id, expense_id)
VALUES (?, ?)
ON CONFLICT(event_id) DO NOTHING`

// ClaimEvent records eventID as applied. It reports false when the event
// was already claimed.
func (q *Queries) ClaimEvent(ctx context.Context, eventID string, expenseID int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, claimEvent, eventID, expenseID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

const eventExists = `SELECT EXISTS(SELECT 1 FROM mirrored_events WHERE event_id = ?)`

func (q *Queries) EventExists(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := q.db.QueryRowContext(ctx, eventExists, eventID).Scan(&exists)
	return exists, err
}
