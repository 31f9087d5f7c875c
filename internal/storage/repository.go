// Package storage keeps expense records in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"catat/internal/core"
	"catat/internal/records"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// Ensure interface conformance
var _ records.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateRecord inserts the expense and registers its category as an option,
// the way a select property learns new values.
func (r *SQLiteRepository) CreateRecord(ctx context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := insertExpense(ctx, r.queries.WithTx(tx), e)
	if err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", id,
		"title", e.Title,
		"amount", e.Amount,
		"category", e.Category)

	return strconv.FormatInt(id, 10), nil
}

// MirrorRecord stores an expense received as event eventID. Replaying an
// event already applied is a no-op reported through applied=false.
func (r *SQLiteRepository) MirrorRecord(ctx context.Context, eventID string, e core.Expense) (ref string, applied bool, err error) {
	if eventID == "" {
		return "", false, errors.New("missing event id")
	}
	if err := e.Validate(); err != nil {
		return "", false, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	seen, err := q.EventExists(ctx, eventID)
	if err != nil {
		return "", false, fmt.Errorf("check event: %w", err)
	}
	if seen {
		return "", false, nil
	}
	id, err := insertExpense(ctx, q, e)
	if err != nil {
		return "", false, err
	}
	if _, err := q.ClaimEvent(ctx, eventID, id); err != nil {
		return "", false, fmt.Errorf("claim event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit: %w", err)
	}
	return strconv.FormatInt(id, 10), true, nil
}

func insertExpense(ctx context.Context, q *Queries, e core.Expense) (int64, error) {
	id, err := q.CreateExpense(ctx, CreateExpenseParams{
		Title:      e.Title,
		OccurredAt: e.Date.UTC().UnixMilli(),
		Category:   e.Category,
		Amount:     e.Amount,
	})
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	if err := q.UpsertCategory(ctx, e.Category); err != nil {
		return 0, fmt.Errorf("upsert category: %w", err)
	}
	return id, nil
}

func (r *SQLiteRepository) ListCategoryOptions(ctx context.Context) ([]string, error) {
	cats, err := r.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if cats == nil {
		cats = []string{}
	}
	return cats, nil
}

// QueryByDateRange returns the rows whose occurred_at falls in rng, oldest
// first. NULL columns stay absent in the raw record.
func (r *SQLiteRepository) QueryByDateRange(ctx context.Context, rng core.DateRange) ([]core.RawRecord, error) {
	rows, err := r.queries.ListExpensesBetween(ctx, ListExpensesBetweenParams{
		From: rng.Start.UTC().UnixMilli(),
		To:   rng.End.UTC().UnixMilli(),
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.RawRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRaw(row))
	}
	return out, nil
}

func toRaw(row ExpenseRow) core.RawRecord {
	var rec core.RawRecord
	if row.Title.Valid {
		title := row.Title.String
		rec.Title = &title
	}
	if row.OccurredAt.Valid {
		d := time.UnixMilli(row.OccurredAt.Int64).UTC()
		rec.Date = &d
	}
	if row.Category.Valid {
		cat := row.Category.String
		rec.Category = &cat
	}
	if row.Amount.Valid {
		amount := row.Amount.Int64
		rec.Amount = &amount
	}
	return rec
}
