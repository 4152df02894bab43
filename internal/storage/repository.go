package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"spendlog/internal/core"
	"spendlog/internal/timewin"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the durable expense store. Insert is the only
// mutation; range reads can be turned into change-notified reads via Watch.
type SQLiteRepository struct {
	db *sql.DB

	mu       sync.RWMutex
	watchers map[*Watcher]struct{}
	closed   bool
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:       db,
		watchers: make(map[*Watcher]struct{}),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	r.closed = true
	for w := range r.watchers {
		delete(r.watchers, w)
	}
	r.mu.Unlock()

	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Insert persists a validated expense and returns it with its assigned ID.
// Validation failures are reported before anything reaches the database.
// On success every watcher whose range covers the record's day bucket is
// signalled.
func (r *SQLiteRepository) Insert(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (title, amount_cents, category, notes, date, attachment_ref)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.Title, e.Amount.Cents, e.Category, nullable(e.Notes), e.Date, nullable(e.AttachmentRef))
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("read inserted id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"title", e.Title,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"day", timewin.DayStart(e.Date))

	r.notifyInsert(e.Date)
	return e, nil
}

// QueryRange returns all records with date in [start, end], newest first.
func (r *SQLiteRepository) QueryRange(ctx context.Context, start, end int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, amount_cents, category, notes, date, attachment_ref
		 FROM expenses
		 WHERE date BETWEEN ? AND ?
		 ORDER BY date DESC, id DESC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e     core.Expense
			notes sql.NullString
			ref   sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Title, &e.Amount.Cents, &e.Category, &notes, &e.Date, &ref); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Notes = notes.String
		e.AttachmentRef = ref.String
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}

	return expenses, nil
}

// SumRange returns the total amount over [start, end]. Consistent with
// summing QueryRange by hand; exists as a scalar query for cheap reads.
func (r *SQLiteRepository) SumRange(ctx context.Context, start, end int64) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM expenses WHERE date BETWEEN ? AND ?`,
		start, end).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum expenses: %w", err)
	}
	return core.Money{Cents: cents}, nil
}

// CountRange returns the number of records with date in [start, end].
func (r *SQLiteRepository) CountRange(ctx context.Context, start, end int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE date BETWEEN ? AND ?`,
		start, end).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
