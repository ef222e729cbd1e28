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

	"rewards/internal/core"
	"rewards/internal/records"

	_ "modernc.org/sqlite"
)

var (
	_ records.Source           = (*SQLiteRepository)(nil)
	_ records.Writer           = (*SQLiteRepository)(nil)
	_ records.IdempotentWriter = (*SQLiteRepository)(nil)
	_ records.Pinger           = (*SQLiteRepository)(nil)
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
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

	repo := &SQLiteRepository{
		db:      db,
		queries: New(db),
	}

	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping implements records.Pinger
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Append implements records.Writer
func (r *SQLiteRepository) Append(ctx context.Context, rec core.PurchaseRecord) (string, error) {
	ref, _, err := r.insert(ctx, "", rec)
	return ref, err
}

// AppendOnce implements records.IdempotentWriter. A key that was already
// stored returns the original row reference and created=false.
func (r *SQLiteRepository) AppendOnce(ctx context.Context, key string, rec core.PurchaseRecord) (string, bool, error) {
	if key == "" {
		return "", false, fmt.Errorf("%w: empty message id", core.ErrInvalidRecord)
	}
	return r.insert(ctx, key, rec)
}

func (r *SQLiteRepository) insert(ctx context.Context, key string, rec core.PurchaseRecord) (string, bool, error) {
	if err := rec.Validate(); err != nil {
		return "", false, err
	}

	p, err := r.queries.CreatePurchase(ctx, CreatePurchaseParams{
		AccountID:  rec.AccountID,
		Amount:     rec.Amount.String(),
		OccurredOn: rec.OccurredOn.String(),
		MessageID:  sql.NullString{String: key, Valid: key != ""},
	})
	if errors.Is(err, sql.ErrNoRows) && key != "" {
		existing, lookupErr := r.queries.GetPurchaseByMessageID(ctx, key)
		if lookupErr != nil {
			return "", false, fmt.Errorf("lookup duplicate purchase %s: %w", key, lookupErr)
		}
		slog.InfoContext(ctx, "Duplicate purchase ignored",
			"id", existing.ID,
			"message_id", key)
		return strconv.FormatInt(existing.ID, 10), false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("create purchase: %w", err)
	}

	slog.InfoContext(ctx, "Purchase saved to SQLite",
		"id", p.ID,
		"account_id", p.AccountID,
		"amount", p.Amount,
		"occurred_on", p.OccurredOn)

	return strconv.FormatInt(p.ID, 10), true, nil
}

// Records implements records.Source
func (r *SQLiteRepository) Records(ctx context.Context, filter core.Filter) ([]core.PurchaseRecord, error) {
	var (
		rows []Purchase
		err  error
	)
	if id, single := filter.AccountID(); single {
		rows, err = r.queries.ListPurchasesByAccount(ctx, id)
	} else {
		rows, err = r.queries.ListPurchases(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	out := make([]core.PurchaseRecord, 0, len(rows))
	for _, p := range rows {
		rec, err := p.toCore()
		if err != nil {
			return nil, fmt.Errorf("purchase %d: %w", p.ID, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Count returns the number of stored purchases.
func (r *SQLiteRepository) Count(ctx context.Context) (int64, error) {
	n, err := r.queries.CountPurchases(ctx)
	if err != nil {
		return 0, fmt.Errorf("count purchases: %w", err)
	}
	return n, nil
}

func (p Purchase) toCore() (core.PurchaseRecord, error) {
	amount, err := core.ParseAmount(p.Amount)
	if err != nil {
		return core.PurchaseRecord{}, fmt.Errorf("amount %q: %w", p.Amount, err)
	}
	date, err := core.ParseDate(p.OccurredOn)
	if err != nil {
		return core.PurchaseRecord{}, err
	}
	return core.PurchaseRecord{AccountID: p.AccountID, Amount: amount, OccurredOn: date}, nil
}
