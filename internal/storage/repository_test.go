package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "rewards.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryAppendAndRecords(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	inputs := []core.PurchaseRecord{
		{AccountID: "cust1", Amount: decimal.RequireFromString("120.45"), OccurredOn: core.NewDate(2025, 1, 15)},
		{AccountID: "cust2", Amount: decimal.NewFromInt(80), OccurredOn: core.NewDate(2025, 1, 10)},
		{AccountID: "cust1", Amount: decimal.NewFromInt(80), OccurredOn: core.NewDate(2025, 2, 10)},
	}
	for i, in := range inputs {
		ref, err := repo.Append(ctx, in)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if ref == "" {
			t.Fatalf("append %d: empty ref", i)
		}
	}

	all, err := repo.Records(ctx, core.AllAccounts())
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if !all[0].Amount.Equal(decimal.RequireFromString("120.45")) || all[0].OccurredOn.String() != "2025-01-15" {
		t.Fatalf("round trip mismatch: %+v", all[0])
	}

	cust1, err := repo.Records(ctx, core.ForAccount("cust1"))
	if err != nil {
		t.Fatalf("records cust1: %v", err)
	}
	if len(cust1) != 2 {
		t.Fatalf("expected 2 cust1 records, got %d", len(cust1))
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, err=%v", n, err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestSQLiteRepositoryRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Append(context.Background(), core.PurchaseRecord{
		AccountID:  "cust1",
		Amount:     decimal.NewFromInt(-5),
		OccurredOn: core.NewDate(2025, 1, 1),
	})
	if !errors.Is(err, core.ErrInvalidTransaction) {
		t.Fatalf("expected ErrInvalidTransaction, got %v", err)
	}
	n, _ := repo.Count(context.Background())
	if n != 0 {
		t.Fatalf("invalid record was stored")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	repo.Close()
}

func TestSQLiteRepositoryAppendOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rec := core.PurchaseRecord{AccountID: "cust1", Amount: decimal.NewFromInt(120), OccurredOn: core.NewDate(2025, 1, 15)}

	first, created, err := repo.AppendOnce(ctx, "msg-1", rec)
	if err != nil || !created {
		t.Fatalf("first AppendOnce: ref=%q created=%v err=%v", first, created, err)
	}

	second, created, err := repo.AppendOnce(ctx, "msg-1", rec)
	if err != nil {
		t.Fatalf("second AppendOnce: %v", err)
	}
	if created {
		t.Error("redelivered key must not create a row")
	}
	if second != first {
		t.Errorf("ref = %q, want original %q", second, first)
	}

	if _, created, err := repo.AppendOnce(ctx, "msg-2", rec); err != nil || !created {
		t.Fatalf("new key: created=%v err=%v", created, err)
	}
	// Plain appends carry no key and never collide.
	for i := 0; i < 2; i++ {
		if _, err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, err=%v; want 4", n, err)
	}

	if _, _, err := repo.AppendOnce(ctx, "", rec); !errors.Is(err, core.ErrInvalidRecord) {
		t.Errorf("empty key: expected ErrInvalidRecord, got %v", err)
	}
}
