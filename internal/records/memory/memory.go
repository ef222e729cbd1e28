package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"rewards/internal/core"
	"rewards/internal/records"
)

var (
	_ records.Source = (*Store)(nil)
	_ records.Writer = (*Store)(nil)
)

type Store struct {
	mu    sync.Mutex
	items []core.PurchaseRecord
}

func New(items []core.PurchaseRecord) *Store {
	return &Store{items: append([]core.PurchaseRecord(nil), items...)}
}

// NewFromFile seeds the store from a TOML file. An empty path uses the
// built-in sample purchases; an unreadable or malformed file is an error.
func NewFromFile(path string) (*Store, error) {
	if path == "" {
		return New(SampleRecords()), nil
	}
	items, err := records.LoadSeedFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	slog.Info("Loaded seed file", "path", path, "purchases", len(items))
	return New(items), nil
}

// SampleRecords is the reference data set: two accounts, three months.
func SampleRecords() []core.PurchaseRecord {
	p := func(account string, amount int64, month, day int) core.PurchaseRecord {
		return core.PurchaseRecord{
			AccountID:  account,
			Amount:     decimal.NewFromInt(amount),
			OccurredOn: core.NewDate(2025, month, day),
		}
	}
	return []core.PurchaseRecord{
		p("cust1", 120, 1, 15),
		p("cust1", 80, 2, 10),
		p("cust1", 120, 3, 15),
		p("cust2", 80, 1, 10),
		p("cust2", 120, 2, 15),
		p("cust2", 80, 3, 10),
	}
}

// Records returns a copy of the stored purchases matching filter.
func (s *Store) Records(_ context.Context, filter core.Filter) ([]core.PurchaseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return records.Filter(s.items, filter), nil
}

// Append stores the record and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, r core.PurchaseRecord) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, r)
	return fmt.Sprintf("mem:%d", len(s.items)), nil
}
