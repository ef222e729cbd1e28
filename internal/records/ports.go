package records

import (
	"context"

	"rewards/internal/core"
)

// Ports for outbound adapters.
type (
	// Source enumerates purchase records, optionally narrowed to one account.
	// Every call returns a fresh snapshot the caller may keep.
	Source interface {
		Records(ctx context.Context, filter core.Filter) ([]core.PurchaseRecord, error)
	}

	// Writer appends a purchase record to a backing store.
	Writer interface {
		Append(ctx context.Context, r core.PurchaseRecord) (ref string, err error)
	}

	// IdempotentWriter appends a record at most once per key. Redelivered
	// keys return the first reference with created=false.
	IdempotentWriter interface {
		AppendOnce(ctx context.Context, key string, r core.PurchaseRecord) (ref string, created bool, err error)
	}

	// Pinger is implemented by sources backed by a remote store.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)

// Filter applies f to an already materialized record slice.
func Filter(in []core.PurchaseRecord, f core.Filter) []core.PurchaseRecord {
	if _, single := f.AccountID(); !single {
		return append([]core.PurchaseRecord(nil), in...)
	}
	out := make([]core.PurchaseRecord, 0, len(in))
	for _, r := range in {
		if f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
