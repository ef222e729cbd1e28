package worker

import (
	"context"
	"fmt"
	"log/slog"

	"rewards/internal/amqp"
	"rewards/internal/core"
)

// Ingester stores one validated purchase at most once per key.
type Ingester interface {
	IngestOnce(ctx context.Context, key string, rec core.PurchaseRecord) (string, error)
}

// IngestWorker moves queued purchases into the record store.
type IngestWorker struct {
	ingester Ingester
}

func NewIngestWorker(ingester Ingester) *IngestWorker {
	return &IngestWorker{ingester: ingester}
}

// HandlePurchaseMessage processes a single purchase message from AMQP.
// Malformed or invalid purchases are discarded; storage failures are
// returned as-is so the broker redelivers them. The message id is the
// idempotency key, so a redelivery after a lost ack stores nothing new.
func (w *IngestWorker) HandlePurchaseMessage(ctx context.Context, msg *amqp.PurchaseRecordedMessage) error {
	slog.InfoContext(ctx, "Processing purchase message",
		"id", msg.ID,
		"account_id", msg.AccountID)

	rec, err := msg.Record()
	if err != nil {
		return fmt.Errorf("%w: decode purchase %s: %v", amqp.ErrDiscard, msg.ID, err)
	}

	ref, err := w.ingester.IngestOnce(ctx, msg.ID, rec)
	if err != nil {
		if core.IsValidationError(err) {
			return fmt.Errorf("%w: purchase %s: %v", amqp.ErrDiscard, msg.ID, err)
		}
		return fmt.Errorf("store purchase %s: %w", msg.ID, err)
	}

	slog.InfoContext(ctx, "Stored purchase",
		"id", msg.ID,
		"ref", ref,
		"account_id", rec.AccountID,
		"points", core.CalculatePoints(rec.Amount))

	return nil
}
