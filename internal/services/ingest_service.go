package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rewards/internal/amqp"
	"rewards/internal/core"
	"rewards/internal/metrics"
	"rewards/internal/records"
)

// ErrReadOnly is returned when neither a writer nor a publisher is configured.
var ErrReadOnly = errors.New("backend is read-only")

// Publisher hands a purchase to the asynchronous ingest queue.
type Publisher interface {
	PublishPurchaseRecorded(ctx context.Context, msg *amqp.PurchaseRecordedMessage) error
}

// IngestService stores new purchases. A configured writer takes precedence;
// without one the purchase is queued for the ingest worker.
type IngestService struct {
	writer    records.Writer
	publisher Publisher
	source    string
}

// NewIngestService builds the service. source labels the ingestion path in metrics.
func NewIngestService(writer records.Writer, publisher Publisher, source string) *IngestService {
	return &IngestService{
		writer:    writer,
		publisher: publisher,
		source:    source,
	}
}

// Enabled reports whether the service can accept purchases at all.
func (s *IngestService) Enabled() bool {
	return s != nil && (s.writer != nil || s.publisher != nil)
}

// Ingest validates and stores one purchase, returning the store reference
// or, when queued, the message id.
func (s *IngestService) Ingest(ctx context.Context, rec core.PurchaseRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	switch {
	case s.writer != nil:
		ref, err := s.writer.Append(ctx, rec)
		if err != nil {
			return "", fmt.Errorf("save purchase: %w", err)
		}
		metrics.IngestedRecords.WithLabelValues(s.source).Inc()
		return ref, nil

	case s.publisher != nil:
		msg := amqp.NewPurchaseRecordedMessage(rec)
		if err := s.publisher.PublishPurchaseRecorded(ctx, msg); err != nil {
			return "", fmt.Errorf("queue purchase: %w", err)
		}
		metrics.IngestedRecords.WithLabelValues(s.source).Inc()
		return msg.ID, nil

	default:
		return "", ErrReadOnly
	}
}

// IngestOnce stores a purchase keyed by its message id, so a redelivered
// message does not count twice. Writers without key support fall back to Ingest.
func (s *IngestService) IngestOnce(ctx context.Context, key string, rec core.PurchaseRecord) (string, error) {
	w, ok := s.writer.(records.IdempotentWriter)
	if !ok || key == "" {
		return s.Ingest(ctx, rec)
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	ref, created, err := w.AppendOnce(ctx, key, rec)
	if err != nil {
		return "", fmt.Errorf("save purchase: %w", err)
	}
	if created {
		metrics.IngestedRecords.WithLabelValues(s.source).Inc()
	}
	return ref, nil
}

// PublishAll queues every record, stopping at the first invalid record or
// publish failure. It returns how many records were queued.
func (s *IngestService) PublishAll(ctx context.Context, recs []core.PurchaseRecord) (int, error) {
	if s.publisher == nil {
		return 0, fmt.Errorf("publish purchases: %w", ErrReadOnly)
	}
	for i, rec := range recs {
		if err := rec.Validate(); err != nil {
			return i, fmt.Errorf("purchase %d: %w", i+1, err)
		}
	}

	for i, rec := range recs {
		msg := amqp.NewPurchaseRecordedMessage(rec)
		if err := s.publisher.PublishPurchaseRecorded(ctx, msg); err != nil {
			return i, fmt.Errorf("publish purchase %d: %w", i+1, err)
		}
		metrics.IngestedRecords.WithLabelValues(s.source).Inc()
	}

	slog.InfoContext(ctx, "Published purchases", "count", len(recs), "source", s.source)
	return len(recs), nil
}
