package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rewards/internal/core"
)

// PurchaseRecordedMessage carries one purchase from a producer to the ingest worker.
// The amount travels as a decimal string so no precision is lost on the wire.
type PurchaseRecordedMessage struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Amount    string    `json:"amount"`
	Date      string    `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewPurchaseRecordedMessage wraps a record with a fresh message id
func NewPurchaseRecordedMessage(rec core.PurchaseRecord) *PurchaseRecordedMessage {
	return &PurchaseRecordedMessage{
		ID:        uuid.NewString(),
		AccountID: rec.AccountID,
		Amount:    rec.Amount.String(),
		Date:      rec.OccurredOn.String(),
		Timestamp: time.Now(),
	}
}

// Record converts the message back to a domain record without validating it.
func (m *PurchaseRecordedMessage) Record() (core.PurchaseRecord, error) {
	amount, err := core.ParseAmount(m.Amount)
	if err != nil {
		return core.PurchaseRecord{}, fmt.Errorf("amount %q: %w", m.Amount, err)
	}
	date, err := core.ParseDate(m.Date)
	if err != nil {
		return core.PurchaseRecord{}, err
	}
	return core.PurchaseRecord{AccountID: m.AccountID, Amount: amount, OccurredOn: date}, nil
}

// ToJSON converts the message to JSON bytes
func (m *PurchaseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// PurchaseRecordedMessageFromJSON creates a message from JSON bytes
func PurchaseRecordedMessageFromJSON(data []byte) (*PurchaseRecordedMessage, error) {
	var msg PurchaseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
