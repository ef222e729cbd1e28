package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for purchase dates.
const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// PurchaseRecord is a single purchase made by an account.
	PurchaseRecord struct {
		AccountID  string
		Amount     decimal.Decimal
		OccurredOn Date
	}
)

var (
	ErrInvalidDay         = errors.New("invalid day")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidRecord      = errors.New("invalid purchase record")
	ErrInvalidTransaction = errors.New("invalid transaction")
)

// InvalidTransactionError reports the record that failed amount validation.
type InvalidTransactionError struct {
	Record PurchaseRecord
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("transaction amount cannot be negative: %s (account %q, date %s)",
		e.Record.Amount.String(), e.Record.AccountID, e.Record.OccurredOn.String())
}

// Is lets errors.Is match the sentinel.
func (e *InvalidTransactionError) Is(target error) bool {
	return target == ErrInvalidTransaction
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Month returns the calendar month
func (d Date) Month() time.Month {
	return d.Time.Month()
}

// String formats the date as YYYY-MM-DD
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date string in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// CheckAmount is the only rule the aggregator enforces on a record.
func (r PurchaseRecord) CheckAmount() error {
	if r.Amount.IsNegative() {
		return &InvalidTransactionError{Record: r}
	}
	return nil
}

// Validate is the full rule set applied when a record is ingested.
func (r PurchaseRecord) Validate() error {
	if strings.TrimSpace(r.AccountID) == "" {
		return fmt.Errorf("%w: empty account id", ErrInvalidRecord)
	}
	if len(r.AccountID) > 64 {
		return fmt.Errorf("%w: account id too long (max 64 characters)", ErrInvalidRecord)
	}
	if err := r.OccurredOn.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return r.CheckAmount()
}

// IsValidationError reports whether err is a data problem with the record
// itself rather than a failure of the store.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRecord) ||
		errors.Is(err, ErrInvalidTransaction) ||
		errors.Is(err, ErrInvalidAmount)
}
