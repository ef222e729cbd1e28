package backend

import (
	"context"

	"rewards/internal/records"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the record store and optional cleanup function
type BackendResult struct {
	Source records.Source
	// Writer is nil when the store cannot accept new purchases.
	Writer  records.Writer
	Cleanup CleanupFunc
}

// Ping checks the store when it is remote. Local stores are always ready.
func (r *BackendResult) Ping(ctx context.Context) error {
	if p, ok := r.Source.(records.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close runs the cleanup function if any.
func (r *BackendResult) Close() error {
	if r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// Memory specific
	SeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// MongoDB specific
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend  BackendType = "memory"
	SQLiteBackend  BackendType = "sqlite"
	SheetsBackend  BackendType = "sheets"
	MongoDBBackend BackendType = "mongodb"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, SheetsBackend, MongoDBBackend:
		return true
	default:
		return false
	}
}
