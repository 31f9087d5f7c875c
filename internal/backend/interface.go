// Package backend builds the record store selected by DATA_BACKEND.
package backend

import (
	"context"
	"time"

	"catat/internal/records"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the store and an optional cleanup function
type BackendResult struct {
	Store   records.Store
	Cleanup CleanupFunc
}

// Factory creates stores based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Notion specific
	NotionToken      string
	NotionDatabaseID string
	NotionProperties NotionProperties

	// Google Sheets specific. Credentials are read from the environment by
	// the Sheets client.
	GoogleSpreadsheetID string

	// SQLite specific
	SQLiteDBPath string

	// Memory backend specific
	DataDirectory string

	// CategoryCacheTTL caches category options when positive.
	CategoryCacheTTL time.Duration
}

// NotionProperties names the database columns.
type NotionProperties struct {
	Title, Date, Category, Amount string
}

// BackendType represents the type of backend
type BackendType string

const (
	NotionBackend BackendType = "notion"
	SheetsBackend BackendType = "sheets"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case NotionBackend, SheetsBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
