// Package records defines the ports the bot uses to reach the remote
// record store. Each backend under this directory implements all three.
package records

import (
	"context"

	"catat/internal/core"
)

// Ports for outbound adapters.
type (
	// RecordWriter persists one completed expense. The returned reference
	// identifies the record in the store (page ID, sheet range, row ID).
	RecordWriter interface {
		CreateRecord(ctx context.Context, e core.Expense) (ref string, err error)
	}

	// CategoryReader lists the category options defined by the store. A store
	// with no category field or no options returns an empty slice, not an error.
	CategoryReader interface {
		ListCategoryOptions(ctx context.Context) ([]string, error)
	}

	// RecordQuerier returns every record whose date falls within r. Records
	// may be partially populated.
	RecordQuerier interface {
		QueryByDateRange(ctx context.Context, r core.DateRange) ([]core.RawRecord, error)
	}

	// Store is the full gateway surface.
	Store interface {
		RecordWriter
		CategoryReader
		RecordQuerier
	}
)
