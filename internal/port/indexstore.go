package port

import (
	"context"

	"mdindex/internal/domain"
)

// IndexStore persists one Record per document name.
type IndexStore interface {
	// Get returns the record stored under name. The bool is false when absent.
	Get(ctx context.Context, name string) (domain.Record, bool, error)

	// List returns every record, ordered by name.
	List(ctx context.Context) ([]domain.Record, error)

	// Put inserts or replaces a record in a single transaction.
	Put(ctx context.Context, rec domain.Record) error

	Delete(ctx context.Context, name string) error

	// DeleteMissing removes every record whose name is not in observed and
	// returns the removed names.
	DeleteMissing(ctx context.Context, observed map[string]struct{}) ([]string, error)

	Close() error
}
