package blocks

import (
	"context"
	"errors"
)

// Key uniquely identifies a stored block by its type slug and name.
type Key struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// Store is the contract for persisting and retrieving named block records.
// Implementations must be safe for concurrent use.
//
// Records are stored as plain field maps so callers can inspect stored
// state without knowing the concrete block type. Implementers should
// deep-copy values on Put/Get to avoid shared state.
type Store interface {
	// Put inserts or replaces the record at the given key.
	// Returns a deterministic ETag for the stored record.
	Put(ctx context.Context, key Key, rec Record) (etag string, err error)

	// Get retrieves a record by key. If not found, returns (nil, "", ErrNotFound).
	Get(ctx context.Context, key Key) (rec Record, etag string, err error)

	// Delete removes a record by key. Deleting a missing key must be idempotent.
	Delete(ctx context.Context, key Key) error

	// List returns the keys stored for a given block type slug.
	List(ctx context.Context, slug string) ([]Key, error)

	// Close releases underlying resources.
	Close() error
}

// ErrNotFound is returned by Get when a block key does not exist.
var ErrNotFound = errors.New("block not found")
