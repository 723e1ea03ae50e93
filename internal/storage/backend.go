// Package storage provides the persistent element snapshot store.
//
// Analyses always run against an in-memory element sequence; the store is
// an optimization that lets repeated invocations (and the MCP server) skip
// reparsing the JSON index. Each snapshot records the source index's
// modification time and size, so readers can detect staleness and fall
// back to the loader when the scanner has rewritten the file.
package storage

import (
	"context"
	"time"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// Meta describes a stored snapshot and the index file it was built from.
type Meta struct {
	// IndexPath is the path of the source index document.
	IndexPath string `json:"index_path"`

	// IndexModTime and IndexSize identify the exact index file revision the
	// snapshot was built from.
	IndexModTime time.Time `json:"index_mod_time"`
	IndexSize    int64     `json:"index_size"`

	// ElementCount is the number of stored elements.
	ElementCount int `json:"element_count"`

	// SyncedAt is when the snapshot was written.
	SyncedAt time.Time `json:"synced_at"`
}

// Matches reports whether the snapshot was built from an index file with
// the given modification time and size.
func (m *Meta) Matches(modTime time.Time, size int64) bool {
	return m != nil && m.IndexModTime.Equal(modTime) && m.IndexSize == size
}

// Backend defines the interface for snapshot store implementations.
//
// Implementations must be safe for concurrent use.
type Backend interface {
	// Initialize opens or creates the store at the given path. If readOnly
	// is true the store is opened read-only.
	Initialize(path string, readOnly bool) error

	// Close releases all resources held by the store.
	Close() error

	// PutSnapshot atomically replaces the stored snapshot.
	PutSnapshot(ctx context.Context, meta Meta, elements []index.Element) error

	// Meta returns the stored snapshot metadata, or nil when the store is
	// empty.
	Meta(ctx context.Context) (*Meta, error)

	// Elements returns the stored element sequence in original index
	// order. Returns an empty slice when the store is empty.
	Elements(ctx context.Context) ([]index.Element, error)

	// ElementCount returns the number of stored elements without
	// materializing them.
	ElementCount() int
}
