package storage

import (
	"context"
	"sync"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// MemoryBackend is an in-memory implementation of Backend for testing.
type MemoryBackend struct {
	mu          sync.RWMutex
	meta        *Meta
	elements    []index.Element
	initialized bool
}

// NewMemoryBackend creates a new in-memory snapshot store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Initialize implements Backend.
func (m *MemoryBackend) Initialize(path string, readOnly bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.initialized = true
	return nil
}

// Close implements Backend.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = nil
	m.elements = nil
	m.initialized = false
	return nil
}

// PutSnapshot implements Backend.
func (m *MemoryBackend) PutSnapshot(ctx context.Context, meta Meta, elements []index.Element) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta.ElementCount = len(elements)
	m.meta = &meta
	m.elements = make([]index.Element, len(elements))
	copy(m.elements, elements)
	return nil
}

// Meta implements Backend.
func (m *MemoryBackend) Meta(ctx context.Context) (*Meta, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.meta == nil {
		return nil, nil
	}
	meta := *m.meta
	return &meta, nil
}

// Elements implements Backend.
func (m *MemoryBackend) Elements(ctx context.Context) ([]index.Element, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]index.Element, len(m.elements))
	copy(out, m.elements)
	return out, nil
}

// ElementCount implements Backend.
func (m *MemoryBackend) ElementCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.elements)
}
