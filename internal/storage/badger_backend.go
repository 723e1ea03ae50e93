package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/coderef-labs/coderef-go/internal/index"
)

// Key layout. Element keys carry a fixed-width ordinal so a prefix
// iteration yields them in original index order.
const (
	keyMeta       = "m:snapshot"
	prefixElement = "e:"
)

// BadgerBackend is a BadgerDB-backed snapshot store.
type BadgerBackend struct {
	mu           sync.RWMutex
	db           *badger.DB
	initialized  bool
	elementCount int
}

// NewBadgerBackend creates a new BadgerDB snapshot store.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens or creates the BadgerDB database at the given path.
func (b *BadgerBackend) Initialize(path string, readOnly bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions(path).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR) // Suppress INFO/WARNING logs

	if readOnly {
		opts = opts.WithReadOnly(true)
	}

	var err error
	b.db, err = badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}

	b.initialized = true
	b.elementCount = b.countElements()
	return nil
}

// Close releases all resources held by the store.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	b.initialized = false
	return err
}

// PutSnapshot replaces the stored snapshot with the given elements.
func (b *BadgerBackend) PutSnapshot(ctx context.Context, meta Meta, elements []index.Element) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return fmt.Errorf("store not initialized")
	}

	// Drop the previous snapshot first so shrinking indexes do not leave
	// stale trailing elements behind.
	if err := b.db.DropPrefix([]byte(prefixElement)); err != nil {
		return fmt.Errorf("clearing previous snapshot: %w", err)
	}

	meta.ElementCount = len(elements)

	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for i := range elements {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := json.Marshal(&elements[i])
		if err != nil {
			return fmt.Errorf("encoding element %s: %w", elements[i].Name, err)
		}
		key := fmt.Sprintf("%s%010d", prefixElement, i)
		if err := wb.Set([]byte(key), data); err != nil {
			return fmt.Errorf("writing element %s: %w", elements[i].Name, err)
		}
	}

	metaData, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("encoding snapshot meta: %w", err)
	}
	if err := wb.Set([]byte(keyMeta), metaData); err != nil {
		return fmt.Errorf("writing snapshot meta: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flushing snapshot: %w", err)
	}

	b.elementCount = len(elements)
	return nil
}

// Meta returns the stored snapshot metadata, or nil when the store is empty.
func (b *BadgerBackend) Meta(ctx context.Context) (*Meta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	var meta *Meta
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyMeta))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			meta = &Meta{}
			return json.Unmarshal(val, meta)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading snapshot meta: %w", err)
	}
	return meta, nil
}

// Elements returns the stored element sequence in original index order.
func (b *BadgerBackend) Elements(ctx context.Context) ([]index.Element, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}

	elements := make([]index.Element, 0, b.elementCount)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixElement)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var el index.Element
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &el)
			}); err != nil {
				return err
			}
			elements = append(elements, el)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading snapshot elements: %w", err)
	}
	return elements, nil
}

// ElementCount returns the number of stored elements.
func (b *BadgerBackend) ElementCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.elementCount
}

// countElements counts element keys. Called with the lock held during
// Initialize.
func (b *BadgerBackend) countElements() int {
	count := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixElement)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count
}
