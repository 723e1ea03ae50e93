package index

import (
	"os"
	"sync"
	"time"
)

// Cache is a read-through cache of parsed index documents.
//
// Entries are keyed by path and validated against the file's modification
// time and size on every Load, so a rewritten index is reparsed
// transparently. The cache is an explicit object handed to whoever needs
// it; there is no package-level instance.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

type cacheEntry struct {
	modTime  time.Time
	size     int64
	elements []Element
}

// NewCache creates an empty index cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// Load returns the elements for the index at path, reparsing only when the
// file changed since the last load. The returned slice is shared between
// callers and must be treated as immutable.
func (c *Cache) Load(path string) ([]Element, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Invalidate(path)
		}
		// Let the loader produce the canonical error for the path.
		return Load(path)
	}

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()

	if ok && entry.modTime.Equal(info.ModTime()) && entry.size == info.Size() {
		return entry.elements, nil
	}

	elements, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = cacheEntry{
		modTime:  info.ModTime(),
		size:     info.Size(),
		elements: elements,
	}
	c.mu.Unlock()

	return elements, nil
}

// Invalidate drops the cached entry for path, forcing the next Load to
// reparse.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
