// Package translate holds the per-book translation cache and the translation
// prompt around the LLM client.
package translate

import (
	"context"
	"log/slog"
	"sync"

	"github.com/OwenXu27/ereader/internal/storage"
)

// Cache is a content-addressed store of translations keyed by
// (bookID, content hash). Entries live for the life of the persisted state;
// there is no eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]map[string]string
	store   storage.Store
	logger  *slog.Logger
}

// NewCache creates a Cache backed by the given store.
func NewCache(store storage.Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]map[string]string),
		store:   store,
		logger:  logger,
	}
}

// Load reads previously persisted entries from the state blob.
func (c *Cache) Load(ctx context.Context) error {
	st, err := c.store.GetState(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for bookID, m := range st.Translations {
		book := make(map[string]string, len(m))
		for k, v := range m {
			book[k] = v
		}
		c.entries[bookID] = book
	}
	return nil
}

// Get returns the cached translation for a paragraph, if present.
func (c *Cache) Get(bookID string, hash uint64) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.entries[bookID][HashKey(hash)]
	return text, ok
}

// Put stores a translation, overwriting any prior value, and persists the
// state blob. The durable write is fire-and-forget: a failure is logged and
// the in-memory entry remains authoritative.
func (c *Cache) Put(ctx context.Context, bookID string, hash uint64, text string) {
	c.mu.Lock()
	book, ok := c.entries[bookID]
	if !ok {
		book = make(map[string]string)
		c.entries[bookID] = book
	}
	book[HashKey(hash)] = text
	st := c.snapshotLocked()
	c.mu.Unlock()

	if err := c.store.PutState(ctx, st); err != nil {
		c.logger.Warn("translation cache persist failed", "book", bookID, "error", err)
	}
}

// Flush persists the current entries. Used at session teardown.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.RLock()
	st := c.snapshotLocked()
	c.mu.RUnlock()
	return c.store.PutState(ctx, st)
}

// snapshotLocked builds a full replacement state value. Writers always write
// the whole blob, never a field-level patch.
func (c *Cache) snapshotLocked() storage.State {
	translations := make(map[string]map[string]string, len(c.entries))
	for bookID, m := range c.entries {
		book := make(map[string]string, len(m))
		for k, v := range m {
			book[k] = v
		}
		translations[bookID] = book
	}
	return storage.State{Translations: translations}
}
