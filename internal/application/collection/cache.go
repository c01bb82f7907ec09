// Package collection keeps the in-memory working set of each dashboard
// module: the ordered documents of every collection the module reads.
package collection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/schoolerp/backend/internal/domain/shared"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is one collection a module reads, optionally filtered.
type Source struct {
	Collection string
	Filter     *shared.Filter
}

// Cache holds the documents of one module. Loads replace every list at
// once; a failed load keeps the previous lists.
type Cache struct {
	module  string
	id      string
	store   shared.DocumentStore
	sources []Source
	logger  *zap.Logger

	loadMu     sync.Mutex
	mu         sync.RWMutex
	loaded     bool
	data       map[string][]shared.Document
	generation uint64
}

// NewCache creates an empty cache for module.
func NewCache(module string, store shared.DocumentStore, sources []Source, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		module:  module,
		id:      uuid.NewString(),
		store:   store,
		sources: sources,
		logger:  logger.With(zap.String("module", module)),
		data:    make(map[string][]shared.Document, len(sources)),
	}
}

// Module returns the module name.
func (c *Cache) Module() string { return c.module }

// Reads reports whether the module reads collection.
func (c *Cache) Reads(collection string) bool {
	for _, s := range c.sources {
		if s.Collection == collection {
			return true
		}
	}
	return false
}

// Load fetches every source concurrently. Any failure fails the whole
// batch with ErrLoadFailed and nothing is replaced.
func (c *Cache) Load(ctx context.Context) error {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	return c.load(ctx)
}

func (c *Cache) load(ctx context.Context) error {
	results := make([][]shared.Document, len(c.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range c.sources {
		g.Go(func() error {
			docs, err := c.store.FetchAll(gctx, src.Collection, src.Filter)
			if err != nil {
				return fmt.Errorf("%s: %w", src.Collection, err)
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Error("Failed to load collections", zap.Error(err))
		return errors.Join(shared.ErrLoadFailed, err)
	}

	c.mu.Lock()
	for i, src := range c.sources {
		if results[i] == nil {
			results[i] = []shared.Document{}
		}
		c.data[src.Collection] = results[i]
	}
	c.loaded = true
	c.generation++
	c.mu.Unlock()

	c.logger.Debug("Collections loaded", zap.Int("sources", len(c.sources)))
	return nil
}

// Reload re-issues every fetch.
func (c *Cache) Reload(ctx context.Context) error {
	return c.Load(ctx)
}

// Ensure loads the cache on first use only.
func (c *Cache) Ensure(ctx context.Context) error {
	if c.Loaded() {
		return nil
	}
	c.loadMu.Lock()
	defer c.loadMu.Unlock()
	if c.Loaded() {
		return nil
	}
	return c.load(ctx)
}

// Loaded reports whether a load has ever succeeded.
func (c *Cache) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

// Generation changes on every load and every optimistic patch.
func (c *Cache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Version identifies the cached data across processes: the instance id
// plus the generation. Two caches never share a version.
func (c *Cache) Version() string {
	return fmt.Sprintf("%s.%d", c.id, c.Generation())
}

// Snapshot returns copies of the documents of collection, in order.
func (c *Cache) Snapshot(collection string) []shared.Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	docs := c.data[collection]
	out := make([]shared.Document, len(docs))
	for i, d := range docs {
		out[i] = d.Clone()
	}
	return out
}

// Find returns a copy of one cached document.
func (c *Cache) Find(collection, id string) (shared.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.data[collection] {
		if d.ID() == id {
			return d.Clone(), true
		}
	}
	return nil, false
}

// Remove drops a deleted document from the cached list.
func (c *Cache) Remove(collection, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	docs := c.data[collection]
	for i, d := range docs {
		if d.ID() == id {
			next := make([]shared.Document, 0, len(docs)-1)
			next = append(next, docs[:i]...)
			c.data[collection] = append(next, docs[i+1:]...)
			c.generation++
			return true
		}
	}
	return false
}

// Patch merges fields into a cached document after a successful write.
func (c *Cache) Patch(collection, id string, fields shared.Document) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	docs := c.data[collection]
	for i, d := range docs {
		if d.ID() == id {
			next := make([]shared.Document, len(docs))
			copy(next, docs)
			next[i] = d.Merge(fields)
			c.data[collection] = next
			c.generation++
			return true
		}
	}
	return false
}

// View decodes the cached documents of collection into T.
func View[T any](c *Cache, collection string) ([]T, error) {
	return shared.Decode[T](c.Snapshot(collection))
}
