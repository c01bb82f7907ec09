package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

var _ ReportCache = (*InMemoryReportCache)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// InMemoryReportCache keeps payloads in a map. Expired entries are
// dropped lazily on read and on every write.
type InMemoryReportCache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewInMemoryReportCache creates an empty cache.
func NewInMemoryReportCache() *InMemoryReportCache {
	return &InMemoryReportCache{entries: make(map[string]entry), now: time.Now}
}

// Get implements ReportCache
func (c *InMemoryReportCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

// Set implements ReportCache
func (c *InMemoryReportCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = entry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}
	return nil
}

// DeletePrefix implements ReportCache
func (c *InMemoryReportCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *InMemoryReportCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
