// Package cache stores serialized reports keyed by module generation.
package cache

import (
	"context"
	"time"
)

// ReportCache stores serialized report payloads.
type ReportCache interface {
	// Get returns the payload for key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a payload for ttl.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// NopReportCache never stores anything.
type NopReportCache struct{}

// Get always misses.
func (NopReportCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set discards the payload.
func (NopReportCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

// DeletePrefix is a no-op.
func (NopReportCache) DeletePrefix(context.Context, string) error { return nil }
