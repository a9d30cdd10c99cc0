// Package cache provides the byte caches behind dataset fetching and
// artifact rendering.
//
// Three backends implement [Cache]:
//   - [FileCache]: JSON entries on disk, for the CLI
//   - [RedisCache]: a shared Redis instance, for long-running servers
//   - [NullCache]: caching disabled
//
// Keys are built by a [Keyer] so every backend sees the same namespace:
//
//	k := cache.NewDefaultKeyer()
//	key := k.DatasetKey(url)
//	data, hit, err := c.Get(ctx, key)
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLDataset keeps a fetched dataset for a day; the upstream file is static.
	TTLDataset = 24 * time.Hour

	// TTLArtifact keeps rendered outputs for a week. Artifact keys include
	// the dataset hash, so a changed dataset never hits a stale artifact.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache stores opaque byte values under string keys.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	// Clear removes all entries and returns how many were removed.
	Clear(ctx context.Context) (int, error)
}

// NullCache disables caching: every Get misses and writes are dropped.
type NullCache struct{}

// NewNullCache returns the disabled cache.
func NewNullCache() Cache { return NullCache{} }

// Get always misses.
func (NullCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

// Set, Delete and Close do nothing.
func (NullCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (NullCache) Delete(context.Context, string) error                     { return nil }
func (NullCache) Close() error                                             { return nil }

// Clear implements [Clearer]; there is never anything to remove.
func (NullCache) Clear(context.Context) (int, error) { return 0, nil }

var (
	_ Cache   = NullCache{}
	_ Clearer = NullCache{}
)
