// Package cache models the shared, eventually-consistent mirror of
// slug->URL mappings plus the slug_pool work queue that feeds write-svc.
//
// The cache is a lossy mirror owned by no one: any process may write, any
// entry may vanish, and every read path must be prepared to fall back to
// the store on a miss or an error. No distributed locking is used.
package cache

import (
	"context"
	"errors"
)

// ErrUnavailable wraps any transport-level failure talking to the shared
// cache (connection refused, timeout, ...). Callers on the read path treat
// this identically to a miss; a failed write-through Set is logged and the
// write continues, while a failed PoolDequeue fails the write request.
var ErrUnavailable = errors.New("cache: unavailable")

// Cache is the shared-cache contract: a flat slug->URL map plus a FIFO
// queue of pre-verified slugs.
type Cache interface {
	// Get returns the cached URL for slug, "", false if absent (including on
	// transport error; callers that need to distinguish use the returned
	// error, e.g. for logging).
	Get(ctx context.Context, slug string) (url string, ok bool, err error)

	// Set writes slug -> url to the shared cache.
	Set(ctx context.Context, slug, url string) error

	// PoolLen returns the current depth of slug_pool.
	PoolLen(ctx context.Context) (int, error)

	// PoolEnqueue appends candidates to the tail of slug_pool.
	PoolEnqueue(ctx context.Context, slugs []string) error

	// PoolDequeue pops one slug from the head of slug_pool. Returns
	// ok == false if the pool is empty.
	PoolDequeue(ctx context.Context) (slug string, ok bool, err error)
}
