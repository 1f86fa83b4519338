// Package cachetest provides an in-memory cache.Cache fake for unit tests.
package cachetest

import (
	"context"
	"sync"

	"github.com/jhermesn/slugforge/internal/cache"
)

// Fake is a goroutine-safe in-memory Cache, including the slug_pool queue.
type Fake struct {
	mu   sync.Mutex
	m    map[string]string
	pool []string

	// FailNext, when non-nil, is returned once by the next call and cleared.
	FailNext error
}

// New returns an empty fake cache.
func New() *Fake {
	return &Fake{m: make(map[string]string)}
}

func (f *Fake) takeFailure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

func (f *Fake) Get(_ context.Context, slug string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return "", false, err
	}
	url, ok := f.m[slug]
	return url, ok, nil
}

func (f *Fake) Set(_ context.Context, slug, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.m[slug] = url
	return nil
}

func (f *Fake) PoolLen(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return 0, err
	}
	return len(f.pool), nil
}

func (f *Fake) PoolEnqueue(_ context.Context, slugs []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	f.pool = append(f.pool, slugs...)
	return nil
}

func (f *Fake) PoolDequeue(_ context.Context) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return "", false, err
	}
	if len(f.pool) == 0 {
		return "", false, nil
	}
	slug := f.pool[0]
	f.pool = f.pool[1:]
	return slug, true, nil
}

// SeedPool appends directly to the pool for test setup.
func (f *Fake) SeedPool(slugs ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pool = append(f.pool, slugs...)
}

// Contains reports whether slug is present with the given url, for
// assertions.
func (f *Fake) Contains(slug, url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.m[slug]
	return ok && v == url
}

var _ cache.Cache = (*Fake)(nil)
