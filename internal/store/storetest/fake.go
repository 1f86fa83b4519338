// Package storetest provides an in-memory store.Store fake for unit tests
// across the filler, writer, and redirect packages.
package storetest

import (
	"context"
	"sync"
	"time"

	"github.com/jhermesn/slugforge/internal/model"
	"github.com/jhermesn/slugforge/internal/store"
)

// Fake is a goroutine-safe in-memory Store.
type Fake struct {
	mu   sync.Mutex
	rows map[string]model.Mapping // keyed by slug

	// FailNext, when non-nil, is returned once by the next Insert/FindBySlug/
	// ExistBatch call and then cleared, letting tests inject a transient
	// backing-store failure.
	FailNext error
}

// New returns an empty fake store.
func New() *Fake {
	return &Fake{rows: make(map[string]model.Mapping)}
}

// Seed inserts a mapping directly, bypassing the unique-check path, for
// test setup.
func (f *Fake) Seed(m model.Mapping) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.FirstChar = model.FirstCharOf(m.Slug)
	f.rows[m.Slug] = m
}

func (f *Fake) takeFailure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

func (f *Fake) Insert(_ context.Context, m *model.Mapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return err
	}
	if _, exists := f.rows[m.Slug]; exists {
		return store.ErrDuplicateKey
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.FirstChar = model.FirstCharOf(m.Slug)
	f.rows[m.Slug] = *m
	return nil
}

func (f *Fake) FindBySlug(_ context.Context, slug string) (*model.Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	m, ok := f.rows[slug]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := m
	return &cp, nil
}

func (f *Fake) ExistBatch(_ context.Context, slugs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	result := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		_, exists := f.rows[s]
		result[s] = exists
	}
	return result, nil
}

var _ store.Store = (*Fake)(nil)
