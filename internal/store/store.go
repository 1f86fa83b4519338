// Package store models the persistent, partitioned slug->URL mapping.
//
// The store is the source of truth: every slug in the shared cache must
// also be in the store, and the store's unique constraint on
// (first_char, slug) is what arbitrates races between concurrent writers
// (see internal/writer).
package store

import (
	"context"
	"errors"

	"github.com/jhermesn/slugforge/internal/model"
)

// ErrNotFound is returned when a slug has no mapping record.
var ErrNotFound = errors.New("store: slug not found")

// ErrDuplicateKey is returned when an insert collides with an existing
// (first_char, slug) pair.
var ErrDuplicateKey = errors.New("store: slug already exists")

// Store is the persistence contract the core depends on. Implementations
// must enforce (first_char, slug) uniqueness and must derive first_char
// from slug themselves; callers never supply it.
type Store interface {
	// Insert persists m. FirstChar is computed from m.Slug and CreatedAt is
	// stamped by the store if zero. Returns ErrDuplicateKey on a unique
	// violation.
	Insert(ctx context.Context, m *model.Mapping) error

	// FindBySlug returns the mapping for slug, or ErrNotFound.
	FindBySlug(ctx context.Context, slug string) (*model.Mapping, error)

	// ExistBatch reports, for each of the given slugs, whether a mapping
	// already exists. Implementations must issue this as a single grouped
	// query (or a small number of per-partition queries), never one
	// round-trip per candidate.
	ExistBatch(ctx context.Context, slugs []string) (map[string]bool, error)
}
