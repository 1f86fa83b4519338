package redirect

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhermesn/slugforge/internal/cache/cachetest"
	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/model"
	"github.com/jhermesn/slugforge/internal/store"
	"github.com/jhermesn/slugforge/internal/store/storetest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newLookup(t *testing.T, name string) (*Lookup, *storetest.Fake, *cachetest.Fake) {
	t.Helper()
	st := storetest.New()
	ch := cachetest.New()
	l, err := New(ch, st, Config{LRUSize: 100, SlugLen: 6}, metrics.New(name), discardLogger())
	require.NoError(t, err)
	return l, st, ch
}

func TestResolve_ColdReadFallsBackToStoreThenCachesLocally(t *testing.T) {
	l, st, ch := newLookup(t, "test_cold_read")
	st.Seed(model.Mapping{Slug: "aP6eoE", URL: "https://yahoo.fr"})

	url, err := l.Resolve(context.Background(), "aP6eoE")
	require.NoError(t, err)
	assert.Equal(t, "https://yahoo.fr", url)

	// A second identical request must be served from the local LRU, i.e.
	// without another store round-trip. Verified by breaking both the store
	// and the shared cache and confirming the lookup still succeeds.
	st.FailNext = errors.New("should not be consulted again")
	ch.FailNext = errors.New("should not be consulted again")
	url, err = l.Resolve(context.Background(), "aP6eoE")
	require.NoError(t, err)
	assert.Equal(t, "https://yahoo.fr", url)
}

func TestResolve_SharedCacheHitPromotesToLocalLRU(t *testing.T) {
	l, st, ch := newLookup(t, "test_cache_hit")
	require.NoError(t, ch.Set(context.Background(), "abc123", "https://ex.com"))

	url, err := l.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com", url)

	// Subsequent lookups must be served from the local LRU, needing neither
	// the shared cache nor the store even if both start failing.
	st.FailNext = errors.New("should not be consulted")
	ch.FailNext = errors.New("should not be consulted")
	_, err = l.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
}

func TestResolve_InvalidSlugNeverTouchesBackingStores(t *testing.T) {
	l, st, ch := newLookup(t, "test_invalid_slug")
	st.FailNext = errors.New("must not be called")
	ch.FailNext = errors.New("must not be called")

	_, err := l.Resolve(context.Background(), "!!")
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestResolve_UnknownSlugIsNotFound(t *testing.T) {
	l, _, _ := newLookup(t, "test_unknown")

	_, err := l.Resolve(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_StoreErrorIsDistinguishableFromNotFound(t *testing.T) {
	l, st, _ := newLookup(t, "test_store_error")
	st.FailNext = errors.New("boom")

	_, err := l.Resolve(context.Background(), "ZZZZZZ")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolve_CacheErrorDemotesToMissAndStoreStillServes(t *testing.T) {
	l, st, ch := newLookup(t, "test_cache_demote")
	st.Seed(model.Mapping{Slug: "abc123", URL: "https://ex.com"})
	ch.FailNext = errors.New("cache down")

	url, err := l.Resolve(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "https://ex.com", url)
}

// TestResolve_Stampede asserts that 1000 concurrent misses for the same
// not-yet-cached slug trigger at most one store round-trip.
func TestResolve_Stampede(t *testing.T) {
	l, st, _ := newLookup(t, "test_stampede")
	st.Seed(model.Mapping{Slug: "viral1", URL: "https://viral.example"})

	var calls int32
	counting := &countingStore{Fake: st, calls: &calls}
	l.store = counting

	const n = 1000
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Resolve(context.Background(), "viral1")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(1), "at most one store round-trip expected under a stampede")
}

type countingStore struct {
	*storetest.Fake
	calls *int32
}

func (c *countingStore) FindBySlug(ctx context.Context, slug string) (*model.Mapping, error) {
	atomic.AddInt32(c.calls, 1)
	return c.Fake.FindBySlug(ctx, slug)
}

var _ store.Store = (*countingStore)(nil)
