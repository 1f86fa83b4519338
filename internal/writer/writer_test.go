package writer

import (
	"context"
	"io"
	"log/slog"
	"sync"
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

func newService(t *testing.T, name string) (*Service, *storetest.Fake, *cachetest.Fake) {
	t.Helper()
	st := storetest.New()
	ch := cachetest.New()
	return New(st, ch, metrics.New(name), discardLogger()), st, ch
}

func TestShorten_PoolDrawn(t *testing.T) {
	svc, _, ch := newService(t, "test_pool_drawn")
	ch.SeedPool("abc123")

	res, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com"})
	require.NoError(t, err)
	assert.Equal(t, "abc123", res.Slug)
	assert.True(t, ch.Contains("abc123", "https://ex.com"), "write-through should prime the shared cache")
}

func TestShorten_CustomAlias(t *testing.T) {
	svc, _, _ := newService(t, "test_custom_alias")

	res, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com", Alias: "myalias"})
	require.NoError(t, err)
	assert.Equal(t, "myalias", res.Slug)
}

func TestShorten_CustomAliasConflict(t *testing.T) {
	svc, st, _ := newService(t, "test_alias_conflict")
	st.Seed(model.Mapping{Slug: "taken0", URL: "https://a"})

	_, err := svc.Shorten(context.Background(), Request{URL: "https://a", Alias: "taken0"})
	assert.ErrorIs(t, err, ErrAliasTaken)
}

func TestShorten_PoolExhausted(t *testing.T) {
	svc, _, _ := newService(t, "test_pool_exhausted")

	_, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com"})
	assert.ErrorIs(t, err, ErrPoolExhausted)
}

func TestShorten_InvalidURL(t *testing.T) {
	svc, _, _ := newService(t, "test_invalid_url")

	cases := []string{"", "not-a-url", "ftp://example.com", "http://"}
	for _, raw := range cases {
		_, err := svc.Shorten(context.Background(), Request{URL: raw})
		assert.ErrorIs(t, err, ErrInvalidURL, "url=%q", raw)
	}
}

func TestShorten_InvalidAlias(t *testing.T) {
	svc, _, _ := newService(t, "test_invalid_alias")

	_, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com", Alias: "a!"})
	assert.ErrorIs(t, err, ErrInvalidAlias)
}

// TestShorten_PoolRetryOnStaleSlug exercises the race between a pool entry
// and a direct custom-alias insert: a pool-drawn insert that loses the
// unique-key race must discard the stale slug and retry, not fail the
// whole request.
func TestShorten_PoolRetryOnStaleSlug(t *testing.T) {
	svc, st, ch := newService(t, "test_pool_retry")
	ch.SeedPool("racez1", "freshslug")
	// Simulate a concurrent custom-alias insert winning the race for
	// "racez1" before write-svc's pool-draw insert runs.
	st.Seed(model.Mapping{Slug: "racez1", URL: "https://b"})

	res, err := svc.Shorten(context.Background(), Request{URL: "https://c"})
	require.NoError(t, err)
	assert.Equal(t, "freshslug", res.Slug, "stale pool entry must be discarded and the next one tried")
}

// TestShorten_ConcurrentSlugsDiffer exercises the invariant that concurrent
// successful shorten calls never return the same slug.
func TestShorten_ConcurrentSlugsDiffer(t *testing.T) {
	svc, _, ch := newService(t, "test_concurrent_distinct")
	const n = 50
	for i := 0; i < n; i++ {
		ch.SeedPool(string(rune('a'+i%26)) + string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[string]bool)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com"})
			if err != nil {
				return
			}
			mu.Lock()
			assert.False(t, seen[res.Slug], "slug %q returned twice", res.Slug)
			seen[res.Slug] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
}

// TestShorten_ConcurrentAliasExactlyOneWins exercises: for any custom alias
// a, two concurrent calls with alias a produce exactly one success and one
// conflict.
func TestShorten_ConcurrentAliasExactlyOneWins(t *testing.T) {
	svc, _, _ := newService(t, "test_concurrent_alias")

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com", Alias: "sharedalias"})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case assertIsAliasTaken(err):
			conflicts++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func assertIsAliasTaken(err error) bool {
	return err == ErrAliasTaken
}

func TestShorten_StoreErrorSurfaces(t *testing.T) {
	svc, st, _ := newService(t, "test_store_error")
	st.FailNext = store.ErrNotFound // any non-duplicate error surfaces

	_, err := svc.Shorten(context.Background(), Request{URL: "https://ex.com", Alias: "anyalias"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAliasTaken)
}
