// Package redirect implements redirect-svc's read-through lookup: local
// LRU, then shared cache, then persistent store, with stampede control on
// the store tier and backfill/promotion on every hit.
package redirect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/jhermesn/slugforge/internal/cache"
	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/slugid"
	"github.com/jhermesn/slugforge/internal/store"
)

// ErrNotFound means the slug is absent from all three tiers.
var ErrNotFound = errors.New("redirect: slug not found")

// ErrInvalidSlug means the slug failed the cheap alphabet/length check and
// never touched cache or store.
var ErrInvalidSlug = errors.New("redirect: invalid slug")

// negativeTTL bounds how long a "known absent" marker is trusted in the
// local LRU before a fresh store lookup is allowed, blunting enumeration
// scans without holding a stale negative forever.
const negativeTTL = 5 * time.Second

// entry is the local LRU's value type: either a resolved URL or a
// short-lived negative marker. Immutable once inserted for a positive
// entry, per the invariant that a slug's URL never changes.
type entry struct {
	url      string
	negative bool
	until    time.Time // only meaningful when negative
}

// Config controls the local LRU's capacity and the slug length accepted
// by slugid.ValidGenerated (custom aliases passing slugid.ValidAlias are
// accepted as well).
type Config struct {
	LRUSize int
	SlugLen int
}

// Lookup implements the three-tier read-through resolver.
type Lookup struct {
	local   *lru.Cache[string, entry]
	cache   cache.Cache
	store   store.Store
	cfg     Config
	metrics *metrics.Metrics
	log     *slog.Logger

	flight singleflight.Group // collapses concurrent store lookups per slug
}

// New constructs a Lookup. log defaults to slog.Default() if nil.
func New(ch cache.Cache, st store.Store, cfg Config, m *metrics.Metrics, log *slog.Logger) (*Lookup, error) {
	if log == nil {
		log = slog.Default()
	}
	local, err := lru.New[string, entry](cfg.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("constructing local lru: %w", err)
	}
	return &Lookup{local: local, cache: ch, store: st, cfg: cfg, metrics: m, log: log}, nil
}

// Resolve returns the URL for slug, or ErrNotFound / ErrInvalidSlug.
// Store-level errors are returned as-is so callers can distinguish
// operational failure (503) from an unknown slug (404).
func (l *Lookup) Resolve(ctx context.Context, slug string) (string, error) {
	if !slugid.ValidGenerated(slug, l.cfg.SlugLen) && !slugid.ValidAlias(slug) {
		return "", ErrInvalidSlug
	}

	if e, ok := l.local.Get(slug); ok {
		if e.negative {
			if time.Now().Before(e.until) {
				l.metrics.LookupTierTotal.WithLabelValues("lru").Inc()
				return "", ErrNotFound
			}
			l.local.Remove(slug) // marker expired, fall through to re-check
		} else {
			l.metrics.LookupTierTotal.WithLabelValues("lru").Inc()
			return e.url, nil
		}
	}

	if url, ok, err := l.cache.Get(ctx, slug); err != nil {
		l.log.Warn("shared cache get failed, falling back to store", "slug", slug, "error", err)
	} else if ok {
		l.local.Add(slug, entry{url: url})
		l.metrics.LookupTierTotal.WithLabelValues("cache").Inc()
		return url, nil
	}

	return l.resolveFromStore(ctx, slug)
}

// resolveFromStore performs the store tier, collapsing concurrent misses
// for the same slug onto a single in-flight lookup via singleflight. Late
// arrivals wait on the first caller's result; singleflight guarantees the
// in-flight entry is released on every exit path (success, error, panic).
func (l *Lookup) resolveFromStore(ctx context.Context, slug string) (string, error) {
	v, err, _ := l.flight.Do(slug, func() (interface{}, error) {
		// A caller that missed the local LRU just before an earlier flight
		// for this slug finished finds that flight's result here instead of
		// reading the store again.
		if e, ok := l.local.Peek(slug); ok {
			if !e.negative {
				return e.url, nil
			}
			if time.Now().Before(e.until) {
				return "", ErrNotFound
			}
		}

		m, err := l.store.FindBySlug(ctx, slug)
		if errors.Is(err, store.ErrNotFound) {
			l.local.Add(slug, entry{negative: true, until: time.Now().Add(negativeTTL)})
			return "", ErrNotFound
		}
		if err != nil {
			l.metrics.StoreErrors.Inc()
			return "", err
		}

		if setErr := l.cache.Set(ctx, slug, m.URL); setErr != nil {
			l.metrics.CacheWriteFailTotal.Inc()
			l.log.Warn("backfill cache set failed", "slug", slug, "error", setErr)
		}
		l.local.Add(slug, entry{url: m.URL})
		return m.URL, nil
	})

	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.metrics.LookupTierTotal.WithLabelValues("miss").Inc()
		}
		return "", err
	}
	l.metrics.LookupTierTotal.WithLabelValues("store").Inc()
	return v.(string), nil
}
