// Package writer implements write-svc's reservation algorithm: turning a
// POST into an atomic slug reservation, either by consuming the
// slug-filler's pool or by taking a custom alias, persisting to the store,
// and priming the shared cache.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/jhermesn/slugforge/internal/cache"
	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/model"
	"github.com/jhermesn/slugforge/internal/slugid"
	"github.com/jhermesn/slugforge/internal/store"
)

const maxPoolAttempts = 3

// MaxURLLength bounds the accepted target URL, comfortably above the
// 2 KiB floor real browsers and CDNs tolerate.
const MaxURLLength = 4096

var (
	// ErrInvalidURL is returned when the target URL is empty, too long, or
	// not an absolute http(s) URL.
	ErrInvalidURL = errors.New("writer: invalid url")
	// ErrInvalidAlias is returned when a custom alias fails the slug
	// alphabet/length check.
	ErrInvalidAlias = errors.New("writer: invalid alias")
	// ErrAliasTaken is returned when a custom alias collides with an
	// existing slug.
	ErrAliasTaken = errors.New("writer: alias already taken")
	// ErrPoolExhausted is returned when no alias was given and either
	// slug_pool is empty on a draw or all maxPoolAttempts drawn slugs were
	// already taken in the store.
	ErrPoolExhausted = errors.New("writer: slug pool exhausted")
)

// Request is the input to Shorten, which validates it.
type Request struct {
	URL   string
	Alias string // optional
	Owner string // optional, opaque
}

// Result is the outcome of a successful Shorten call.
type Result struct {
	Slug string
	URL  string
}

// Service reserves slugs against a Store and primes a Cache.
type Service struct {
	store   store.Store
	cache   cache.Cache
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New constructs a Service. log defaults to slog.Default() if nil.
func New(st store.Store, ch cache.Cache, m *metrics.Metrics, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, cache: ch, metrics: m, log: log}
}

// Shorten validates req and reserves a slug for it, following case A
// (pool-drawn) when req.Alias is empty, or case B (custom alias) otherwise.
func (s *Service) Shorten(ctx context.Context, req Request) (*Result, error) {
	if err := validateURL(req.URL); err != nil {
		s.metrics.ShortenOutcomes.WithLabelValues("invalid_url").Inc()
		return nil, err
	}

	var owner *string
	if req.Owner != "" {
		owner = &req.Owner
	}

	if req.Alias != "" {
		return s.shortenWithAlias(ctx, req.URL, req.Alias, owner)
	}
	return s.shortenFromPool(ctx, req.URL, owner)
}

func (s *Service) shortenWithAlias(ctx context.Context, rawURL, alias string, owner *string) (*Result, error) {
	if !slugid.ValidAlias(alias) {
		s.metrics.ShortenOutcomes.WithLabelValues("invalid_alias").Inc()
		return nil, ErrInvalidAlias
	}

	m := &model.Mapping{Slug: alias, URL: rawURL, Owner: owner}
	err := s.store.Insert(ctx, m)
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		s.metrics.ShortenOutcomes.WithLabelValues("alias_taken").Inc()
		return nil, ErrAliasTaken
	case err != nil:
		return nil, fmt.Errorf("inserting custom alias: %w", err)
	}

	s.writeThrough(ctx, alias, rawURL)
	s.metrics.ShortenOutcomes.WithLabelValues("alias_created").Inc()
	return &Result{Slug: alias, URL: rawURL}, nil
}

func (s *Service) shortenFromPool(ctx context.Context, rawURL string, owner *string) (*Result, error) {
	for attempt := 0; attempt < maxPoolAttempts; attempt++ {
		slug, ok, err := s.cache.PoolDequeue(ctx)
		if err != nil {
			return nil, fmt.Errorf("dequeuing slug pool: %w", err)
		}
		if !ok {
			s.metrics.ShortenOutcomes.WithLabelValues("pool_exhausted").Inc()
			return nil, ErrPoolExhausted
		}

		m := &model.Mapping{Slug: slug, URL: rawURL, Owner: owner}
		err = s.store.Insert(ctx, m)
		if errors.Is(err, store.ErrDuplicateKey) {
			// The pool is a best-effort hint; this slug raced with another
			// writer (e.g. a concurrent custom-alias insert) and went stale.
			s.metrics.PoolRetryTotal.Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("inserting pool-drawn slug: %w", err)
		}

		s.writeThrough(ctx, slug, rawURL)
		s.metrics.ShortenOutcomes.WithLabelValues("pool_created").Inc()
		return &Result{Slug: slug, URL: rawURL}, nil
	}

	s.metrics.ShortenOutcomes.WithLabelValues("pool_exhausted").Inc()
	return nil, ErrPoolExhausted
}

// writeThrough populates the shared cache after a successful insert.
// Failures are logged and counted, never surfaced: the redirect path
// backfills from the store on a miss.
func (s *Service) writeThrough(ctx context.Context, slug, url string) {
	if err := s.cache.Set(ctx, slug, url); err != nil {
		s.metrics.CacheWriteFailTotal.Inc()
		s.log.Warn("write-through cache set failed", "slug", slug, "error", err)
	}
}

func validateURL(raw string) error {
	if raw == "" {
		return ErrInvalidURL
	}
	if len(raw) > MaxURLLength {
		return ErrInvalidURL
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
