// Package metrics holds the Prometheus counters and gauges shared by
// slug-filler, write-svc, and redirect-svc. Each process registers every
// collector against its own registry (those it never updates stay at zero)
// and serves the registry via promhttp.HandlerFor on its metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a small struct of pre-registered collectors. Callers increment
// the fields directly; nothing here is lazily created, matching the
// pack's direct promauto style rather than a name-keyed dynamic registry.
type Metrics struct {
	Registry *prometheus.Registry

	// slug-filler
	CollisionTotal   prometheus.Counter
	FillerTickErrors prometheus.Counter
	PoolDepth        prometheus.Gauge

	// write-svc
	PoolRetryTotal      prometheus.Counter
	CacheWriteFailTotal prometheus.Counter
	ShortenOutcomes     *prometheus.CounterVec

	// redirect-svc
	LookupTierTotal *prometheus.CounterVec
	StoreErrors     prometheus.Counter
}

// New builds and registers a Metrics instance against its own registry.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		CollisionTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "collision_total",
			Help: "Slug candidates discarded because the store already had them.",
		}),
		FillerTickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "filler_tick_errors_total",
			Help: "Ticks abandoned due to a store or cache error.",
		}),
		PoolDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pool_depth",
			Help: "Last observed depth of slug_pool.",
		}),
		PoolRetryTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "pool_retry_total",
			Help: "Pool-drawn inserts retried after a stale slug lost the unique-key race.",
		}),
		CacheWriteFailTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_write_fail_total",
			Help: "Write-through or backfill cache writes that failed (non-fatal).",
		}),
		ShortenOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "shorten_outcomes_total",
			Help: "shorten() outcomes by result label.",
		}, []string{"result"}),
		LookupTierTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "lookup_tier_total",
			Help: "lookup() hits by tier (lru, cache, store, miss).",
		}, []string{"tier"}),
		StoreErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "store_errors_total",
			Help: "Store-level errors surfaced as 503.",
		}),
	}
	reg.MustRegister(
		m.CollisionTotal, m.FillerTickErrors, m.PoolDepth,
		m.PoolRetryTotal, m.CacheWriteFailTotal, m.ShortenOutcomes,
		m.LookupTierTotal, m.StoreErrors,
	)
	return m
}

// Handler exposes the registry over HTTP for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
