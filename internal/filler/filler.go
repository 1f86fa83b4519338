// Package filler implements the slug-filler background producer: it keeps
// the shared slug_pool at or above a target depth of verified-unused
// slugs, absorbing the cost of random generation and uniqueness checking
// off write-svc's hot path.
package filler

import (
	"context"
	"log/slog"
	"time"

	"github.com/jhermesn/slugforge/internal/cache"
	"github.com/jhermesn/slugforge/internal/metrics"
	"github.com/jhermesn/slugforge/internal/slugid"
	"github.com/jhermesn/slugforge/internal/store"
)

// state names the filler's per-tick state machine position, logged at
// slog.Debug on each transition.
type state string

const (
	stateIdle       state = "IDLE"
	stateMeasuring  state = "MEASURING"
	stateGenerating state = "GENERATING"
	stateVerifying  state = "VERIFYING"
	stateEnqueuing  state = "ENQUEUING"
)

// Config controls the filler's target depth, tick cadence, batch size,
// and the slug length it generates.
type Config struct {
	SlugLen   int
	HighWater int
	Interval  time.Duration
	Batch     int
}

// Filler runs the IDLE -> MEASURING -> GENERATING -> VERIFYING ->
// ENQUEUING -> IDLE loop on a timer.
type Filler struct {
	store   store.Store
	cache   cache.Cache
	cfg     Config
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New constructs a Filler. log defaults to slog.Default() if nil.
func New(st store.Store, ch cache.Cache, cfg Config, m *metrics.Metrics, log *slog.Logger) *Filler {
	if log == nil {
		log = slog.Default()
	}
	return &Filler{store: st, cache: ch, cfg: cfg, metrics: m, log: log}
}

// Run blocks, ticking every cfg.Interval until ctx is cancelled. Errors
// within a tick abandon that tick (no partial enqueue is retried) and are
// logged with an incremented counter; the process itself never exits on a
// tick error.
func (f *Filler) Run(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		f.tick(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// tick runs exactly one pass of the state machine. The package's tests call
// it directly for deterministic, non-timer-driven control.
func (f *Filler) tick(ctx context.Context) {
	st := stateMeasuring
	f.log.Debug("filler state", "state", st)

	n, err := f.cache.PoolLen(ctx)
	if err != nil {
		f.abandon(err)
		return
	}
	f.metrics.PoolDepth.Set(float64(n))

	if n >= f.cfg.HighWater {
		f.log.Debug("filler state", "state", stateIdle)
		return
	}

	want := f.cfg.HighWater - n
	if want > f.cfg.Batch {
		want = f.cfg.Batch
	}

	st = stateGenerating
	f.log.Debug("filler state", "state", st)
	candidates, err := slugid.GenerateBatch(want, f.cfg.SlugLen)
	if err != nil {
		f.abandon(err)
		return
	}

	st = stateVerifying
	f.log.Debug("filler state", "state", st)
	exists, err := f.store.ExistBatch(ctx, candidates)
	if err != nil {
		f.abandon(err)
		return
	}

	var fresh []string
	var collisions int
	for _, c := range candidates {
		if exists[c] {
			collisions++
			continue
		}
		fresh = append(fresh, c)
	}
	if collisions > 0 {
		f.metrics.CollisionTotal.Add(float64(collisions))
	}

	if len(fresh) == 0 {
		f.log.Debug("filler state", "state", stateIdle)
		return
	}

	st = stateEnqueuing
	f.log.Debug("filler state", "state", st)
	if err := f.cache.PoolEnqueue(ctx, fresh); err != nil {
		f.abandon(err)
		return
	}

	f.log.Debug("filler state", "state", stateIdle, "enqueued", len(fresh), "collisions", collisions)
}

func (f *Filler) abandon(err error) {
	f.metrics.FillerTickErrors.Inc()
	f.log.Error("filler tick abandoned", "error", err, "state", stateIdle)
}
