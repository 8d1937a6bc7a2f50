package syncworker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"railmap/internal/metrics"
	"railmap/internal/store"
)

// Source is the part of store.Source the worker polls.
type Source interface {
	Version(ctx context.Context) (string, error)
	Load(ctx context.Context) (store.Snapshot, error)
}

// ApplyFunc hands a freshly loaded snapshot to the renderer owner.
type ApplyFunc func(ctx context.Context, snap store.Snapshot) error

type Worker struct {
	log          zerolog.Logger
	src          Source
	apply        ApplyFunc
	pollInterval time.Duration
	loadTimeout  time.Duration
	metrics      *metrics.Metrics

	mu      sync.Mutex
	version string
	loaded  bool
}

type Options struct {
	PollInterval time.Duration
	LoadTimeout  time.Duration
}

func New(log zerolog.Logger, src Source, apply ApplyFunc, opts Options, m *metrics.Metrics) *Worker {
	pi := opts.PollInterval
	if pi <= 0 {
		pi = 2 * time.Second
	}
	lt := opts.LoadTimeout
	if lt <= 0 {
		lt = 30 * time.Second
	}
	return &Worker{
		log:          log,
		src:          src,
		apply:        apply,
		pollInterval: pi,
		loadTimeout:  lt,
		metrics:      m,
	}
}

// Run polls until ctx is cancelled. Failures back off exponentially.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.src == nil || w.apply == nil {
		return
	}

	timer := time.NewTimer(w.pollInterval)
	defer timer.Stop()

	var consecutiveFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := w.sync(ctx, false); err != nil {
			consecutiveFailures++
			w.log.Warn().Err(err).Int("failures", consecutiveFailures).Msg("map sync failed")
		} else {
			consecutiveFailures = 0
		}

		timer.Reset(backoffDuration(w.pollInterval, consecutiveFailures))
	}
}

// SyncNow loads and applies the source if its version changed since the
// last successful apply. It reports whether anything was applied.
func (w *Worker) SyncNow(ctx context.Context) (bool, error) {
	return w.sync(ctx, false)
}

// Reload loads and applies the source unconditionally.
func (w *Worker) Reload(ctx context.Context) error {
	_, err := w.sync(ctx, true)
	return err
}

// Version is the last applied source version.
func (w *Worker) Version() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.version, w.loaded
}

func (w *Worker) sync(ctx context.Context, force bool) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	version, err := w.src.Version(ctx)
	if err != nil {
		w.metrics.ObserveSync("error", 0)
		return false, fmt.Errorf("poll version: %w", err)
	}
	if !force && w.loaded && version == w.version {
		w.metrics.ObserveSync("unchanged", 0)
		return false, nil
	}

	start := time.Now()
	loadCtx, cancel := context.WithTimeout(ctx, w.loadTimeout)
	defer cancel()

	snap, err := w.src.Load(loadCtx)
	if err != nil {
		w.metrics.ObserveSync("error", 0)
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	if snap.Version == "" {
		snap.Version = version
	}
	if err := w.apply(loadCtx, snap); err != nil {
		w.metrics.ObserveSync("error", 0)
		return false, fmt.Errorf("apply snapshot: %w", err)
	}

	w.version = snap.Version
	w.loaded = true
	w.metrics.ObserveSync("applied", time.Since(start))
	w.log.Info().
		Str("version", snap.Version).
		Int("stations", len(snap.Stations)).
		Int("connections", len(snap.Connections)).
		Dur("elapsed", time.Since(start)).
		Msg("map data synced")
	return true, nil
}

func backoffDuration(base time.Duration, failures int) time.Duration {
	if base <= 0 {
		base = 2 * time.Second
	}
	if failures <= 0 {
		return base
	}

	// base * 2^failures, capped.
	if failures > 6 {
		failures = 6
	}
	d := base * time.Duration(1<<failures)
	if d > 10*time.Second {
		return 10 * time.Second
	}
	return d
}
