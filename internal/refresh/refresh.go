// Package refresh re-runs a callback on a fixed interval while enabled.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher drives periodic refreshes through a cron "@every" schedule.
// Disabling removes the schedule; a tick already dispatched when Disable
// runs is dropped before it calls the callback.
type Refresher struct {
	cron     *cron.Cron
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	entry   cron.EntryID
	enabled bool
	gen     uint64 // bumped on every Enable/Disable; stale ticks compare against it
	started bool
	stopped bool
}

// New creates a Refresher for the given interval. Intervals below one
// second are raised to one second.
func New(interval time.Duration) *Refresher {
	if interval < time.Second {
		interval = time.Second
	}
	return &Refresher{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		interval: interval,
		logger:   slog.Default(),
	}
}

// WithLogger sets the logger for the refresher.
func (r *Refresher) WithLogger(logger *slog.Logger) *Refresher {
	r.logger = logger
	return r
}

// Interval returns the refresh period.
func (r *Refresher) Interval() time.Duration {
	return r.interval
}

// Enable schedules fn every interval, replacing any earlier callback.
func (r *Refresher) Enable(fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return fmt.Errorf("refresher stopped")
	}
	if r.enabled {
		r.cron.Remove(r.entry)
	}

	r.gen++
	gen := r.gen
	entry, err := r.cron.AddFunc(fmt.Sprintf("@every %s", r.interval), func() {
		r.mu.Lock()
		live := r.enabled && r.gen == gen && !r.stopped
		r.mu.Unlock()
		if live {
			fn()
		}
	})
	if err != nil {
		r.enabled = false
		return fmt.Errorf("schedule refresh every %s: %w", r.interval, err)
	}

	r.entry = entry
	r.enabled = true
	if !r.started {
		r.cron.Start()
		r.started = true
	}
	r.logger.Debug("auto-refresh enabled", "interval", r.interval, "next_run", r.cron.Entry(entry).Next)
	return nil
}

// Disable cancels the schedule. In-flight callbacks are not interrupted.
func (r *Refresher) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.enabled {
		return
	}
	r.cron.Remove(r.entry)
	r.enabled = false
	r.gen++
	r.logger.Debug("auto-refresh disabled")
}

// Enabled reports whether a schedule is active.
func (r *Refresher) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled
}

// NextRun returns when the next refresh fires, or the zero time when
// disabled.
func (r *Refresher) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return time.Time{}
	}
	return r.cron.Entry(r.entry).Next
}

// Stop disables refreshing for good. The returned context is done once any
// running callback has returned.
func (r *Refresher) Stop() context.Context {
	r.mu.Lock()
	r.stopped = true
	r.enabled = false
	started := r.started
	r.mu.Unlock()

	if !started {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return r.cron.Stop()
}
