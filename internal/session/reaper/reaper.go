// Package reaper periodically purges expired sessions so the refresh scan stays bounded.
package reaper

import (
	"context"
	"log/slog"
	"time"

	"session-auth/backend/internal/session/repository"
)

// sweepTimeout bounds one DeleteExpired call.
const sweepTimeout = 30 * time.Second

// Reaper deletes expired sessions every Interval until its context is cancelled.
type Reaper struct {
	repo     repository.Repository
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
}

// New returns a Reaper. A non-positive interval defaults to one hour; a nil logger uses slog.Default.
func New(repo repository.Repository, interval time.Duration, log *slog.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reaper{repo: repo, interval: interval, log: log, now: time.Now}
}

// Sweep runs one purge and returns the number of sessions removed.
func (r *Reaper) Sweep(ctx context.Context) (int64, error) {
	sweepCtx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()
	n, err := r.repo.DeleteExpired(sweepCtx, r.now().UTC())
	if err != nil {
		r.log.Error("reaper.sweep.fail", "error", err)
		return n, err
	}
	r.log.Info("reaper.sweep", "removed", n)
	return n, nil
}

// Run sweeps once immediately, then on every tick. It returns when ctx is done.
// Sweep errors are logged and do not stop the loop.
func (r *Reaper) Run(ctx context.Context) {
	_, _ = r.Sweep(ctx)

	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_, _ = r.Sweep(ctx)
		}
	}
}
