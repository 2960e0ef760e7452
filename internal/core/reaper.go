package core

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrStuck marks a job failed by the reaper.
var ErrStuck = errors.New("job stuck in processing")

// Reaper fails jobs left in processing longer than a cutoff. A stuck job is an alarm
// condition, so each one is logged at error level.
type Reaper struct {
	proc     *Processor
	logger   *slog.Logger
	after    time.Duration
	interval time.Duration
	now      func() time.Time
}

func NewReaper(proc *Processor, after, interval time.Duration, logger *slog.Logger) *Reaper {
	if logger == nil {
		logger = slog.Default()
	}
	if after <= 0 {
		after = 15 * time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{proc: proc, logger: logger, after: after, interval: interval, now: time.Now}
}

// Run sweeps every interval until ctx is done.
func (r *Reaper) Run(ctx context.Context) error {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("job.reaper.sweep_failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

// Sweep fails every stuck job once and returns how many it failed.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	stuck, err := r.proc.store.Q().Jobs.ListStuck(ctx, r.now().Add(-r.after))
	if err != nil {
		return 0, err
	}
	for _, job := range stuck {
		r.logger.Error("job.stuck", "job_id", job.ID, "entry_id", job.JournalEntryID, "started_at", job.StartedAt)
		r.proc.FailJob(ctx, job, ErrStuck)
	}
	return len(stuck), nil
}
