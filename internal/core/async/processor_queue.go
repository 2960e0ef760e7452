package async

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	queue "github.com/joseph-ayodele/custody-tracker/internal/async"
)

// Handler runs one job delivery. *core.Processor satisfies it.
type Handler interface {
	Handle(ctx context.Context, jobID uuid.UUID) error
}

// ProcessorQueue is the in-process worker pool that delivers jobs to a Handler.
type ProcessorQueue struct {
	proc    Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan queue.Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan queue.Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan queue.Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					err := q.proc.Handle(ctx, job.JobID)
					cancel()

					if err != nil {
						q.logger.Error("job handling failed", "worker_id", workerID, "job_id", job.JobID, "error", err)
					} else {
						q.logger.Info("job handled", "worker_id", workerID, "job_id", job.JobID,
							"queued_for", time.Since(job.EnqueuedAt))
					}
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

// Enqueue blocks while the buffer is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job queue.Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "job_id", job.JobID)
		return queue.ErrClosed
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued job for processing", "job_id", job.JobID)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "job_id", job.JobID)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

var _ queue.Queue = (*ProcessorQueue)(nil)
