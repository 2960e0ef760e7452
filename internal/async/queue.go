package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by Enqueue once shutdown has begun.
var ErrClosed = errors.New("queue is shutting down")

// Job is one delivery of an extraction job to a worker. Delivery is at-least-once,
// so the same JobID may arrive more than once.
type Job struct {
	JobID      uuid.UUID
	EnqueuedAt time.Time
	RequestID  string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
