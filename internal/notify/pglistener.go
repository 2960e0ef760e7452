package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

// Channel is the Postgres NOTIFY channel fed by the extraction_jobs trigger.
const Channel = "extraction_jobs"

// FetchFunc loads the current job row for a notification.
type FetchFunc func(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error)

// Notice is the trigger payload: the job key and the status it moved to.
type Notice struct {
	ID     uuid.UUID           `json:"id"`
	Status constants.JobStatus `json:"status"`
}

// PGListener relays trigger notifications from Postgres into a Publisher,
// re-reading each job so subscribers get the full row.
type PGListener struct {
	pool    *pgxpool.Pool
	fetch   FetchFunc
	pub     Publisher
	log     *slog.Logger
	backoff func() backoff.BackOff
}

func NewPGListener(pool *pgxpool.Pool, fetch FetchFunc, pub Publisher, logger *slog.Logger) *PGListener {
	if logger == nil {
		logger = slog.Default()
	}
	return &PGListener{
		pool:  pool,
		fetch: fetch,
		pub:   pub,
		log:   logger,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 250 * time.Millisecond
			b.MaxInterval = 10 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Run listens until ctx is done, reconnecting with backoff when the connection drops.
func (l *PGListener) Run(ctx context.Context) error {
	bo := backoff.WithContext(l.backoff(), ctx)
	for {
		err := l.listen(ctx, bo.Reset)
		if ctx.Err() != nil {
			return nil
		}
		wait := bo.NextBackOff()
		if wait == backoff.Stop {
			return err
		}
		l.log.Warn("notify.listen.reconnect", "err", err, "wait", wait)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}
	}
}

func (l *PGListener) listen(ctx context.Context, connected func()) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+Channel); err != nil {
		return fmt.Errorf("listen %s: %w", Channel, err)
	}
	connected()
	l.log.Info("notify.listen.ok", "channel", Channel)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		l.relay(ctx, n.Payload)
	}
}

// relay publishes the row behind one notification. Failures are logged and dropped;
// watchers re-read on their own heartbeat.
func (l *PGListener) relay(ctx context.Context, payload string) {
	notice, err := DecodePayload(payload)
	if err != nil {
		l.log.Error("notify.decode.failed", "err", err)
		return
	}
	job, err := l.fetch(ctx, notice.ID)
	if err != nil {
		l.log.Error("notify.fetch.failed", "job_id", notice.ID, "status", notice.Status, "err", err)
		return
	}
	l.pub.Publish(*job)
}

// DecodePayload parses a trigger payload.
func DecodePayload(payload string) (Notice, error) {
	var n Notice
	if payload == "" {
		return n, errors.New("empty notification payload")
	}
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return n, fmt.Errorf("decode job notification: %w", err)
	}
	if n.ID == uuid.Nil {
		return n, errors.New("notification without job id")
	}
	return n, nil
}
