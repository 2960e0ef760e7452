// Package notify publishes extraction job transitions to subscribers keyed by job id.
package notify

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/internal/entity"
)

// Publisher accepts updated job records.
type Publisher interface {
	Publish(job entity.ExtractionJob)
}

// Subscriber hands out a channel of updates for one job. The returned cancel func
// unsubscribes and closes the channel; calling it more than once is safe.
type Subscriber interface {
	Subscribe(jobID uuid.UUID) (<-chan entity.ExtractionJob, func())
}

const defaultBuffer = 4

// Broker is an in-process fan-out. Publish never blocks: when a subscriber's buffer
// is full the oldest queued record is dropped, so the newest state always arrives.
type Broker struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]map[*subscription]struct{}
	buffer int
	log    *slog.Logger
}

type subscription struct {
	ch   chan entity.ExtractionJob
	once sync.Once
}

func NewBroker(logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[uuid.UUID]map[*subscription]struct{}),
		buffer: defaultBuffer,
		log:    logger,
	}
}

func (b *Broker) Subscribe(jobID uuid.UUID) (<-chan entity.ExtractionJob, func()) {
	s := &subscription{ch: make(chan entity.ExtractionJob, b.buffer)}
	b.mu.Lock()
	set, ok := b.subs[jobID]
	if !ok {
		set = make(map[*subscription]struct{})
		b.subs[jobID] = set
	}
	set[s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		s.once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if set, ok := b.subs[jobID]; ok {
				delete(set, s)
				if len(set) == 0 {
					delete(b.subs, jobID)
				}
			}
			close(s.ch)
		})
	}
	return s.ch, cancel
}

func (b *Broker) Publish(job entity.ExtractionJob) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs[job.ID] {
		for sent := false; !sent; {
			select {
			case s.ch <- job:
				sent = true
			default:
				// full: drop the oldest and retry
				select {
				case <-s.ch:
				default:
				}
			}
		}
	}
	b.log.Debug("notify.publish", "job_id", job.ID, "status", job.Status)
}

// Subscribers returns the number of open subscriptions for jobID.
func (b *Broker) Subscribers(jobID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[jobID])
}
