// Package tracker is the client-side registry of in-flight extraction jobs. It turns
// the first terminal notification for each job into exactly one user-visible signal.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
)

// FetchFunc loads the current job record. It covers jobs that finished before the
// subscription was opened.
type FetchFunc func(ctx context.Context, jobID uuid.UUID) (*entity.ExtractionJob, error)

// Sink receives the user-visible signals.
type Sink interface {
	Success(jobID uuid.UUID, summary string)
	Failure(jobID uuid.UUID, message string)
}

// SinkFuncs adapts two functions to Sink.
type SinkFuncs struct {
	OnSuccess func(jobID uuid.UUID, summary string)
	OnFailure func(jobID uuid.UUID, message string)
}

func (s SinkFuncs) Success(jobID uuid.UUID, summary string) {
	if s.OnSuccess != nil {
		s.OnSuccess(jobID, summary)
	}
}

func (s SinkFuncs) Failure(jobID uuid.UUID, message string) {
	if s.OnFailure != nil {
		s.OnFailure(jobID, message)
	}
}

// Registry tracks jobs by id. A job leaves the registry on its first terminal record
// or on Teardown, whichever comes first.
type Registry struct {
	sub   notify.Subscriber
	fetch FetchFunc
	sink  Sink
	log   *slog.Logger

	mu   sync.Mutex
	jobs map[uuid.UUID]*tracked
}

type tracked struct {
	cancel func()
	done   chan struct{}
	once   sync.Once
}

func New(sub notify.Subscriber, fetch FetchFunc, sink Sink, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = SinkFuncs{}
	}
	return &Registry{
		sub:   sub,
		fetch: fetch,
		sink:  sink,
		log:   logger,
		jobs:  make(map[uuid.UUID]*tracked),
	}
}

// Track starts following jobID. It returns false when the job is already tracked.
func (r *Registry) Track(ctx context.Context, jobID uuid.UUID) bool {
	r.mu.Lock()
	if _, ok := r.jobs[jobID]; ok {
		r.mu.Unlock()
		return false
	}
	ch, cancel := r.sub.Subscribe(jobID)
	t := &tracked{cancel: cancel, done: make(chan struct{})}
	r.jobs[jobID] = t
	r.mu.Unlock()
	r.log.Debug("tracker.track", "job_id", jobID)

	go func() {
		for job := range ch {
			if job.Status.Terminal() {
				r.finish(jobID, t, &job)
				return
			}
		}
	}()

	if r.fetch != nil {
		go func() {
			job, err := r.fetch(ctx, jobID)
			if err != nil {
				r.log.Warn("tracker.fetch.failed", "job_id", jobID, "err", err)
				return
			}
			if job != nil && job.Status.Terminal() {
				r.finish(jobID, t, job)
			}
		}()
	}
	return true
}

// finish removes the job, unsubscribes, and emits one signal. Later calls are no-ops.
func (r *Registry) finish(jobID uuid.UUID, t *tracked, job *entity.ExtractionJob) {
	t.once.Do(func() {
		r.mu.Lock()
		if r.jobs[jobID] == t {
			delete(r.jobs, jobID)
		}
		r.mu.Unlock()
		t.cancel()

		if job.Status == constants.JobStatusCompleted {
			r.sink.Success(jobID, FormatSummary(job.ResultSummary))
		} else {
			r.sink.Failure(jobID, failureText(job))
		}
		r.log.Info("tracker.finished", "job_id", jobID, "status", job.Status)
		close(t.done)
	})
}

// Teardown force-unsubscribes every tracked job without emitting signals, e.g. on logout.
func (r *Registry) Teardown() {
	r.mu.Lock()
	jobs := r.jobs
	r.jobs = make(map[uuid.UUID]*tracked)
	r.mu.Unlock()

	for _, t := range jobs {
		t.once.Do(func() {
			t.cancel()
			close(t.done)
		})
	}
	if len(jobs) > 0 {
		r.log.Info("tracker.teardown", "jobs", len(jobs))
	}
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

// Wait returns a channel closed once jobID has left the registry.
// An untracked job yields an already closed channel.
func (r *Registry) Wait(jobID uuid.UUID) <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.jobs[jobID]; ok {
		return t.done
	}
	done := make(chan struct{})
	close(done)
	return done
}

// FormatSummary renders a result summary for people.
func FormatSummary(s *entity.ResultSummary) string {
	if s == nil || (s.EventsCreated == 0 && s.ActionItemsCreated == 0) {
		return "No events were found in this entry"
	}
	var parts []string
	parts = append(parts, plural(s.EventsCreated, "event"))
	if s.ActionItemsCreated > 0 {
		parts = append(parts, plural(s.ActionItemsCreated, "action item"))
	}
	out := "Created " + strings.Join(parts, " and ")
	if s.EvidenceProcessed > 0 {
		out += " from " + plural(s.EvidenceProcessed, "evidence item")
	}
	return out
}

func failureText(job *entity.ExtractionJob) string {
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		return *job.ErrorMessage
	}
	if job.Status == constants.JobStatusCancelled {
		return "Extraction was cancelled"
	}
	return "Extraction failed"
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
