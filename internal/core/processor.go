// Package core runs the extraction job state machine:
// pending -> processing -> completed | failed, with cancelled reachable only from pending.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/async"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/contextbuilder"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
	"github.com/joseph-ayodele/custody-tracker/internal/mapper"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
	"github.com/joseph-ayodele/custody-tracker/internal/repository"
)

// finalizeTimeout bounds the failure write once the job context is gone.
const finalizeTimeout = 10 * time.Second

// Processor owns every transition of an extraction job.
type Processor struct {
	logger    *slog.Logger
	store     *repository.Store
	builder   *contextbuilder.Builder
	extractor llm.Extractor
	mapper    *mapper.Mapper
	queue     async.Queue
	pub       notify.Publisher

	invokeAttempts  int
	commitAttempts  int
	requireEvidence bool
	newBackOff      func() backoff.BackOff
}

type Option func(*Processor)

// WithPublisher publishes every transition after it commits. Leave it unset when a
// database trigger already emits notifications.
func WithPublisher(pub notify.Publisher) Option {
	return func(p *Processor) { p.pub = pub }
}

func WithInvokeAttempts(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.invokeAttempts = n
		}
	}
}

func WithCommitAttempts(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.commitAttempts = n
		}
	}
}

// WithRequireProcessedEvidence rejects submissions whose evidence is not processed.
// When false, unprocessed evidence is left out of the prompt.
func WithRequireProcessedEvidence(v bool) Option {
	return func(p *Processor) { p.requireEvidence = v }
}

// WithBackOff sets the retry schedule between attempts.
func WithBackOff(fn func() backoff.BackOff) Option {
	return func(p *Processor) {
		if fn != nil {
			p.newBackOff = fn
		}
	}
}

func WithMapper(m *mapper.Mapper) Option {
	return func(p *Processor) {
		if m != nil {
			p.mapper = m
		}
	}
}

func NewProcessor(
	logger *slog.Logger,
	store *repository.Store,
	builder *contextbuilder.Builder,
	extractor llm.Extractor,
	opts ...Option,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if builder == nil {
		builder = contextbuilder.New()
	}
	p := &Processor{
		logger:          logger,
		store:           store,
		builder:         builder,
		extractor:       extractor,
		mapper:          mapper.New(),
		invokeAttempts:  3,
		commitAttempts:  3,
		requireEvidence: true,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 500 * time.Millisecond
			b.MaxInterval = 5 * time.Second
			return b
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// SetQueue attaches the queue Submit hands new jobs to.
func (p *Processor) SetQueue(q async.Queue) { p.queue = q }

// Submit creates a pending job for an entry and enqueues it. Validation and conflict
// errors are returned before any job row exists.
func (p *Processor) Submit(ctx context.Context, userID, entryID uuid.UUID) (*entity.ExtractionJob, error) {
	if userID == uuid.Nil {
		return nil, common.InvalidInput("authenticated user is required")
	}
	q := p.store.Q()
	entry, err := q.Entries.Get(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(entry.Text) == "" {
		return nil, common.InvalidInput("entry text is required")
	}
	if !entry.Status.Submittable() {
		return nil, common.Conflict("an extraction is already running for this entry")
	}
	if p.requireEvidence {
		evidence, err := q.Evidence.ListByEntry(ctx, entryID)
		if err != nil {
			return nil, err
		}
		if pending := unready(evidence); len(pending) > 0 {
			return nil, common.EvidenceNotReady(fmt.Sprintf("%d evidence item(s) have not finished processing", len(pending)))
		}
	}

	job := &entity.ExtractionJob{UserID: userID, JournalEntryID: entryID}
	err = p.store.InTx(ctx, func(ctx context.Context, q *repository.Queries) error {
		active, err := q.Jobs.ActiveForEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if active != nil {
			return common.Conflict("an extraction is already running for this entry")
		}
		if err := q.Jobs.Create(ctx, job); err != nil {
			return err
		}
		return q.Entries.SetStatus(ctx, entryID, constants.EntryStatusProcessing, nil, submittable()...)
	})
	if err != nil {
		p.logger.Warn("job.submit.rejected", "entry_id", entryID, "user_id", userID, "err", err)
		return nil, err
	}
	p.publish(*job)

	if p.queue != nil {
		qerr := p.queue.Enqueue(ctx, async.Job{
			JobID:      job.ID,
			EnqueuedAt: job.CreatedAt,
			RequestID:  common.RequestIDFromContext(ctx),
		})
		if qerr != nil {
			// stays pending; RecoverPending picks it up on restart
			p.logger.Warn("job.enqueue.failed", "job_id", job.ID, "err", qerr)
		}
	}
	p.logger.Info("job.submitted", "job_id", job.ID, "entry_id", entryID)
	return job, nil
}

// Cancel moves a pending job to cancelled. Any other state is a conflict.
func (p *Processor) Cancel(ctx context.Context, userID, jobID uuid.UUID) (*entity.ExtractionJob, error) {
	job, err := p.store.Q().Jobs.GetForUser(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	err = p.store.InTx(ctx, func(ctx context.Context, q *repository.Queries) error {
		ok, err := q.Jobs.Cancel(ctx, jobID)
		if err != nil {
			return err
		}
		if !ok {
			return common.Conflict("only pending jobs can be cancelled")
		}
		err = q.Entries.SetStatus(ctx, job.JournalEntryID, constants.EntryStatusCancelled, nil, constants.EntryStatusProcessing)
		if errors.Is(err, common.ErrConflict) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	out, err := p.store.Q().Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	p.publish(*out)
	p.logger.Info("job.cancelled", "job_id", jobID)
	return out, nil
}

// Handle runs one delivery of a job. Redelivery of a terminal job is acknowledged
// without work; a job already processing elsewhere is ErrConflict. Every error after
// the claim leaves the job failed, never processing.
func (p *Processor) Handle(ctx context.Context, jobID uuid.UUID) (err error) {
	job, err := p.store.ClaimJob(ctx, jobID)
	if err != nil {
		return err
	}
	if job == nil {
		current, gerr := p.store.Q().Jobs.Get(ctx, jobID)
		if gerr != nil {
			return gerr
		}
		if current.Status.Terminal() {
			p.logger.Info("job.redelivered", "job_id", jobID, "status", current.Status)
			return nil
		}
		return common.Conflict("job is already being processed")
	}
	p.publish(*job)
	p.logger.Info("job.claim", "job_id", job.ID, "entry_id", job.JournalEntryID, "attempt", job.Attempt)

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("job.panic", "job_id", jobID, "panic", r)
			err = fmt.Errorf("job %s: panic: %v", jobID, r)
			p.fail(ctx, *job, err)
		}
	}()

	start := time.Now()
	done, err := p.run(ctx, *job)
	if err != nil {
		p.fail(ctx, *job, err)
		return err
	}
	p.publish(*done)
	p.logger.Info("job.completed", "job_id", done.ID,
		"events", done.ResultSummary.EventsCreated, "duration", time.Since(start))
	return nil
}

func (p *Processor) run(ctx context.Context, job entity.ExtractionJob) (*entity.ExtractionJob, error) {
	q := p.store.Q()
	entry, err := q.Entries.Get(ctx, job.UserID, job.JournalEntryID)
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}
	user, err := q.Users.Get(ctx, job.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	var kase *entity.Case
	if entry.CaseID != nil {
		if kase, err = q.Cases.Get(ctx, job.UserID, *entry.CaseID); err != nil && !errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("load case: %w", err)
		}
	}
	evidence, err := q.Evidence.ListByEntry(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("load evidence: %w", err)
	}
	if p.requireEvidence {
		if pending := unready(evidence); len(pending) > 0 {
			return nil, common.EvidenceNotReady(fmt.Sprintf("%d evidence item(s) have not finished processing", len(pending)))
		}
	}

	in := contextbuilder.Input{
		EntryText:   entry.Text,
		Evidence:    evidence,
		Case:        kase,
		DisplayName: user.DisplayName,
		Timezone:    user.Timezone,
	}
	if entry.ReferenceDate != nil {
		in.ReferenceDate = *entry.ReferenceDate
	}
	built, err := p.builder.Build(in)
	if err != nil {
		return nil, fmt.Errorf("build context: %w", err)
	}
	if len(built.SkippedEvidence) > 0 {
		p.logger.Warn("job.evidence.skipped", "job_id", job.ID, "count", len(built.SkippedEvidence))
	}

	res, raw, err := p.extract(ctx, job, built.Request)
	if err != nil {
		return nil, err
	}

	events, items, err := p.mapper.ToRecords(job, res)
	if err != nil {
		return nil, fmt.Errorf("map extraction: %w", err)
	}
	used := make([]uuid.UUID, 0, len(built.Request.EvidenceSummaries))
	for _, e := range built.Request.EvidenceSummaries {
		if id, err := uuid.Parse(e.EvidenceID); err == nil {
			used = append(used, id)
		}
	}

	return p.commit(ctx, repository.CommitRequest{
		Job:           job,
		Events:        events,
		ActionItems:   items,
		EvidenceIDs:   used,
		RawExtraction: raw,
	})
}

// extract calls the extractor, retrying retryable failures with backoff.
func (p *Processor) extract(ctx context.Context, job entity.ExtractionJob, req llm.ExtractionRequest) (*llm.ExtractionResult, []byte, error) {
	var (
		res *llm.ExtractionResult
		raw []byte
	)
	op := func() error {
		var err error
		res, raw, err = p.extractor.Extract(ctx, req)
		if err != nil && !llm.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(p.invokeAttempts-1)), ctx)
	err := backoff.RetryNotify(op, bo, func(err error, wait time.Duration) {
		p.logger.Warn("job.extract.retry", "job_id", job.ID, "err", err, "wait", wait)
	})
	if err != nil {
		return nil, raw, err
	}
	return res, raw, nil
}

// commit retries transient database failures. A conflict means the job left
// processing, so retrying cannot help.
func (p *Processor) commit(ctx context.Context, req repository.CommitRequest) (*entity.ExtractionJob, error) {
	var done *entity.ExtractionJob
	op := func() error {
		var err error
		done, err = p.store.CommitExtraction(ctx, req)
		if err != nil && !errors.Is(err, common.ErrDatabase) {
			return backoff.Permanent(err)
		}
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(p.newBackOff(), uint64(p.commitAttempts-1)), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("commit extraction: %w", err)
	}
	return done, nil
}

// fail records a human-readable message on the job and the entry. It uses a fresh
// context because ctx may already be cancelled.
func (p *Processor) fail(ctx context.Context, job entity.ExtractionJob, cause error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	msg := FailureMessage(cause)
	var changed bool
	err := p.store.InTx(ctx, func(ctx context.Context, q *repository.Queries) error {
		var err error
		changed, err = q.Jobs.Fail(ctx, job.ID, msg)
		if err != nil || !changed || job.JournalEntryID == uuid.Nil {
			return err
		}
		err = q.Entries.SetStatus(ctx, job.JournalEntryID, constants.EntryStatusFailed, &msg, constants.EntryStatusProcessing)
		if errors.Is(err, common.ErrConflict) {
			return nil
		}
		return err
	})
	if err != nil {
		// the reaper will fail it later
		p.logger.Error("job.fail.write_failed", "job_id", job.ID, "cause", cause, "err", err)
		return
	}
	if !changed {
		p.logger.Warn("job.fail.skipped", "job_id", job.ID, "cause", cause)
		return
	}
	p.logger.Error("job.failed", "job_id", job.ID, "cause", cause, "message", msg)
	if out, err := p.store.Q().Jobs.Get(ctx, job.ID); err == nil {
		p.publish(*out)
	}
}

// FailJob fails a non-terminal job with a custom cause, used by the reaper.
func (p *Processor) FailJob(ctx context.Context, job entity.ExtractionJob, cause error) {
	p.fail(ctx, job, cause)
}

// RecoverPending re-enqueues every pending job, for use at startup.
func (p *Processor) RecoverPending(ctx context.Context) (int, error) {
	if p.queue == nil {
		return 0, errors.New("no queue attached")
	}
	jobs, err := p.store.Q().Jobs.ListByStatus(ctx, constants.JobStatusPending, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, j := range jobs {
		if err := p.queue.Enqueue(ctx, async.Job{JobID: j.ID, EnqueuedAt: time.Now()}); err != nil {
			return n, err
		}
		n++
	}
	if n > 0 {
		p.logger.Info("job.recovered", "count", n)
	}
	return n, nil
}

func (p *Processor) publish(job entity.ExtractionJob) {
	if p.pub != nil {
		p.pub.Publish(job)
	}
}

// FailureMessage turns an error into the message stored on a failed job.
func FailureMessage(err error) string {
	var ee *llm.ExtractionError
	switch {
	case errors.As(err, &ee):
		switch ee.Kind {
		case llm.KindTimeout:
			return "The extraction service timed out. You can resubmit the entry."
		case llm.KindSchema:
			return "The extraction service returned a response that did not match the expected format. You can resubmit the entry."
		}
		return "The extraction service is unavailable right now. Please try again later."
	case errors.Is(err, common.ErrEvidenceNotReady):
		return "Some evidence has not finished processing. Resubmit once it is ready."
	case errors.Is(err, ErrStuck):
		return "Processing took too long and was stopped. You can resubmit the entry."
	case errors.Is(err, common.ErrNotFound):
		return "The journal entry or its owner no longer exists."
	case errors.Is(err, common.ErrInvalidInput):
		return "The journal entry could not be processed: " + common.Message(err)
	case errors.Is(err, common.ErrDatabase):
		return "Saving the extracted events failed. You can resubmit the entry."
	case errors.Is(err, context.DeadlineExceeded):
		return "Processing took too long and was stopped. You can resubmit the entry."
	}
	return "Extraction failed due to an unexpected error."
}

func unready(items []entity.EvidenceItem) []uuid.UUID {
	var out []uuid.UUID
	for _, e := range items {
		if !e.Ready() {
			out = append(out, e.ID)
		}
	}
	return out
}

func submittable() []constants.EntryStatus {
	return []constants.EntryStatus{
		constants.EntryStatusDraft, constants.EntryStatusFailed, constants.EntryStatusCancelled,
		constants.EntryStatusReview, constants.EntryStatusCompleted,
	}
}
