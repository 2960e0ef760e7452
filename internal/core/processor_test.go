package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/custody-tracker/constants"
	"github.com/joseph-ayodele/custody-tracker/internal/async"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/contextbuilder"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
	"github.com/joseph-ayodele/custody-tracker/internal/repository"
	"github.com/joseph-ayodele/custody-tracker/internal/tracker"
)

const latePickupJSON = `{
  "events": [{
    "type": "coparent_conflict",
    "title": "Pickup 2.5 hours late",
    "description": "Other parent arrived at 8:30pm for a 6:00pm pickup.",
    "timestamp": "2026-01-29T18:00:00-05:00",
    "time_precision": "exact",
    "duration_minutes": 150,
    "location": null,
    "participants": ["other parent", "child"],
    "child_involved": true,
    "custody_relevance": {
      "agreement_violation": true,
      "safety_concern": false,
      "welfare_impact": {"category": "emotional", "direction": "negative", "severity": "medium"}
    },
    "child_statements": [],
    "coparent_interaction": null,
    "patterns": []
  }],
  "action_items": [{"priority": "high", "type": "document", "description": "Save the photo", "deadline": "2026-02-05"}],
  "metadata": {"extraction_confidence": 0.9, "ambiguities": []}
}`

const emptyJSON = `{"events": [], "action_items": [], "metadata": {"extraction_confidence": 0.97, "ambiguities": []}}`

type scriptedCompleter struct {
	mu        sync.Mutex
	responses []string
	delay     time.Duration
	calls     int
	last      llm.CompletionRequest
}

func (s *scriptedCompleter) Complete(ctx context.Context, req llm.CompletionRequest) ([]byte, error) {
	s.mu.Lock()
	i := s.calls
	s.calls++
	s.last = req
	s.mu.Unlock()
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if i >= len(s.responses) {
		i = len(s.responses) - 1
	}
	return []byte(s.responses[i]), nil
}

func (s *scriptedCompleter) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (q *recordingQueue) Enqueue(_ context.Context, j async.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, j)
	return nil
}

func (q *recordingQueue) Shutdown(context.Context) {}

type env struct {
	store     *repository.Store
	broker    *notify.Broker
	proc      *Processor
	completer *scriptedCompleter
	queue     *recordingQueue
	user      entity.User
	entry     entity.JournalEntry
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEnv(t *testing.T, c *scriptedCompleter, invTimeout time.Duration, opts ...Option) *env {
	t.Helper()
	ctx := context.Background()
	logger := quiet()

	db, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "core.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, logger) })
	require.NoError(t, repository.Migrate(ctx, db, logger))
	store := repository.NewStore(db, logger)

	inv, err := llm.NewInvoker(c, logger, llm.WithTimeout(invTimeout))
	require.NoError(t, err)

	broker := notify.NewBroker(logger)
	base := []Option{
		WithPublisher(broker),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}
	clock := func() time.Time { return time.Date(2026, 1, 30, 23, 0, 0, 0, time.UTC) }
	proc := NewProcessor(logger, store, contextbuilder.New(contextbuilder.WithClock(clock)), inv, append(base, opts...)...)
	q := &recordingQueue{}
	proc.SetQueue(q)

	e := &env{store: store, broker: broker, proc: proc, completer: c, queue: q}
	e.user = entity.User{DisplayName: "Sam", Timezone: "-05:00"}
	require.NoError(t, store.Q().Users.Create(ctx, &e.user))
	ref := "2026-01-30"
	e.entry = entity.JournalEntry{UserID: e.user.ID, Text: "Nothing unusual happened today", ReferenceDate: &ref}
	require.NoError(t, store.Q().Entries.Create(ctx, &e.entry))
	return e
}

func (e *env) newEntry(t *testing.T, text string) entity.JournalEntry {
	t.Helper()
	entry := entity.JournalEntry{UserID: e.user.ID, Text: text}
	require.NoError(t, e.store.Q().Entries.Create(context.Background(), &entry))
	return entry
}

func (e *env) addEvidence(t *testing.T, entryID uuid.UUID, summary string, processed bool) entity.EvidenceItem {
	t.Helper()
	item := entity.EvidenceItem{JournalEntryID: entryID, SourceType: constants.EvidenceImage, StorageRef: "s3://bucket/photo.jpg", Processed: processed}
	if summary != "" {
		item.Summary = &summary
	}
	require.NoError(t, e.store.Q().Evidence.Create(context.Background(), &item))
	return item
}

func (e *env) job(t *testing.T, id uuid.UUID) *entity.ExtractionJob {
	t.Helper()
	j, err := e.store.Q().Jobs.Get(context.Background(), id)
	require.NoError(t, err)
	return j
}

func (e *env) entryStatus(t *testing.T, id uuid.UUID) *entity.JournalEntry {
	t.Helper()
	got, err := e.store.Q().Entries.Get(context.Background(), e.user.ID, id)
	require.NoError(t, err)
	return got
}

func TestScenarioA_ZeroEventsCompletes(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusPending, job.Status)
	require.Len(t, e.queue.jobs, 1)
	assert.Equal(t, job.ID, e.queue.jobs[0].JobID)
	assert.Equal(t, constants.EntryStatusProcessing, e.entryStatus(t, e.entry.ID).Status)

	require.NoError(t, e.proc.Handle(ctx, job.ID))

	got := e.job(t, job.ID)
	assert.Equal(t, constants.JobStatusCompleted, got.Status)
	require.NotNil(t, got.ResultSummary)
	assert.Equal(t, 0, got.ResultSummary.EventsCreated)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, constants.EntryStatusCompleted, e.entryStatus(t, e.entry.ID).Status)
}

func TestScenarioB_LatePickupWithPhoto(t *testing.T) {
	c := &scriptedCompleter{responses: []string{latePickupJSON}}
	e := newEnv(t, c, time.Second)
	ctx := context.Background()

	entry := e.newEntry(t, "Pickup was at 6pm yesterday. He showed up 2.5 hours late and our daughter cried.")
	photo := e.addEvidence(t, entry.ID, "Photo of the empty driveway at 7:45pm", true)

	job, err := e.proc.Submit(ctx, e.user.ID, entry.ID)
	require.NoError(t, err)
	require.NoError(t, e.proc.Handle(ctx, job.ID))

	got := e.job(t, job.ID)
	require.Equal(t, constants.JobStatusCompleted, got.Status)
	assert.GreaterOrEqual(t, got.ResultSummary.EventsCreated, 1)
	assert.Equal(t, 1, got.ResultSummary.EvidenceProcessed)
	assert.Equal(t, 1, got.ResultSummary.ActionItemsCreated)
	assert.Contains(t, c.last.User, fmt.Sprintf("Evidence [%s]: Photo of the empty driveway", photo.ID))

	events, err := e.store.Q().Events.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, events, got.ResultSummary.EventsCreated)
	ev := events[0]
	assert.Equal(t, constants.CoparentConflict, ev.Type)
	assert.Equal(t, constants.LegacyNegative, ev.LegacyType)
	assert.True(t, ev.ChildInvolved)
	assert.False(t, ev.Relevance.SafetyConcern)
	assert.Equal(t, "2026-01-29T18:00:00-05:00", ev.Timestamp.Format(time.RFC3339))
	assert.Equal(t, []uuid.UUID{ev.ID}, got.ResultSummary.EventIDs)

	stored := e.entryStatus(t, entry.ID)
	assert.Equal(t, constants.EntryStatusReview, stored.Status)
	assert.True(t, json.Valid(stored.RawExtraction))
}

func TestScenarioC_TimeoutFailsAndSignals(t *testing.T) {
	c := &scriptedCompleter{responses: []string{emptyJSON}, delay: 500 * time.Millisecond}
	e := newEnv(t, c, 20*time.Millisecond, WithInvokeAttempts(2))
	ctx := context.Background()

	var (
		mu       sync.Mutex
		failures []string
	)
	reg := tracker.New(e.broker, func(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
		return e.store.Q().Jobs.Get(ctx, id)
	}, tracker.SinkFuncs{
		OnSuccess: func(uuid.UUID, string) { t.Error("unexpected success signal") },
		OnFailure: func(_ uuid.UUID, msg string) {
			mu.Lock()
			defer mu.Unlock()
			failures = append(failures, msg)
		},
	}, quiet())

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	require.True(t, reg.Track(ctx, job.ID))
	done := reg.Wait(job.ID)

	err = e.proc.Handle(ctx, job.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrExtractionFailed))
	assert.Equal(t, 2, c.Calls(), "timeouts are retried")

	got := e.job(t, job.ID)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Contains(t, *got.ErrorMessage, "timed out")
	n, err := e.store.Q().Events.CountByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	entry := e.entryStatus(t, e.entry.ID)
	assert.Equal(t, constants.EntryStatusFailed, entry.Status)
	require.NotNil(t, entry.ProcessingError)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("tracker never received the failure")
	}
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, failures, 1)
	assert.Equal(t, *got.ErrorMessage, failures[0])
	assert.Equal(t, 0, reg.Len())
}

func TestScenarioD_SecondSubmitConflicts(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()

	_, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	_, err = e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.ErrorIs(t, err, common.ErrConflict)

	counts, err := e.store.Q().Jobs.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[constants.JobStatus]int{constants.JobStatusPending: 1}, counts)
	assert.Len(t, e.queue.jobs, 1)
}

func TestSubmit_ConcurrentOnlyOneWins(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		wins      int
		conflicts int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, common.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, conflicts)
}

func TestHandle_RedeliveryIsIdempotent(t *testing.T) {
	c := &scriptedCompleter{responses: []string{latePickupJSON}}
	e := newEnv(t, c, time.Second)
	ctx := context.Background()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	require.NoError(t, e.proc.Handle(ctx, job.ID))
	require.NoError(t, e.proc.Handle(ctx, job.ID))

	assert.Equal(t, 1, c.Calls())
	n, err := e.store.Q().Events.CountByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, e.job(t, job.ID).Attempt)
}

func TestHandle_UnreadableClaimLeavesJobRedeliverable(t *testing.T) {
	c := &scriptedCompleter{responses: []string{emptyJSON}}
	e := newEnv(t, c, time.Second)
	ctx := context.Background()
	raw := e.store.DB().SQL()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	_, err = raw.ExecContext(ctx, "UPDATE extraction_jobs SET result_summary = 'not json' WHERE id = ?", job.ID)
	require.NoError(t, err)

	require.Error(t, e.proc.Handle(ctx, job.ID))
	assert.Equal(t, 0, c.Calls())
	assert.Equal(t, constants.EntryStatusProcessing, e.entryStatus(t, e.entry.ID).Status)

	_, err = raw.ExecContext(ctx, "UPDATE extraction_jobs SET result_summary = NULL WHERE id = ?", job.ID)
	require.NoError(t, err)
	got := e.job(t, job.ID)
	assert.Equal(t, constants.JobStatusPending, got.Status)

	require.NoError(t, e.proc.Handle(ctx, job.ID))
	assert.Equal(t, constants.JobStatusCompleted, e.job(t, job.ID).Status)
	assert.Equal(t, constants.EntryStatusCompleted, e.entryStatus(t, e.entry.ID).Status)
}

func TestHandle_ConcurrentDeliveryConflicts(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	ok, err := e.store.Q().Jobs.Claim(ctx, job.ID)
	require.NoError(t, err)
	require.True(t, ok)

	err = e.proc.Handle(ctx, job.ID)
	require.ErrorIs(t, err, common.ErrConflict)
	assert.Equal(t, constants.JobStatusProcessing, e.job(t, job.ID).Status)
}

func TestHandle_SchemaViolationFailsThenResubmit(t *testing.T) {
	c := &scriptedCompleter{responses: []string{"Sure! Here are the events you asked for.", emptyJSON}}
	e := newEnv(t, c, time.Second, WithInvokeAttempts(1))
	ctx := context.Background()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	require.Error(t, e.proc.Handle(ctx, job.ID))

	got := e.job(t, job.ID)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Contains(t, *got.ErrorMessage, "did not match the expected format")

	// terminal jobs stay as they are; a resubmit creates a new job
	again, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	assert.NotEqual(t, job.ID, again.ID)
	require.NoError(t, e.proc.Handle(ctx, again.ID))
	assert.Equal(t, constants.JobStatusCompleted, e.job(t, again.ID).Status)
	assert.Equal(t, constants.JobStatusFailed, e.job(t, job.ID).Status)
}

type panicExtractor struct{}

func (panicExtractor) Extract(context.Context, llm.ExtractionRequest) (*llm.ExtractionResult, []byte, error) {
	panic("provider client bug")
}

func TestHandle_PanicLeavesJobFailed(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()
	e.proc.extractor = panicExtractor{}

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	err = e.proc.Handle(ctx, job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")

	got := e.job(t, job.ID)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "Extraction failed due to an unexpected error.", *got.ErrorMessage)
}

func TestSubmit_InputErrors(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()

	_, err := e.proc.Submit(ctx, uuid.Nil, e.entry.ID)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = e.proc.Submit(ctx, e.user.ID, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = e.proc.Submit(ctx, uuid.New(), e.entry.ID)
	assert.ErrorIs(t, err, common.ErrNotFound, "entries of other users are invisible")

	counts, err := e.store.Q().Jobs.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestSubmit_EvidenceGate(t *testing.T) {
	c := &scriptedCompleter{responses: []string{emptyJSON}}
	e := newEnv(t, c, time.Second)
	ctx := context.Background()
	entry := e.newEntry(t, "She kept him an extra night.")
	pending := e.addEvidence(t, entry.ID, "", false)

	_, err := e.proc.Submit(ctx, e.user.ID, entry.ID)
	require.ErrorIs(t, err, common.ErrEvidenceNotReady)
	assert.Equal(t, constants.EntryStatusDraft, e.entryStatus(t, entry.ID).Status)

	lenient := NewProcessor(quiet(), e.store, nil, e.proc.extractor,
		WithRequireProcessedEvidence(false),
		WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	job, err := lenient.Submit(ctx, e.user.ID, entry.ID)
	require.NoError(t, err)
	require.NoError(t, lenient.Handle(ctx, job.ID))
	assert.NotContains(t, c.last.User, pending.ID.String())
	assert.Equal(t, 0, e.job(t, job.ID).ResultSummary.EvidenceProcessed)
}

func TestCancel(t *testing.T) {
	c := &scriptedCompleter{responses: []string{emptyJSON}}
	e := newEnv(t, c, time.Second)
	ctx := context.Background()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)

	_, err = e.proc.Cancel(ctx, uuid.New(), job.ID)
	require.ErrorIs(t, err, common.ErrNotFound)

	out, err := e.proc.Cancel(ctx, e.user.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusCancelled, out.Status)
	assert.Equal(t, constants.EntryStatusCancelled, e.entryStatus(t, e.entry.ID).Status)

	_, err = e.proc.Cancel(ctx, e.user.ID, job.ID)
	require.ErrorIs(t, err, common.ErrConflict)

	// a late delivery of the cancelled job does nothing
	require.NoError(t, e.proc.Handle(ctx, job.ID))
	assert.Equal(t, 0, c.Calls())
	assert.Equal(t, constants.JobStatusCancelled, e.job(t, job.ID).Status)
}

func TestCancel_ProcessingJobConflicts(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()
	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	require.NoError(t, e.proc.Handle(ctx, job.ID))

	_, err = e.proc.Cancel(ctx, e.user.ID, job.ID)
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestPublishesTransitions(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()

	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)
	ch, cancel := e.broker.Subscribe(job.ID)
	defer cancel()
	require.NoError(t, e.proc.Handle(ctx, job.ID))

	var statuses []constants.JobStatus
	for len(statuses) < 2 {
		select {
		case j := <-ch:
			statuses = append(statuses, j.Status)
		case <-time.After(time.Second):
			t.Fatalf("got %v", statuses)
		}
	}
	assert.Equal(t, []constants.JobStatus{constants.JobStatusProcessing, constants.JobStatusCompleted}, statuses)
}

func TestRecoverPending(t *testing.T) {
	e := newEnv(t, &scriptedCompleter{responses: []string{emptyJSON}}, time.Second)
	ctx := context.Background()
	job, err := e.proc.Submit(ctx, e.user.ID, e.entry.ID)
	require.NoError(t, err)

	fresh := &recordingQueue{}
	e.proc.SetQueue(fresh)
	n, err := e.proc.RecoverPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, fresh.jobs, 1)
	assert.Equal(t, job.ID, fresh.jobs[0].JobID)
}

func TestFailureMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&llm.ExtractionError{Kind: llm.KindTimeout}, "timed out"},
		{&llm.ExtractionError{Kind: llm.KindUnavailable, StatusCode: 503}, "unavailable"},
		{&llm.ExtractionError{Kind: llm.KindSchema}, "expected format"},
		{common.EvidenceNotReady("x"), "evidence"},
		{fmt.Errorf("wrap: %w", ErrStuck), "too long"},
		{common.NotFound("entry"), "no longer exists"},
		{errors.New("boom"), "unexpected error"},
	}
	for _, tt := range tests {
		assert.True(t, strings.Contains(FailureMessage(tt.err), tt.want), "%v -> %q", tt.err, FailureMessage(tt.err))
	}
}
