package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/auth"
	"github.com/joseph-ayodele/custody-tracker/internal/client"
	"github.com/joseph-ayodele/custody-tracker/internal/contextbuilder"
	"github.com/joseph-ayodele/custody-tracker/internal/core"
	jobqueue "github.com/joseph-ayodele/custody-tracker/internal/core/async"
	"github.com/joseph-ayodele/custody-tracker/internal/llm"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
	"github.com/joseph-ayodele/custody-tracker/internal/repository"
	"github.com/joseph-ayodele/custody-tracker/internal/tracker"
)

const oneEventJSON = `{
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
  "action_items": [{"priority": "high", "type": "document", "description": "Save the photo", "deadline": null}],
  "metadata": {"extraction_confidence": 0.9, "ambiguities": []}
}`

type fixedCompleter struct{ body string }

func (f fixedCompleter) Complete(context.Context, llm.CompletionRequest) ([]byte, error) {
	return []byte(f.body), nil
}

var secret = []byte("test-secret")

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type harness struct {
	target string
	dialer grpc.DialOption
	store  *repository.Store
}

// startServer runs the full stack over bufconn. With async false, submitted jobs stay
// pending so state-machine conflicts can be observed.
func startServer(t *testing.T, async bool) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	logger := quiet()

	db, err := repository.OpenSQLite(ctx, filepath.Join(t.TempDir(), "server.db"), logger)
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(ctx, db, logger))
	store := repository.NewStore(db, logger)

	inv, err := llm.NewInvoker(fixedCompleter{body: oneEventJSON}, logger)
	require.NoError(t, err)
	broker := notify.NewBroker(logger)
	proc := core.NewProcessor(logger, store, contextbuilder.New(), inv,
		core.WithPublisher(broker),
		core.WithBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }))
	var q *jobqueue.ProcessorQueue
	if async {
		q = jobqueue.NewProcessorQueue(proc, logger, jobqueue.WithWorkers(2))
		proc.SetQueue(q)
	}

	svc := NewCustodyService(store, proc, broker, secret, time.Hour, logger)
	srv, hs := NewGRPCServer(svc, auth.NewInterceptors(secret, logger, PublicMethods()...))
	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, hs, lis, logger) }()

	t.Cleanup(func() {
		cancel()
		<-done
		if q != nil {
			sctx, scancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer scancel()
			q.Shutdown(sctx)
		}
		repository.Close(db, logger)
	})
	return &harness{
		target: "passthrough:///bufnet",
		dialer: grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		store: store,
	}
}

func (h *harness) dial(t *testing.T, token string) *client.Client {
	t.Helper()
	c, err := client.Dial(h.target, token, h.dialer)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func (h *harness) newUser(t *testing.T) *client.Client {
	t.Helper()
	resp, err := h.dial(t, "").CreateUser(context.Background(), &pb.CreateUserRequest{DisplayName: "Sam", Timezone: "-06:00"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	return h.dial(t, resp.Token)
}

func TestEndToEnd_SubmitWatchListEvents(t *testing.T) {
	h := startServer(t, true)
	c := h.newUser(t)
	ctx := context.Background()

	entry, err := c.CreateEntry(ctx, &pb.CreateEntryRequest{
		Text:          "Pickup was at 6pm. He showed up at 8:30 and she cried in the car.",
		ReferenceDate: "2026-01-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "draft", entry.Entry.Status)

	ev, err := c.AddEvidence(ctx, &pb.AddEvidenceRequest{
		EntryId:    entry.Entry.Id,
		StorageRef: "s3://journal/driveway.jpg",
		Summary:    "Photo of the empty driveway at 7:45pm",
	})
	require.NoError(t, err)
	assert.Equal(t, "image", ev.Evidence.SourceType)
	assert.True(t, ev.Evidence.Processed)

	sub, err := c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: entry.Entry.Id})
	require.NoError(t, err)
	jobID := uuid.MustParse(sub.Job.Id)

	signals := make(chan string, 1)
	reg := tracker.New(client.NewWatcher(ctx, c, quiet()), c.FetchJob, tracker.SinkFuncs{
		OnSuccess: func(_ uuid.UUID, summary string) { signals <- summary },
		OnFailure: func(_ uuid.UUID, msg string) { signals <- "failed: " + msg },
	}, quiet())
	reg.Track(ctx, jobID)

	select {
	case got := <-signals:
		assert.Contains(t, got, "Created 1 event")
	case <-time.After(5 * time.Second):
		t.Fatal("no completion signal")
	}

	job, err := c.GetJob(ctx, &pb.GetJobRequest{JobId: sub.Job.Id})
	require.NoError(t, err)
	assert.Equal(t, "completed", job.Job.Status)
	require.NotNil(t, job.Job.ResultSummary)
	assert.Equal(t, 1, job.Job.ResultSummary.EvidenceProcessed)

	events, err := c.ListEvents(ctx, &pb.ListEventsRequest{EntryId: entry.Entry.Id})
	require.NoError(t, err)
	require.Len(t, events.Events, 1)
	assert.Equal(t, "coparent_conflict", events.Events[0].Type)
	assert.Equal(t, "negative", events.Events[0].LegacyType)
	assert.Equal(t, "2026-01-29T18:00:00-05:00", events.Events[0].Timestamp)
}

func TestWatchJob_StreamsUntilTerminal(t *testing.T) {
	h := startServer(t, false)
	c := h.newUser(t)
	ctx := context.Background()

	entry, err := c.CreateEntry(ctx, &pb.CreateEntryRequest{Text: "Quiet day."})
	require.NoError(t, err)
	sub, err := c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: entry.Entry.Id})
	require.NoError(t, err)

	stream, err := c.WatchJob(ctx, &pb.WatchJobRequest{JobId: sub.Job.Id})
	require.NoError(t, err)
	first, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "pending", first.Status)

	_, err = c.CancelJob(ctx, &pb.CancelJobRequest{JobId: sub.Job.Id})
	require.NoError(t, err)

	next, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "cancelled", next.Status)
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSubmitEntry_StateErrors(t *testing.T) {
	h := startServer(t, false)
	c := h.newUser(t)
	ctx := context.Background()

	entry, err := c.CreateEntry(ctx, &pb.CreateEntryRequest{Text: "She kept him an extra night."})
	require.NoError(t, err)

	_, err = c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: entry.Entry.Id})
	require.NoError(t, err)
	_, err = c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: entry.Entry.Id})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))

	other, err := c.CreateEntry(ctx, &pb.CreateEntryRequest{Text: "Text thread attached."})
	require.NoError(t, err)
	_, err = c.AddEvidence(ctx, &pb.AddEvidenceRequest{EntryId: other.Entry.Id, StorageRef: "s3://journal/thread.png"})
	require.NoError(t, err)
	_, err = c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: other.Entry.Id})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: "not-a-uuid"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: uuid.NewString()})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestCancelJob_OnlyPending(t *testing.T) {
	h := startServer(t, false)
	c := h.newUser(t)
	ctx := context.Background()

	entry, err := c.CreateEntry(ctx, &pb.CreateEntryRequest{Text: "Missed call at bedtime."})
	require.NoError(t, err)
	sub, err := c.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: entry.Entry.Id})
	require.NoError(t, err)

	out, err := c.CancelJob(ctx, &pb.CancelJobRequest{JobId: sub.Job.Id})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Job.Status)

	_, err = c.CancelJob(ctx, &pb.CancelJobRequest{JobId: sub.Job.Id})
	assert.Equal(t, codes.AlreadyExists, status.Code(err))
}

func TestAuth(t *testing.T) {
	h := startServer(t, false)
	ctx := context.Background()

	anon := h.dial(t, "")
	_, err := anon.GetJob(ctx, &pb.GetJobRequest{JobId: uuid.NewString()})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	bad := h.dial(t, "not-a-jwt")
	_, err = bad.CreateEntry(ctx, &pb.CreateEntryRequest{Text: "x"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	health := healthpb.NewHealthClient(anonConn(t, h))
	resp, err := health.Check(ctx, &healthpb.HealthCheckRequest{Service: pb.ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestJobsAreScopedToTheirOwner(t *testing.T) {
	h := startServer(t, false)
	alice := h.newUser(t)
	bob := h.newUser(t)
	ctx := context.Background()

	entry, err := alice.CreateEntry(ctx, &pb.CreateEntryRequest{Text: "Exchange went fine."})
	require.NoError(t, err)
	sub, err := alice.SubmitEntry(ctx, &pb.SubmitEntryRequest{EntryId: entry.Entry.Id})
	require.NoError(t, err)

	_, err = bob.GetJob(ctx, &pb.GetJobRequest{JobId: sub.Job.Id})
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = bob.ListEvents(ctx, &pb.ListEventsRequest{EntryId: entry.Entry.Id})
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = bob.CancelJob(ctx, &pb.CancelJobRequest{JobId: sub.Job.Id})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestCreateUser_Validation(t *testing.T) {
	h := startServer(t, false)
	anon := h.dial(t, "")
	_, err := anon.CreateUser(context.Background(), &pb.CreateUserRequest{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = anon.CreateUser(context.Background(), &pb.CreateUserRequest{DisplayName: "Sam", Timezone: "Mars/Olympus"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func anonConn(t *testing.T, h *harness) *grpc.ClientConn {
	t.Helper()
	conn, err := grpc.NewClient(h.target, h.dialer, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}
