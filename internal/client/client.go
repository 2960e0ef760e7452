// Package client dials the custody service and adapts its watch stream to the
// notify.Subscriber the job tracker consumes.
package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/auth"
	"github.com/joseph-ayodele/custody-tracker/internal/entity"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
	"github.com/joseph-ayodele/custody-tracker/internal/utils"
)

// Client is a connected CustodyService client. Token may be empty for public calls.
type Client struct {
	pb.CustodyServiceClient
	conn  *grpc.ClientConn
	token string
}

func Dial(target, token string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{token: token}
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(pb.CallOption()),
		grpc.WithUnaryInterceptor(c.unaryToken),
		grpc.WithStreamInterceptor(c.streamToken),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.CustodyServiceClient = pb.NewCustodyServiceClient(conn)
	return c, nil
}

func (c *Client) Close() error { return c.conn.Close() }

func (c *Client) withToken(ctx context.Context) context.Context {
	if c.token == "" {
		return ctx
	}
	return auth.WithBearer(ctx, c.token)
}

func (c *Client) unaryToken(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
	return invoker(c.withToken(ctx), method, req, reply, cc, opts...)
}

func (c *Client) streamToken(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
	return streamer(c.withToken(ctx), desc, cc, method, opts...)
}

// FetchJob reads the current state of a job.
func (c *Client) FetchJob(ctx context.Context, id uuid.UUID) (*entity.ExtractionJob, error) {
	resp, err := c.GetJob(ctx, &pb.GetJobRequest{JobId: id.String()})
	if err != nil {
		return nil, err
	}
	return utils.FromPBJob(resp.Job)
}

// Watcher turns WatchJob streams into subscription channels.
type Watcher struct {
	client pb.CustodyServiceClient
	ctx    context.Context
	logger *slog.Logger
}

var _ notify.Subscriber = (*Watcher)(nil)

// NewWatcher opens streams under ctx; cancelling ctx ends every subscription.
func NewWatcher(ctx context.Context, client pb.CustodyServiceClient, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{client: client, ctx: ctx, logger: logger}
}

func (w *Watcher) Subscribe(jobID uuid.UUID) (<-chan entity.ExtractionJob, func()) {
	ctx, cancel := context.WithCancel(w.ctx)
	ch := make(chan entity.ExtractionJob, 4)
	var once sync.Once
	stop := func() { once.Do(cancel) }

	go func() {
		defer close(ch)
		stream, err := w.client.WatchJob(ctx, &pb.WatchJobRequest{JobId: jobID.String()})
		if err != nil {
			w.logger.Warn("watch.open.failed", "job_id", jobID, "err", err)
			return
		}
		for {
			msg, err := stream.Recv()
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			if err != nil {
				w.logger.Warn("watch.recv.failed", "job_id", jobID, "err", err)
				return
			}
			job, err := utils.FromPBJob(msg)
			if err != nil {
				w.logger.Warn("watch.decode.failed", "job_id", jobID, "err", err)
				continue
			}
			select {
			case ch <- *job:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch, stop
}
