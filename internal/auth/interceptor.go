package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/custody-tracker/internal/common"
)

const (
	metadataKey  = "authorization"
	requestIDKey = "x-request-id"
)

// Interceptors authenticates every call except the methods listed in public.
type Interceptors struct {
	secret []byte
	public map[string]bool
	logger *slog.Logger
}

func NewInterceptors(secret []byte, logger *slog.Logger, public ...string) *Interceptors {
	if logger == nil {
		logger = slog.Default()
	}
	p := make(map[string]bool, len(public))
	for _, m := range public {
		p[m] = true
	}
	return &Interceptors{secret: secret, public: p, logger: logger}
}

func (i *Interceptors) Unary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	ctx = withRequestID(ctx)
	if i.public[info.FullMethod] {
		return handler(ctx, req)
	}
	ctx, err := i.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

func (i *Interceptors) Stream(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := withRequestID(ss.Context())
	if i.public[info.FullMethod] {
		return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
	}
	ctx, err := i.authenticate(ctx, info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
}

func (i *Interceptors) authenticate(ctx context.Context, method string) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	var raw string
	if v := md.Get(metadataKey); len(v) > 0 {
		raw = v[0]
	}
	token, found := strings.CutPrefix(raw, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	userID, err := ParseToken(strings.TrimSpace(token), i.secret)
	if err != nil {
		i.logger.Warn("auth.rejected", "method", method, "err", err)
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}
	return common.WithUserID(ctx, userID), nil
}

// withRequestID carries the caller's x-request-id, or a fresh one.
func withRequestID(ctx context.Context) context.Context {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(requestIDKey); len(v) > 0 && strings.TrimSpace(v[0]) != "" {
			return common.WithRequestID(ctx, strings.TrimSpace(v[0]))
		}
	}
	return common.WithRequestID(ctx, uuid.NewString())
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }

// WithBearer attaches a token to outgoing calls.
func WithBearer(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, metadataKey, "Bearer "+token)
}
