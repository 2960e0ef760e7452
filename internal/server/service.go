package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/common"
	"github.com/joseph-ayodele/custody-tracker/internal/core"
	"github.com/joseph-ayodele/custody-tracker/internal/notify"
	"github.com/joseph-ayodele/custody-tracker/internal/repository"
)

// CustodyService implements pb.CustodyServiceServer on top of the job processor.
type CustodyService struct {
	pb.UnimplementedCustodyServiceServer
	store   *repository.Store
	proc    *core.Processor
	sub     notify.Subscriber
	secret  []byte
	ttl     time.Duration
	logger  *slog.Logger
	watchHB time.Duration
}

func NewCustodyService(store *repository.Store, proc *core.Processor, sub notify.Subscriber, secret []byte, ttl time.Duration, logger *slog.Logger) *CustodyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CustodyService{
		store:   store,
		proc:    proc,
		sub:     sub,
		secret:  secret,
		ttl:     ttl,
		logger:  logger,
		watchHB: 30 * time.Second,
	}
}

func userFrom(ctx context.Context) (uuid.UUID, error) {
	id, ok := common.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "authentication required")
	}
	return id, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s is required", field)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "%s must be a UUID", field)
	}
	return id, nil
}

func optionalID(field, raw string) (*uuid.UUID, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	id, err := parseID(field, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func optionalStr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
