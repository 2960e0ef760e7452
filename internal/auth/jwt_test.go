package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/custody-tracker/internal/common"
)

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()
	secret := []byte("super-secret")
	id := uuid.New()

	tok, err := GenerateToken(id, secret, time.Hour)
	require.NoError(t, err)
	got, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()
	tok, err := GenerateToken(uuid.New(), []byte("s"), -time.Second)
	require.NoError(t, err)
	_, err = ParseToken(tok, []byte("s"))
	assert.True(t, errors.Is(err, ErrTokenExpired))
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()
	tok, err := GenerateToken(uuid.New(), []byte("right"), time.Hour)
	require.NoError(t, err)
	_, err = ParseToken(tok, []byte("wrong"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateToken_NilUser(t *testing.T) {
	_, err := GenerateToken(uuid.Nil, []byte("s"), time.Hour)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestUnaryInterceptor(t *testing.T) {
	secret := []byte("secret")
	ic := NewInterceptors(secret, nil, "/custody.v1.CustodyService/Public")
	id := uuid.New()
	tok, err := GenerateToken(id, secret, time.Hour)
	require.NoError(t, err)

	var seen uuid.UUID
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen, _ = common.UserIDFromContext(ctx)
		return "ok", nil
	}
	info := &grpc.UnaryServerInfo{FullMethod: "/custody.v1.CustodyService/GetJob"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+tok))
	_, err = ic.Unary(ctx, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, id, seen)

	_, err = ic.Unary(context.Background(), nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", tok))
	_, err = ic.Unary(ctx, nil, info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "scheme is required")

	_, err = ic.Unary(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/custody.v1.CustodyService/Public"}, handler)
	assert.NoError(t, err)
}

func TestUnaryInterceptor_RequestID(t *testing.T) {
	ic := NewInterceptors([]byte("secret"), nil, "/custody.v1.CustodyService/Public")
	info := &grpc.UnaryServerInfo{FullMethod: "/custody.v1.CustodyService/Public"}

	var seen string
	handler := func(ctx context.Context, _ interface{}) (interface{}, error) {
		seen = common.RequestIDFromContext(ctx)
		return "ok", nil
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-request-id", "req-42"))
	_, err := ic.Unary(ctx, nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "req-42", seen)

	_, err = ic.Unary(context.Background(), nil, info, handler)
	require.NoError(t, err)
	_, err = uuid.Parse(seen)
	assert.NoError(t, err, "a fresh id is generated when none is sent")
}
