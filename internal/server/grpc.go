package server

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb "github.com/joseph-ayodele/custody-tracker/internal/api/custodyv1"
	"github.com/joseph-ayodele/custody-tracker/internal/auth"
)

// NewGRPCServer wires the custody service behind the auth interceptors and registers
// the standard health service.
func NewGRPCServer(svc pb.CustodyServiceServer, ic *auth.Interceptors) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(ic.Unary),
		grpc.ChainStreamInterceptor(ic.Stream),
	)
	pb.RegisterCustodyServiceServer(srv, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)
	return srv, hs
}

// PublicMethods need no bearer token.
func PublicMethods() []string {
	return []string{
		pb.CustodyService_CreateUser_FullMethodName,
		healthpb.Health_Check_FullMethodName,
		healthpb.Health_Watch_FullMethodName,
	}
}

// Serve runs srv on lis until ctx is done, then stops it gracefully.
func Serve(ctx context.Context, srv *grpc.Server, hs *health.Server, lis net.Listener, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		<-ctx.Done()
		logger.Info("grpc.stopping")
		hs.Shutdown()
		srv.GracefulStop()
	}()
	logger.Info("grpc.serving", "addr", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && err != grpc.ErrServerStopped {
		return err
	}
	return nil
}
