package server

import (
	"context"
	"net"
	"time"

	authv1 "github.com/Miraines/MoonyAndStarry/session-service/api/auth/v1"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/grpc/middleware"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

const shutdownTimeout = 5 * time.Second

// NewGRPCServer builds the server with the interceptor chain and registers
// the auth service and its metrics.
func NewGRPCServer(cfg *config.Config, handler authv1.AuthServer, logger *zap.Logger) (*grpc.Server, error) {
	opts := []grpc.ServerOption{
		grpc.UnaryInterceptor(middleware.ChainUnaryServer(logger)),
	}
	if cfg.TLSEnabled() {
		creds, err := credentials.NewServerTLSFromFile(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		if err != nil {
			return nil, errors.Wrap(err, "load TLS credentials")
		}
		opts = append(opts, grpc.Creds(creds))
	}

	srv := grpc.NewServer(opts...)
	authv1.RegisterAuthServer(srv, handler)
	grpc_prometheus.Register(srv)
	grpc_prometheus.EnableHandlingTimeHistogram()
	return srv, nil
}

// StartGRPCServer поднимает gRPC-сервер и останавливает его при отмене ctx.
func StartGRPCServer(ctx context.Context, cfg *config.Config, handler authv1.AuthServer, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return errors.Wrap(err, "listen gRPC")
	}
	srv, err := NewGRPCServer(cfg, handler, logger)
	if err != nil {
		_ = lis.Close()
		return err
	}
	return ServeGRPC(ctx, srv, lis, logger)
}

// ServeGRPC blocks until ctx is cancelled or Serve fails.
func ServeGRPC(ctx context.Context, srv *grpc.Server, lis net.Listener, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "serve gRPC")
	case <-ctx.Done():
	}
	logger.Info("ctx cancelled, stopping gRPC server")

	// graceful stop, then force after the timeout
	done := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(done)
	}()

	select {
	case <-time.After(shutdownTimeout):
		srv.Stop()
	case <-done:
	}
	logger.Info("gRPC server stopped")
	return nil
}
