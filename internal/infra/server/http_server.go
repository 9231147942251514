package server

import (
	"context"
	"net"
	"net/http"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func StartHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	lis, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		return errors.Wrap(err, "listen HTTP")
	}
	srv := &http.Server{Handler: handler}
	return ServeHTTP(ctx, srv, lis, cfg, logger)
}

// ServeHTTP serves TLS when cfg carries a certificate pair and shuts down
// gracefully once ctx is cancelled.
func ServeHTTP(ctx context.Context, srv *http.Server, lis net.Listener, cfg *config.Config, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", lis.Addr().String()), zap.Bool("tls", cfg.TLSEnabled()))
		var err error
		if cfg.TLSEnabled() {
			err = srv.ServeTLS(lis, cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.Serve(lis)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "serve HTTP")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown HTTP")
	}
	logger.Info("HTTP server stopped")
	return nil
}
