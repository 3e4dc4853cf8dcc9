package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ThirdAILabs/ndb-client/internal/logger"
	"github.com/ThirdAILabs/ndb-client/internal/metrics"
	"github.com/ThirdAILabs/ndb-client/internal/ndbtest"
)

const shutdownTimeout = 10 * time.Second

// fakeServerCmd serves the in-memory NDB server until ctx is cancelled.
func fakeServerCmd(ctx context.Context, a *app, args []string) error {
	fs := a.flagSet("fake-server")
	addr := fs.String("addr", ":8000", "listen address")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	serverMetrics, err := metrics.NewServer(a.registry, "fake_server")
	if err != nil {
		return err
	}
	fake := ndbtest.New(a.logger)
	srv := &http.Server{
		Handler: fake.Router(
			chiMiddleware.RequestID,
			requestLog(a.logger),
			serverMetrics.Middleware(),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	a.logger.Info("Starting fake NDB server", zap.String("addr", ln.Addr().String()))

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	select {
	case err := <-served:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}
	a.logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-served; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	a.logger.Info("Fake server stopped")
	return nil
}

// requestLog emits one log line per request and propagates X-Request-ID.
func requestLog(log *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := log.With(zap.String("request_id", requestID))
			ctx := logger.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.Int64("content_length", r.ContentLength),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
