package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"svcreg/internal/domain"
	"svcreg/internal/registry"
)

// Server exposes the registry wire protocol over HTTP.
type Server struct {
	store   *registry.Store
	logger  *zap.Logger
	metrics domain.Metrics
	limiter *rate.Limiter
	now     func() time.Time
}

// ServerOptions captures dependencies for a Server.
type ServerOptions struct {
	Store   *registry.Store
	Logger  *zap.Logger
	Metrics domain.Metrics
	// RateLimit bounds accepted requests per second; zero disables limiting.
	RateLimit float64
	RateBurst int
	// Clock overrides time.Now for response timestamps.
	Clock func() time.Time
}

func NewServer(opts ServerOptions) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = int(opts.RateLimit)
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return &Server{
		store:   opts.Store,
		logger:  logger,
		metrics: opts.Metrics,
		limiter: limiter,
		now:     now,
	}
}

// Handler returns the fully wired API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("GET /services", s.handleListServices)
	mux.HandleFunc("GET /services/{name}", s.handleGetService)
	mux.HandleFunc("PUT /services/{name}", s.handleUpdateService)
	mux.HandleFunc("DELETE /services/{name}", s.handleDeleteService)
	mux.HandleFunc("POST /heartbeat/{name}", s.handleHeartbeat)
	mux.HandleFunc("GET /health", s.handleHealth)

	var handler http.Handler = mux
	handler = s.rateLimitMiddleware(handler)
	handler = s.observeMiddleware(handler)
	handler = s.requestIDMiddleware(handler)
	return handler
}

// Start runs the API listener until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	if addr == "" {
		addr = domain.DefaultListenAddress
	}

	server := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("registry server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("registry server failed to start: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("registry server shutdown error", zap.Error(err))
			return err
		}
		s.logger.Info("registry server stopped")
		return nil
	}
}
