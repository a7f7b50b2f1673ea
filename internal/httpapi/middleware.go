package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"svcreg/internal/domain"
)

const RequestIDHeader = "x-request-id"

type requestIDKey struct{}

// RequestIDFromContext returns the request id attached by the middleware.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) observeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		route := routeLabel(r.URL.Path)
		duration := time.Since(start)
		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, recorder.status, duration)
		}

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Duration("duration", duration),
		}
		if id, ok := RequestIDFromContext(r.Context()); ok {
			fields = append(fields, zap.String("requestId", id))
		}
		s.logger.Debug("request handled", fields...)
	})
}

// routeLabel collapses path parameters so metric label cardinality stays bounded.
func routeLabel(path string) string {
	switch {
	case path == "/register", path == "/services", path == "/health":
		return path
	case strings.HasPrefix(path, "/services/"):
		return "/services/{name}"
	case strings.HasPrefix(path, "/heartbeat/"):
		return "/heartbeat/{name}"
	default:
		return "other"
	}
}

// rateLimitMiddleware applies a token bucket across all API requests. Requests
// beyond the budget get 429 with the standard error body.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.writeError(w, domain.CodeUnavailable, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
