package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/metrics"
)

// RouterOption configures the behaviour of NewRouter.
type RouterOption func(*routerConfig)

// WithLogging controls whether access logs are emitted.
func WithLogging(enabled bool) RouterOption {
	return func(cfg *routerConfig) {
		cfg.enableLogging = enabled
	}
}

// WithRateLimiter overrides the default request rate limiter (primarily for tests).
func WithRateLimiter(limiter rateLimiter) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = limiter
	}
}

// WithRateLimit configures a token bucket limiter. A non-positive rate
// disables rate limiting.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(cfg *routerConfig) {
		cfg.rateLimiter = newRateLimiter(rps, burst)
	}
}

type routerConfig struct {
	enableLogging bool
	logger        *zap.Logger
	rateLimiter   rateLimiter
}

// NewRouter creates an HTTP router with standard middleware.
func NewRouter(handler *Handler, logger *zap.Logger, opts ...RouterOption) http.Handler {
	cfg := routerConfig{
		enableLogging: true,
		logger:        logger,
		rateLimiter:   newTokenBucketLimiter(25, 50),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /api/health", http.HandlerFunc(handler.handleHealth))
	mux.Handle("GET /api/strategies", http.HandlerFunc(handler.handleStrategies))
	mux.Handle("GET /api/presets", http.HandlerFunc(handler.handlePresets))

	mux.Handle("POST /api/sessions", http.HandlerFunc(handler.handleCreateSession))
	mux.Handle("GET /api/sessions/{id}", http.HandlerFunc(handler.handleGetSession))
	mux.Handle("DELETE /api/sessions/{id}", http.HandlerFunc(handler.handleDeleteSession))
	mux.Handle("GET /api/sessions/{id}/items", http.HandlerFunc(handler.handleListItems))
	mux.Handle("POST /api/sessions/{id}/items", http.HandlerFunc(handler.handleAddItem))
	mux.Handle("DELETE /api/sessions/{id}/items", http.HandlerFunc(handler.handleClearItems))
	mux.Handle("DELETE /api/sessions/{id}/items/{name}", http.HandlerFunc(handler.handleRemoveItem))
	mux.Handle("POST /api/sessions/{id}/items/import", http.HandlerFunc(handler.handleImportItems))

	mux.Handle("POST /api/pack", http.HandlerFunc(handler.handlePack))
	mux.Handle("POST /api/pack/export", http.HandlerFunc(handler.handleExport))

	mux.Handle("GET /metrics", metrics.Handler())

	// The metrics middleware reads the matched pattern, so it wraps the mux directly.
	var root http.Handler = metrics.Middleware(mux)
	root = corsMiddleware(root)
	root = recoveryMiddleware(cfg.logger, root)
	if cfg.enableLogging {
		root = loggingMiddleware(cfg.logger, root)
	}
	root = rateLimitMiddleware(cfg.rateLimiter, root)
	root = requestIDMiddleware(root)

	return root
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Requested-With,X-Request-ID")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID,Content-Disposition")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		logger.Info("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFromContext(r.Context())),
		)
	})
}

func recoveryMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					zap.Any("error", rec),
					zap.String("request_id", requestIDFromContext(r.Context())),
				)
				writeError(w, http.StatusInternalServerError, "Internal error", "unexpected server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := contextWithRequestID(r.Context(), requestID)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func contextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
