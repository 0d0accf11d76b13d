package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/packing"
	"github.com/eugenenazirov/box-packer/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

const (
	maxJSONBodyBytes   = 1 << 20
	maxUploadBodyBytes = 10 << 20
)

// Limits bounds and defaults packing requests received over HTTP.
type Limits struct {
	DefaultStrategy    packing.Strategy
	DefaultMaxAttempts int
	MaxAttemptsLimit   int
	ContainerMaxWeight float64
	// MaxItems caps the items of a single pack request; 0 means unlimited.
	MaxItems int
}

// DefaultLimits mirrors the configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		DefaultStrategy:    packing.StrategyBalanced,
		DefaultMaxAttempts: 5,
		MaxAttemptsLimit:   10,
		ContainerMaxWeight: packing.DefaultMaxWeight,
		MaxItems:           200,
	}
}

// Handler wires the packer and session storage into HTTP handlers.
type Handler struct {
	packer  packing.Packer
	storage storage.Storage
	logger  *zap.Logger
	limits  Limits

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithLimits overrides the request defaults and bounds.
func WithLimits(limits Limits) HandlerOption {
	return func(h *Handler) {
		h.limits = limits
	}
}

// WithHandlerLogger sets the logger used for unexpected failures.
func WithHandlerLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler constructs a Handler with the provided dependencies.
func NewHandler(packer packing.Packer, store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		packer:  packer,
		storage: store,
		logger:  zap.NewNop(),
		limits:  DefaultLimits(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	})
}

func (h *Handler) handleStrategies(w http.ResponseWriter, _ *http.Request) {
	resp := strategiesResponse{Default: h.limits.DefaultStrategy}
	for _, s := range packing.Strategies() {
		resp.Strategies = append(resp.Strategies, strategyInfo{
			Name:      s,
			Orderings: packing.OrderingNames(s),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handlePresets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, presetsResponse{Presets: packing.Presets()})
}

// decodeJSON reads a bounded JSON body and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Invalid request", "request body too large")
		case errors.Is(err, io.EOF):
			writeError(w, http.StatusBadRequest, "Invalid request", "request body is empty")
		default:
			writeError(w, http.StatusBadRequest, "Invalid request", "unable to parse JSON payload")
		}
		return false
	}
	return true
}

// writeDomainError maps domain and storage errors to HTTP statuses.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case packing.IsValidation(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, storage.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found", err.Error())
	case errors.Is(err, storage.ErrItemNotFound):
		writeError(w, http.StatusNotFound, "Item not found", err.Error())
	case errors.Is(err, storage.ErrSessionFull):
		writeError(w, http.StatusConflict, "Session full", err.Error(), "Remove items or start a new session")
	case errors.Is(err, storage.ErrTooManySessions):
		writeError(w, http.StatusServiceUnavailable, "Too many sessions", err.Error(), "Retry after deleting unused sessions")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled", err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeInternalError(w, err)
	}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type strategyInfo struct {
	Name      packing.Strategy `json:"name"`
	Orderings []string         `json:"orderings"`
}

type strategiesResponse struct {
	Strategies []strategyInfo   `json:"strategies"`
	Default    packing.Strategy `json:"default"`
}

type presetsResponse struct {
	Presets []packing.ContainerSpec `json:"presets"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}

func itemCountSuggestion(n int) string {
	return fmt.Sprintf("None of the %d items fit. Try a larger box, allow rotation, or split the items across boxes", n)
}
