package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/eugenenazirov/box-packer/internal/export"
	"github.com/eugenenazirov/box-packer/internal/packing"
)

// errPresetNotFound is reported as a validation failure.
var errPresetNotFound = errors.New("unknown container preset")

type packRequest struct {
	Container   packing.ContainerSpec `json:"container"`
	Preset      string                `json:"preset,omitempty"`
	Items       []packing.ItemSpec    `json:"items,omitempty"`
	SessionID   string                `json:"sessionId,omitempty"`
	Strategy    string                `json:"strategy,omitempty"`
	MaxAttempts int                   `json:"maxAttempts,omitempty"`
	Options     packing.Options       `json:"options"`
}

type packResponse struct {
	packing.Result
	Unstable  []string          `json:"unstableItems"`
	Analytics packing.Analytics `json:"analytics"`
}

// buildRequest resolves presets, session items and defaults into a packing
// request.
func (h *Handler) buildRequest(in packRequest) (packing.Request, error) {
	container := in.Container
	if in.Preset != "" && container.Name == "" {
		preset, ok := packing.PresetByName(in.Preset)
		if !ok {
			return packing.Request{}, &packing.ValidationError{Field: "preset", Err: errPresetNotFound}
		}
		container = preset
	}
	if container.MaxWeight == 0 {
		container.MaxWeight = h.limits.ContainerMaxWeight
	}

	items := in.Items
	if len(items) == 0 && in.SessionID != "" {
		sess, err := h.storage.GetSession(in.SessionID)
		if err != nil {
			return packing.Request{}, err
		}
		items = sess.Items
	}
	if h.limits.MaxItems > 0 && len(items) > h.limits.MaxItems {
		return packing.Request{}, &packing.ValidationError{
			Field: "items",
			Err:   fmt.Errorf("%w: %d submitted, at most %d allowed", packing.ErrTooManyItems, len(items), h.limits.MaxItems),
		}
	}

	attempts := in.MaxAttempts
	if attempts == 0 {
		attempts = h.limits.DefaultMaxAttempts
	}
	if attempts < 1 || attempts > h.limits.MaxAttemptsLimit {
		return packing.Request{}, &packing.ValidationError{
			Field: "maxAttempts",
			Err:   fmt.Errorf("%w and at most %d", packing.ErrInvalidMaxAttempts, h.limits.MaxAttemptsLimit),
		}
	}

	strategy := packing.Strategy(in.Strategy)
	if strategy == "" {
		strategy = h.limits.DefaultStrategy
	}

	return packing.Request{
		Container:   container,
		Items:       items,
		Strategy:    strategy,
		MaxAttempts: attempts,
		Options:     in.Options,
	}, nil
}

// pack decodes the body and runs the packer. It writes the error response
// itself and reports whether the caller should continue.
func (h *Handler) pack(w http.ResponseWriter, r *http.Request) (packing.Result, int, bool) {
	// Option flags left out of the body keep their defaults.
	in := packRequest{Options: packing.DefaultOptions()}
	if !decodeJSON(w, r, &in) {
		return packing.Result{}, 0, false
	}

	req, err := h.buildRequest(in)
	if err != nil {
		h.writeDomainError(w, r, err)
		return packing.Result{}, 0, false
	}

	result, err := h.packer.Pack(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, err)
		return packing.Result{}, 0, false
	}

	if !result.Feasible() {
		writeError(w, http.StatusUnprocessableEntity, "Cannot pack",
			"no item fits in the container", itemCountSuggestion(len(req.Items)))
		return packing.Result{}, 0, false
	}
	return result, len(req.Items), true
}

func (h *Handler) handlePack(w http.ResponseWriter, r *http.Request) {
	result, submitted, ok := h.pack(w, r)
	if !ok {
		return
	}

	unstable := result.UnstableItems()
	if unstable == nil {
		unstable = []string{}
	}
	writeJSON(w, http.StatusOK, packResponse{
		Result:    result,
		Unstable:  unstable,
		Analytics: packing.Analyze(result, submitted),
	})
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", err.Error(), "Use format=csv, xlsx, pdf or dxf")
		return
	}

	result, _, ok := h.pack(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, result); err != nil {
		h.logger.Error("export failed", zap.String("format", string(format)), zap.Error(err))
		writeInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
