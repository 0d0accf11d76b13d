package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/box-packer/internal/application"
	"github.com/eugenenazirov/box-packer/internal/config"
	"github.com/eugenenazirov/box-packer/internal/packing"
	"github.com/eugenenazirov/box-packer/internal/storage"
)

func newRouter(t *testing.T) http.Handler {
	t.Helper()

	cfg := config.Config{
		Port:               ":0",
		ReadHeaderTimeout:  time.Second,
		CacheCapacity:      8,
		DefaultStrategy:    packing.StrategyBalanced,
		DefaultMaxAttempts: 5,
		MaxAttemptsLimit:   10,
		ContainerMaxWeight: packing.DefaultMaxWeight,
		MaxItemsPerSession: 50,
		MaxSessions:        10,
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}
	return app.Server().Handler
}

func performRequest(t *testing.T, handler http.Handler, method, target string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return data
}

var jsonHeaders = map[string]string{"Content-Type": "application/json"}

type packResponse struct {
	packing.Result
	UnstableItems []string          `json:"unstableItems"`
	Analytics     packing.Analytics `json:"analytics"`
}

func TestIntegrationFlow(t *testing.T) {
	handler := newRouter(t)

	rec := performRequest(t, handler, http.MethodGet, "/api/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", rec.Code)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/sessions", nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from session create, got %d", rec.Code)
	}
	var sess storage.Session
	if err := json.NewDecoder(rec.Body).Decode(&sess); err != nil {
		t.Fatalf("failed to decode session: %v", err)
	}
	base := "/api/sessions/" + sess.ID

	csvData := "Item,Width,Height,Depth,Weight,Stackable\nbooks,20,20,10,4,yes\nbinder,20,20,5,1,no\n"
	rec = performRequest(t, handler, http.MethodPost, base+"/items/import?format=csv", []byte(csvData), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from import, got %d: %s", rec.Code, rec.Body.String())
	}

	mug := packing.ItemSpec{Name: "mug", Width: 8, Height: 8, Depth: 10, Weight: 0.3, Fragile: true}
	rec = performRequest(t, handler, http.MethodPost, base+"/items", mustJSON(t, mug), jsonHeaders)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 from add item, got %d: %s", rec.Code, rec.Body.String())
	}

	packBody := mustJSON(t, map[string]any{"preset": "Small", "sessionId": sess.ID})
	rec = performRequest(t, handler, http.MethodPost, "/api/pack", packBody, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from pack, got %d: %s", rec.Code, rec.Body.String())
	}

	var first packResponse
	if err := json.NewDecoder(rec.Body).Decode(&first); err != nil {
		t.Fatalf("failed to decode pack response: %v", err)
	}
	if len(first.Items) != 3 {
		t.Fatalf("expected all 3 items packed, got %d (unfitted %v)", len(first.Items), first.Unfitted)
	}
	if first.Efficiency <= 0 || first.Efficiency > 100 {
		t.Fatalf("efficiency out of bounds: %v", first.Efficiency)
	}
	if first.Analytics.Submitted != 3 {
		t.Fatalf("expected 3 submitted items, got %d", first.Analytics.Submitted)
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/pack", packBody, jsonHeaders)
	var second packResponse
	if err := json.NewDecoder(rec.Body).Decode(&second); err != nil {
		t.Fatalf("failed to decode pack response: %v", err)
	}
	if second.Efficiency != first.Efficiency || second.Ordering != first.Ordering {
		t.Fatalf("expected identical result for identical request")
	}

	rec = performRequest(t, handler, http.MethodPost, "/api/pack/export?format=pdf", packBody, jsonHeaders)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from export, got %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected PDF document")
	}

	rec = performRequest(t, handler, http.MethodGet, "/metrics", nil, nil)
	if !strings.Contains(rec.Body.String(), `cache_operations_total{operation="get",result="hit"}`) {
		t.Fatalf("expected a recorded cache hit in metrics")
	}
}

func TestIntegrationInfeasible(t *testing.T) {
	handler := newRouter(t)

	body := mustJSON(t, map[string]any{
		"container": packing.ContainerSpec{Name: "envelope", Width: 10, Height: 10, Depth: 1},
		"items":     []packing.ItemSpec{{Name: "brick", Width: 20, Height: 10, Depth: 5, Weight: 2}},
	})
	rec := performRequest(t, handler, http.MethodPost, "/api/pack", body, jsonHeaders)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
}
