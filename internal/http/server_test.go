package http

import (
	"bytes"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sugawarayuuta/sonnet"

	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/service"
	"github.com/cartridge/replay/internal/storage"
	replayv1 "github.com/cartridge/replay/pkg/api/replay/v1"
	"github.com/cartridge/replay/pkg/per"
)

func newTestServer(t *testing.T, opts Options) http.Handler {
	t.Helper()
	backend, err := storage.NewPrioritizedBackend(per.Config{Capacity: 16, Alpha: 0.6, Beta: 0.4}, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("create backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	logger := zerolog.New(io.Discard)
	collector := metrics.NewCollector(logger)
	return NewServer(service.NewReplayService(backend, collector), collector, logger, opts).Routes()
}

func post(t *testing.T, h http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := sonnet.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestHealthz(t *testing.T) {
	h := newTestServer(t, Options{RateLimit: 100, RateBurst: 100})

	res := httptest.NewRecorder()
	h.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get("X-Correlation-ID") == "" {
		t.Fatalf("expected correlation ID header")
	}
}

func TestStoreSampleReport(t *testing.T) {
	h := newTestServer(t, Options{RateLimit: 100, RateBurst: 100})

	res := post(t, h, "/api/v1/transitions", replayv1.StoreBatchRequest{
		Transitions: []*replayv1.Transition{
			{Id: "t-1", EnvId: "tictactoe", State: []byte{1}},
			{Id: "t-2", EnvId: "tictactoe", State: []byte{2}},
			{Id: "t-3", EnvId: "tictactoe", State: []byte{3}},
		},
	})
	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}

	res = post(t, h, "/api/v1/sample", replayv1.SampleRequest{BatchSize: 2})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var sample replayv1.SampleResponse
	if err := sonnet.Unmarshal(res.Body.Bytes(), &sample); err != nil {
		t.Fatalf("decode sample: %v", err)
	}
	if len(sample.Transitions) != 2 || len(sample.Weights) != 2 {
		t.Fatalf("expected 2 transitions and weights, got %d/%d", len(sample.Transitions), len(sample.Weights))
	}

	res = post(t, h, "/api/v1/priorities", replayv1.ReportErrorsRequest{
		TransitionIds: []string{sample.Transitions[0].Id, sample.Transitions[1].Id},
		Errors:        []float32{2, 0.5},
	})
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var report replayv1.ReportErrorsResponse
	if err := sonnet.Unmarshal(res.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.UpdatedCount != 2 {
		t.Fatalf("expected 2 updated, got %d", report.UpdatedCount)
	}

	statsRes := httptest.NewRecorder()
	h.ServeHTTP(statsRes, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	var stats replayv1.StatsResponse
	if err := sonnet.Unmarshal(statsRes.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalTransitions != 3 || stats.Capacity != 16 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t, Options{RateLimit: 100, RateBurst: 100})

	if res := post(t, h, "/api/v1/sample", replayv1.SampleRequest{BatchSize: 4}); res.Code != http.StatusConflict {
		t.Fatalf("expected 409 on empty buffer, got %d", res.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sample", bytes.NewReader([]byte("{")))
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on bad JSON, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/transitions", bytes.NewReader([]byte(`{"transitions":[null]}`)))
	res = httptest.NewRecorder()
	h.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on nil transition, got %d", res.Code)
	}

	res = post(t, h, "/api/v1/priorities", replayv1.ReportErrorsRequest{TransitionIds: []string{"a", "b"}, Errors: []float32{1}})
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on length mismatch, got %d", res.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 1})

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

	if first.Code != http.StatusOK || second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 200 then 429, got %d then %d", first.Code, second.Code)
	}

	// Health checks are not limited.
	health := httptest.NewRecorder()
	h.ServeHTTP(health, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if health.Code != http.StatusOK {
		t.Fatalf("expected 200 on healthz, got %d", health.Code)
	}
}
