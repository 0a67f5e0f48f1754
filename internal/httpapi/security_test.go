package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"esnafdefter/backend/internal/cache"
	"esnafdefter/backend/internal/service"
	"esnafdefter/backend/internal/store/memory"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected CORS origin *, got %q", got)
	}
}

func TestPreflightShortCircuits(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/customers", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for preflight, got %d", res.Code)
	}
}

func TestRequestIDGeneratedAndEchoed(t *testing.T) {
	handler := newTestAPI(t).Handler()

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	generated := res.Header().Get("X-Request-Id")
	if _, err := uuid.Parse(generated); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", generated)
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "req-123")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"name":"%s"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for too large body, got %d", res.Code)
	}
}

func TestIdempotencyKeyReplaysFirstResponse(t *testing.T) {
	handler := newTestAPI(t).Handler()
	body := `{"date":"2025-03-01","amount":"50","kind":"REVENUE"}`

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cash/entries", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "till-42")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", first.Code, first.Body.String())
	}
	if first.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("first response must not be marked as replayed")
	}

	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected replayed 201, got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected Idempotent-Replayed header on repeat")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("expected identical body, got %s vs %s", second.Body.String(), first.Body.String())
	}

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/cash/entries", nil))
	if strings.Count(res.Body.String(), `"id"`) != 1 {
		t.Fatalf("expected a single stored entry, got %s", res.Body.String())
	}
}

func TestFailedCreateIsNotReplayed(t *testing.T) {
	handler := newTestAPI(t).Handler()

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "retry-me")
		res := httptest.NewRecorder()
		handler.ServeHTTP(res, req)
		return res
	}

	if res := send(`{"name":"   "}`); res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", res.Code)
	}
	res := send(`{"name":"Ali"}`)
	if res.Code != http.StatusCreated || res.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("expected a fresh 201 after a failed attempt, got %d", res.Code)
	}
}

func postWithKey(handler http.Handler, path string, key string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestIdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	handler := newTestAPI(t).Handler()

	first := postWithKey(handler, "/api/v1/cash/entries", "till-7", `{"date":"2025-03-01","amount":"50","kind":"REVENUE"}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body: %s)", first.Code, first.Body.String())
	}

	second := postWithKey(handler, "/api/v1/cash/entries", "till-7", `{"date":"2025-03-01","amount":"75","kind":"REVENUE"}`)
	if second.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a reused key with another body, got %d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("a mismatched body must not be answered with the stored response")
	}

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/cash/summary", nil))
	if !strings.Contains(res.Body.String(), `"revenue":"50"`) {
		t.Fatalf("expected only the first entry to be stored, got %s", res.Body.String())
	}
}

func TestIdempotencyKeyInFlightIsRejected(t *testing.T) {
	replays := cache.NewMemoryReplayCache()
	svc := service.New(memory.New(), nil, zap.NewNop())
	handler := New(svc, replays, nil, zap.NewNop(), Options{}).Handler()

	held, err := replays.Reserve(context.Background(), "/api/v1/cash/entries:till-9", time.Minute)
	if err != nil || !held {
		t.Fatalf("reserve: ok=%v err=%v", held, err)
	}

	body := `{"date":"2025-03-01","amount":"50","kind":"REVENUE"}`
	if res := postWithKey(handler, "/api/v1/cash/entries", "till-9", body); res.Code != http.StatusConflict {
		t.Fatalf("expected 409 while the key is held, got %d", res.Code)
	}

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/api/v1/cash/entries", nil))
	if strings.Contains(res.Body.String(), `"id"`) {
		t.Fatalf("a rejected duplicate must not be written, got %s", res.Body.String())
	}

	if err := replays.Release(context.Background(), "/api/v1/cash/entries:till-9"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if res := postWithKey(handler, "/api/v1/cash/entries", "till-9", body); res.Code != http.StatusCreated {
		t.Fatalf("expected 201 once the key is free, got %d", res.Code)
	}
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	api := newTestAPI(t)
	res := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(res)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	api.fail(c, errors.New("pq: relation \"customers\" does not exist"))

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if strings.Contains(res.Body.String(), "relation") {
		t.Fatalf("internal detail leaked: %s", res.Body.String())
	}
}

func TestMetricsEndpointExposesRequestHistogram(t *testing.T) {
	handler := newTestAPI(t).Handler()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	res := httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if !strings.Contains(res.Body.String(), `esnafdefter_http_request_duration_seconds_count{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("expected healthz observation in metrics output:\n%s", res.Body.String())
	}
}
