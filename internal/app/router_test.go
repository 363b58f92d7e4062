package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vpants/bookkeeper/internal/observability"
	"github.com/vpants/bookkeeper/internal/reporting"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store/memstore"
)

func testConfig() *Config {
	return &Config{
		AppEnv:             "test",
		AppTimezone:        "UTC",
		WithdrawalFee:      "3000",
		LowStockThreshold:  10,
		RateLimitPerMinute: 1000,
		AppRequestTimeout:  5 * time.Second,
	}
}

type testServer struct {
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := testConfig()
	svcs, err := NewServices(cfg, memstore.New(), reporting.NewCache(client, time.Minute), nil)
	require.NoError(t, err)
	handler := NewRouter(svcs.Handlers(RouterParams{
		Config:  cfg,
		Metrics: observability.NewMetrics(),
		Keys:    shared.NewRedisKeyStore(client, time.Hour),
	}))
	return &testServer{handler: handler}
}

func (s *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func TestRouterBookkeepingFlow(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodPost, "/setup/initial-balance", `{"amount":"1000000"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/setup/products", "").Code)

	rr = srv.do(t, http.MethodPost, "/stock/initialize",
		`{"items":[{"item_type":"finished","item_name":"Celana Dalam VPants","size":"M","quantity":10}]}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	sale := `{"product_name":"Celana Dalam VPants","size":"M","quantity":2}`
	rr = srv.do(t, http.MethodPost, "/sales", sale, IdempotencyHeader, "sale-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = srv.do(t, http.MethodPost, "/sales", sale, IdempotencyHeader, "sale-1")
	require.Equal(t, http.StatusConflict, rr.Code, "replayed key is refused")

	rr = srv.do(t, http.MethodGet, "/finance/balance", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"1150000"`)

	rr = srv.do(t, http.MethodGet, "/reports/stock", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"quantity":8`)
	assert.Contains(t, rr.Body.String(), `"stock_level":"LOW"`)

	rr = srv.do(t, http.MethodGet, "/setup/status", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"finance_initialized":true,"products_initialized":true,"stock_initialized":true}`, rr.Body.String())
}

func TestIdempotencyKeyReleasedOnFailure(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusCreated, srv.do(t, http.MethodPost, "/setup/products", "").Code)

	sale := `{"product_name":"Celana Dalam VPants","size":"M","quantity":2}`
	rr := srv.do(t, http.MethodPost, "/sales", sale, IdempotencyHeader, "retry-me")
	require.Equal(t, http.StatusBadRequest, rr.Code, "no stock yet")

	rr = srv.do(t, http.MethodPost, "/stock/initialize",
		`{"items":[{"item_type":"finished","item_name":"Celana Dalam VPants","size":"M","quantity":5}]}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = srv.do(t, http.MethodPost, "/sales", sale, IdempotencyHeader, "retry-me")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))

	rr = srv.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `vpants_http_requests_total{code="200",method="GET",route="/healthz"} 1`)
}
