package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/config"
	"github.com/nexconsult/dian-api/internal/services"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineDriver fails every session, so searches end as failure outcomes without a browser
type offlineDriver struct{}

func (offlineDriver) NewSession(context.Context, browser.Profile) (browser.Session, error) {
	return nil, errors.New("browser unavailable")
}
func (offlineDriver) Name() string { return "offline" }
func (offlineDriver) Close() error { return nil }

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := config.Default()
	cfg.Redis.Host = ""
	cfg.NATS.URL = ""
	if mutate != nil {
		mutate(cfg)
	}

	container, err := services.NewContainerWithDriver(cfg, offlineDriver{}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Close() })

	return NewServer(cfg, log, container)
}

func request(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestUnknownRouteGetsUsageHint(t *testing.T) {
	s := newTestServer(t, nil)

	w := request(s, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	out := decode(t, w)
	assert.Equal(t, false, out["ok"])
	assert.Equal(t, UsageHint, out["error"])
}

func TestWrongMethodIs405(t *testing.T) {
	s := newTestServer(t, nil)

	w := request(s, http.MethodGet, "/search", "")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestSearchRoutesReturnOutcome(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/search", "/api/v1/search"} {
		w := request(s, http.MethodPost, path, `{"cufe":"abc"}`)

		require.Equal(t, http.StatusOK, w.Code, path)
		out := decode(t, w)
		assert.Equal(t, false, out["ok"])
		assert.Contains(t, out["error"], "navigation failed")
		assert.Equal(t, []any{}, out["events"])
		assert.Nil(t, out["html"])
	}
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))

	w = request(s, http.MethodGet, "/health/live", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := request(s, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode(t, w)
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health["services"], "browser")

	w = request(s, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["ready"])
}

func TestReadinessFailsAfterBrowserClose(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.services.BrowserService.Close())

	w := request(s, http.MethodGet, "/health/ready", "")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, decode(t, w)["ready"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	request(s, http.MethodPost, "/search", `{"cufe":"abc"}`)

	w := request(s, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `dian_search_total{result="failed"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Security.RateLimit.RequestsPerMinute = 1
		cfg.Security.RateLimit.BurstSize = 1
	})

	first := request(s, http.MethodGet, "/api/v1/browser/stats", "")
	second := request(s, http.MethodGet, "/api/v1/browser/stats", "")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))

	// probes are outside the limited group
	assert.Equal(t, http.StatusOK, request(s, http.MethodGet, "/health/live", "").Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/search", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCacheRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	w := request(s, http.MethodGet, "/api/v1/cache/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode(t, w)["stats"].(map[string]any)
	assert.Equal(t, false, stats["enabled"])

	w = request(s, http.MethodDelete, "/api/v1/cache/abc", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc", decode(t, w)["cufe"])
}

func TestSwaggerHiddenInProduction(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.Environment = "production"
	})

	w := request(s, http.MethodGet, "/swagger/index.html", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
