package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSearch(t *testing.T) {
	m := New()

	m.ObserveSearch(ResultSuccess, 3*time.Second)
	m.ObserveSearch(ResultSuccess, 4*time.Second)
	m.ObserveSearch(ResultRejected, time.Second)
	m.ObserveSearch(ResultCached, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(ResultCached)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.searchDuration))
}

func TestChallengeAndSessions(t *testing.T) {
	m := New()

	m.ObserveChallengeToken(true)
	m.ObserveChallengeToken(false)
	m.ObserveChallengeToken(false)
	m.SessionStarted()
	m.SessionStarted()
	m.SessionFinished()
	m.CacheHit()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.challenge.WithLabelValues("true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.challenge.WithLabelValues("false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.activeSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveSearch(ResultFailed, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `dian_search_total{result="failed"} 1`)
	assert.Contains(t, string(body), "dian_active_sessions 0")
}
