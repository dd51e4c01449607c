package metrics

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.ItemsFetched(6)
	m.DuplicatesFiltered(2)
	m.Published()
	m.Published()
	m.PublishFailed()
	m.SummaryFallback()
	m.TranslationFallback()
	m.TranslationFallback()

	assert.Equal(t, 6.0, testutil.ToFloat64(m.fetched))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.duplicates))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.published))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("summary")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("translation")))
	assert.Equal(t, 2.0, m.GetStats()["messages_sent"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ItemsFetched(1)
		m.Published()
		m.SummaryFallback()
		m.DailyPosted()
		m.RecordRun(time.Second, nil)
	})
}

func TestHealthHandler(t *testing.T) {
	m := New()
	h := m.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	m.RecordRun(time.Second, errors.New("load state: permission denied"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "load state: permission denied", body["last_error"])

	m.RecordRun(time.Second, nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPrometheusEndpoint(t *testing.T) {
	m := New()
	m.Published()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "cryptofeed_messages_published_total 1"))
}

func TestStatsEndpoint(t *testing.T) {
	m := New()
	m.RecordRun(1500*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.EqualValues(t, 1, body["runs"])
	assert.EqualValues(t, 1500, body["last_run_ms"])
}
