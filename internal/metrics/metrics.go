// Package metrics counts what the bot does and serves it over HTTP.
package metrics

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "cryptofeed"

// Metrics holds prometheus collectors on a private registry plus the run
// status reported by /health. A nil *Metrics ignores every call.
type Metrics struct {
	registry *prometheus.Registry

	fetched         prometheus.Counter
	duplicates      prometheus.Counter
	published       prometheus.Counter
	publishFailed   prometheus.Counter
	transformFailed prometheus.Counter
	fallbacks       *prometheus.CounterVec
	dailyPosts      prometheus.Counter
	runDuration     prometheus.Histogram

	mu            sync.RWMutex
	runs          int64
	lastRunTime   time.Time
	lastDuration  time.Duration
	lastErrorTime time.Time
	lastError     string
	healthy       bool
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		fetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_fetched_total",
			Help:      "Feed items fetched",
		}),
		duplicates: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicates_filtered_total",
			Help:      "Feed items dropped because they were already published",
		}),
		published: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_published_total",
			Help:      "Messages accepted by the channel",
		}),
		publishFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Publish attempts that failed",
		}),
		transformFailed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transform_failures_total",
			Help:      "Items skipped because they could not be transformed",
		}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallbacks_total",
			Help:      "Capability calls that fell back to the original text",
		}, []string{"step"}),
		dailyPosts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "daily_posts_total",
			Help:      "Daily market snapshots published",
		}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of one coordinator run",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		healthy: true,
	}
}

func (m *Metrics) ItemsFetched(n int) {
	if m != nil {
		m.fetched.Add(float64(n))
	}
}

func (m *Metrics) DuplicatesFiltered(n int) {
	if m != nil {
		m.duplicates.Add(float64(n))
	}
}

func (m *Metrics) Published() {
	if m != nil {
		m.published.Inc()
	}
}

func (m *Metrics) PublishFailed() {
	if m != nil {
		m.publishFailed.Inc()
	}
}

func (m *Metrics) TransformFailed() {
	if m != nil {
		m.transformFailed.Inc()
	}
}

func (m *Metrics) SummaryFallback() {
	if m != nil {
		m.fallbacks.WithLabelValues("summary").Inc()
	}
}

func (m *Metrics) TranslationFallback() {
	if m != nil {
		m.fallbacks.WithLabelValues("translation").Inc()
	}
}

func (m *Metrics) DailyPosted() {
	if m != nil {
		m.dailyPosts.Inc()
	}
}

// RecordRun stores the outcome of a run. A nil err marks the bot healthy.
func (m *Metrics) RecordRun(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.runDuration.Observe(d.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	m.lastRunTime = time.Now()
	m.lastDuration = d
	if err != nil {
		m.lastError = err.Error()
		m.lastErrorTime = m.lastRunTime
		m.healthy = false
		return
	}
	m.healthy = true
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"runs":             m.runs,
		"last_run_ms":      m.lastDuration.Milliseconds(),
		"last_run_time":    formatTime(m.lastRunTime),
		"last_error_time":  formatTime(m.lastErrorTime),
		"last_error":       m.lastError,
		"is_healthy":       m.healthy,
		"messages_sent":    counterValue(m.published),
		"publish_failures": counterValue(m.publishFailed),
	}
}

// Handler serves /health (JSON status), /stats (JSON counters) and
// /metrics (prometheus text format).
func (m *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", m.healthHandler)
	mux.HandleFunc("/stats", m.statsHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	return mux
}

func (m *Metrics) healthHandler(w http.ResponseWriter, _ *http.Request) {
	stats := m.GetStats()

	status := "ok"
	code := http.StatusOK
	if !stats["is_healthy"].(bool) {
		status = "error"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	})
}

func (m *Metrics) statsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(m.GetStats())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func counterValue(c prometheus.Counter) float64 {
	var out dto.Metric
	if err := c.Write(&out); err != nil || out.Counter == nil {
		return 0
	}
	return out.Counter.GetValue()
}
