package monitoring

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"xyzzy", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLogger_FormatsAndLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Level: "warn", Format: "json", Output: &buf})

	logger.Info("hidden")
	logger.EncodingDropLogger("insulin", "insulin_Down", "lenient")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "Input has no matching feature column", entry["msg"])
	assert.Equal(t, "insulin_Down", entry["column"])
	assert.Contains(t, entry, "timestamp")

	buf.Reset()
	text := NewLoggerWithConfig(LogConfig{Level: "debug", Format: "text", Output: &buf})
	text.SystemLogger("startup", "ok")
	assert.Contains(t, buf.String(), "msg=\"System Event\"")
}

func TestLogger_AnalysisLoggerOmitsInputs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithConfig(LogConfig{Format: "json", Output: &buf})

	logger.AnalysisLogger("sid", "urgent", 0.7, 4, true, 3*time.Millisecond)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "urgent", entry["tier"])
	assert.NotContains(t, entry, "num_medications")
}

func TestMetrics_AnalysisCounters(t *testing.T) {
	m := NewMetrics()

	m.ObserveAnalysis(analysis.TierUrgent, time.Millisecond)
	m.ObserveAnalysis(analysis.TierUrgent, time.Millisecond)
	m.ObserveAnalysis(analysis.TierStandard, time.Millisecond)
	m.ObserveFailure("predict")
	m.ObserveDropped(analysis.DroppedField{Field: "insulin", Column: "insulin_Down"}, analysis.Lenient)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyses.WithLabelValues("urgent")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyses.WithLabelValues("standard")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("predict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("insulin")))

	stats := m.GetStats()
	assert.Equal(t, int64(3), stats["analyses"])
	assert.Equal(t, int64(1), stats["analysis_failures"])
}

func TestMetrics_CacheAndRequests(t *testing.T) {
	m := NewMetrics()

	m.IncrementCacheHit()
	m.IncrementCacheMiss()
	m.IncrementCacheMiss()
	m.RecordRequest("GET", "/health", 200, 10*time.Millisecond)
	m.RecordRequest("POST", "/api/v1/score", 400, 20*time.Millisecond)

	stats := m.GetStats()
	assert.Equal(t, int64(2), stats["total_requests"])
	assert.Equal(t, int64(1), stats["error_count"])
	assert.Equal(t, 50.0, stats["error_rate_percent"])
	assert.InDelta(t, 33.33, stats["cache_hit_rate_percent"], 0.01)
	assert.Equal(t, 20*time.Millisecond, m.GetPercentileResponseTime(100))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("POST", "/api/v1/score", "400")))
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.ObserveAnalysis(analysis.TierWatch, time.Millisecond)
	require.NoError(t, m.RegisterGauge("active_sessions", "Live sessions.", func() float64 { return 3 }))

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `readmission_guard_analyses_total{tier="watch"} 1`)
	assert.Contains(t, body, "readmission_guard_active_sessions 3")
	assert.Contains(t, body, "go_goroutines")
}

func TestAnalysisObserver(t *testing.T) {
	var buf bytes.Buffer
	m := NewMetrics()
	o := NewAnalysisObserver(m, NewLoggerWithConfig(LogConfig{Format: "json", Output: &buf}))

	o.ObserveDropped(analysis.DroppedField{Field: "age", Column: "age__90_100_"}, analysis.Strict)
	o.ObserveFailure("encode")
	o.ObserveAnalysis(analysis.TierWatch, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.dropped.WithLabelValues("age")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("encode")))
	assert.Contains(t, buf.String(), `"mode":"strict"`)
	assert.Contains(t, buf.String(), "Analysis failed")
}

func TestMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	m := NewMetrics()
	logger := NewLoggerWithConfig(LogConfig{Format: "json", Output: &buf})

	router := gin.New()
	router.Use(MonitoringMiddleware(m, logger))
	router.GET("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/sessions/:id", "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "unmatched", "404")))
	assert.Contains(t, buf.String(), "HTTP Request")
}

func TestSecurityMonitoringMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	router := gin.New()
	router.Use(SecurityMonitoringMiddleware(NewLoggerWithConfig(LogConfig{Format: "json", Output: &buf})))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.Empty(t, buf.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "sqlmap/1.7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "suspicious requests are logged, not blocked")
	assert.Contains(t, buf.String(), "suspicious_user_agent")
}
