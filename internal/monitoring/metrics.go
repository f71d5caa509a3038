package monitoring

import (
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ZanzyTHEbar/readmission-guard/internal/analysis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "readmission_guard"

// Metrics holds application metrics. Counters are exported to Prometheus and
// mirrored in a small in-process summary for the health endpoint.
type Metrics struct {
	RequestCount int64
	ErrorCount   int64
	CacheHits    int64
	CacheMisses  int64
	Analyses     int64
	Failures     int64
	StartTime    time.Time

	// Last 1000 response times for percentiles
	ResponseTimes      []time.Duration
	ResponseTimesMutex sync.RWMutex

	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	analyses         *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	failures         *prometheus.CounterVec
	dropped          *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	rateLimited      *prometheus.CounterVec
}

// NewMetrics creates a metrics instance with its own Prometheus registry
func NewMetrics() *Metrics {
	m := &Metrics{
		StartTime:     time.Now(),
		ResponseTimes: make([]time.Duration, 0, 1000),
		registry:      prometheus.NewRegistry(),

		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed risk analyses by tier.",
		}, []string{"tier"}),
		analysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time to validate, encode, score and explain one patient.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Failed analyses by pipeline stage.",
		}, []string{"stage"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "encoding_dropped_fields_total",
			Help:      "Inputs that matched no feature column.",
		}, []string{"field"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_cache_lookups_total",
			Help:      "Score response cache lookups by result.",
		}, []string{"result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the per-IP limiter.",
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.analyses,
		m.analysisDuration,
		m.failures,
		m.dropped,
		m.cacheLookups,
		m.rateLimited,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RegisterGauge adds a gauge whose value is read from fn at scrape time
func (m *Metrics) RegisterGauge(name, help string, fn func() float64) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// RecordRequest records one finished HTTP request
func (m *Metrics) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	atomic.AddInt64(&m.RequestCount, 1)
	if statusCode >= 400 {
		atomic.AddInt64(&m.ErrorCount, 1)
	}

	m.requests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
	m.RecordResponseTime(duration)
}

// RecordResponseTime stores a response time for percentiles
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.ResponseTimesMutex.Lock()
	m.ResponseTimes = append(m.ResponseTimes, duration)
	if len(m.ResponseTimes) > 1000 {
		m.ResponseTimes = m.ResponseTimes[1:]
	}
	m.ResponseTimesMutex.Unlock()
}

// IncrementCacheHit increments cache hit count
func (m *Metrics) IncrementCacheHit() {
	atomic.AddInt64(&m.CacheHits, 1)
	m.cacheLookups.WithLabelValues("hit").Inc()
}

// IncrementCacheMiss increments cache miss count
func (m *Metrics) IncrementCacheMiss() {
	atomic.AddInt64(&m.CacheMisses, 1)
	m.cacheLookups.WithLabelValues("miss").Inc()
}

// IncrementRateLimited counts a request rejected by the limiter
func (m *Metrics) IncrementRateLimited(route string) {
	m.rateLimited.WithLabelValues(route).Inc()
}

// ObserveAnalysis records a completed analysis
func (m *Metrics) ObserveAnalysis(tier analysis.RiskTier, duration time.Duration) {
	atomic.AddInt64(&m.Analyses, 1)
	m.analyses.WithLabelValues(string(tier)).Inc()
	m.analysisDuration.Observe(duration.Seconds())
}

// ObserveFailure records a failed analysis
func (m *Metrics) ObserveFailure(stage string) {
	atomic.AddInt64(&m.Failures, 1)
	m.failures.WithLabelValues(stage).Inc()
}

// ObserveDropped records an input that reached no feature column
func (m *Metrics) ObserveDropped(d analysis.DroppedField, _ analysis.EncodingMode) {
	m.dropped.WithLabelValues(d.Field).Inc()
}

// GetPercentileResponseTime calculates percentile response time
func (m *Metrics) GetPercentileResponseTime(percentile float64) time.Duration {
	m.ResponseTimesMutex.RLock()
	defer m.ResponseTimesMutex.RUnlock()

	if len(m.ResponseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.ResponseTimes))
	copy(times, m.ResponseTimes)

	sort.Slice(times, func(i, j int) bool {
		return times[i] < times[j]
	})

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}

	return times[index]
}

// GetStats returns current metrics statistics
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)
	cacheHits := atomic.LoadInt64(&m.CacheHits)
	cacheMisses := atomic.LoadInt64(&m.CacheMisses)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	cacheHitRate := float64(0)
	if total := cacheHits + cacheMisses; total > 0 {
		cacheHitRate = float64(cacheHits) / float64(total) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":         time.Since(m.StartTime).Seconds(),
		"total_requests":         requests,
		"error_count":            errors,
		"error_rate_percent":     errorRate,
		"cache_hits":             cacheHits,
		"cache_misses":           cacheMisses,
		"cache_hit_rate_percent": cacheHitRate,
		"analyses":               atomic.LoadInt64(&m.Analyses),
		"analysis_failures":      atomic.LoadInt64(&m.Failures),
		"start_time":             m.StartTime.Format(time.RFC3339),
		"p50_response_time_ms":   float64(m.GetPercentileResponseTime(50)) / 1000000,
		"p95_response_time_ms":   float64(m.GetPercentileResponseTime(95)) / 1000000,
		"p99_response_time_ms":   float64(m.GetPercentileResponseTime(99)) / 1000000,
	}
}

var _ analysis.Observer = (*Metrics)(nil)

// AnalysisObserver feeds analysis outcomes to both metrics and logs
type AnalysisObserver struct {
	metrics *Metrics
	logger  *Logger
}

// NewAnalysisObserver combines metrics and logger into an analysis.Observer
func NewAnalysisObserver(metrics *Metrics, logger *Logger) *AnalysisObserver {
	return &AnalysisObserver{metrics: metrics, logger: logger}
}

func (o *AnalysisObserver) ObserveAnalysis(tier analysis.RiskTier, duration time.Duration) {
	o.metrics.ObserveAnalysis(tier, duration)
}

func (o *AnalysisObserver) ObserveFailure(stage string) {
	o.metrics.ObserveFailure(stage)
	o.logger.Warn("Analysis failed", "stage", stage)
}

func (o *AnalysisObserver) ObserveDropped(d analysis.DroppedField, mode analysis.EncodingMode) {
	o.metrics.ObserveDropped(d, mode)
	o.logger.EncodingDropLogger(d.Field, d.Column, string(mode))
}
