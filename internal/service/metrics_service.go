package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the API and the
// billing engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	memberStatus    *prometheus.GaugeVec
	syncRuns        prometheus.Counter
	syncUpdated     prometheus.Counter
	scanExhausted   prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	memberStatus := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "members_by_status",
		Help: "Current number of members per status",
	}, []string{"status"})

	syncRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "status_sync_runs_total",
		Help: "Total member status synchronization passes",
	})

	syncUpdated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "status_sync_updates_total",
		Help: "Total member status rows rewritten by synchronization",
	})

	scanExhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schedule_scan_exhausted_total",
		Help: "Schedule computations that hit the bounded scan limit",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheHits, cacheMisses, memberStatus, syncRuns, syncUpdated, scanExhausted, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		memberStatus:    memberStatus,
		syncRuns:        syncRuns,
		syncUpdated:     syncUpdated,
		scanExhausted:   scanExhausted,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records a cache hit or miss.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// SetMemberStatusCount updates the per-status member gauge.
func (m *MetricsService) SetMemberStatusCount(status string, count int) {
	if m == nil {
		return
	}
	m.memberStatus.WithLabelValues(status).Set(float64(count))
}

// RecordSyncRun records a completed status synchronization pass.
func (m *MetricsService) RecordSyncRun(updated int) {
	if m == nil {
		return
	}
	m.syncRuns.Inc()
	m.syncUpdated.Add(float64(updated))
}

// IncScanExhausted counts a schedule walk that hit its scan limit.
func (m *MetricsService) IncScanExhausted() {
	if m == nil {
		return
	}
	m.scanExhausted.Inc()
}
