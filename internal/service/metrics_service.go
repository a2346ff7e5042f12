package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	listDuration    *prometheus.HistogramVec
	listSourceRows  *prometheus.HistogramVec
	listErrors      *prometheus.CounterVec
	exportTotal     *prometheus.CounterVec
	exportRows      *prometheus.HistogramVec
	uploadBytes     prometheus.Histogram

	cacheHitCount  uint64
	cacheMissCount uint64
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	listDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_duration_seconds",
		Help:    "Time spent searching, sorting and paging a listing",
		Buckets: prometheus.DefBuckets,
	}, []string{"resource"})

	listSourceRows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "listing_source_rows",
		Help:    "Number of records loaded from storage per source evaluation",
		Buckets: prometheus.ExponentialBuckets(10, 4, 7),
	}, []string{"resource"})

	listErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "listing_errors_total",
		Help: "Listing requests rejected or failed",
	}, []string{"resource", "kind"})

	exportTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "exports_total",
		Help: "Rendered listing exports",
	}, []string{"resource", "format"})

	exportRows := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "export_rows",
		Help:    "Rows per rendered export",
		Buckets: prometheus.ExponentialBuckets(10, 4, 7),
	}, []string{"resource"})

	uploadBytes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "upload_size_bytes",
		Help:    "Size of stored payment proofs",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 6),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		listDuration, listSourceRows, listErrors, exportTotal, exportRows, uploadBytes, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		listDuration:    listDuration,
		listSourceRows:  listSourceRows,
		listErrors:      listErrors,
		exportTotal:     exportTotal,
		exportRows:      exportRows,
		uploadBytes:     uploadBytes,
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

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveListing records the duration of one listing composition.
func (m *MetricsService) ObserveListing(resource string, duration time.Duration) {
	if m == nil {
		return
	}
	m.listDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// ObserveSourceRows records how many records a listing source produced.
func (m *MetricsService) ObserveSourceRows(resource string, rows int) {
	if m == nil {
		return
	}
	m.listSourceRows.WithLabelValues(resource).Observe(float64(rows))
}

// RecordListingError counts rejected ("validation") or failed ("internal") listings.
func (m *MetricsService) RecordListingError(resource, kind string) {
	if m == nil {
		return
	}
	m.listErrors.WithLabelValues(resource, kind).Inc()
}

// ObserveExport records a rendered export.
func (m *MetricsService) ObserveExport(resource, format string, rows int) {
	if m == nil {
		return
	}
	m.exportTotal.WithLabelValues(resource, format).Inc()
	m.exportRows.WithLabelValues(resource).Observe(float64(rows))
}

// ObserveUpload records the size of a stored upload.
func (m *MetricsService) ObserveUpload(size int64) {
	if m == nil {
		return
	}
	m.uploadBytes.Observe(float64(size))
}
