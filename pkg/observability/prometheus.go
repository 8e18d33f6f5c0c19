package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements every hook interface with Prometheus collectors.
type Metrics struct {
	scansTotal     prometheus.Counter
	scanDuration   prometheus.Histogram
	filesTotal     *prometheus.CounterVec
	fileDuration   *prometheus.HistogramVec
	nodesParsed    *prometheus.CounterVec
	cacheOps       *prometheus.CounterVec
	cacheBytes     *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	inFlight       prometheus.Gauge
}

var (
	_ ScanHooks  = (*Metrics)(nil)
	_ CacheHooks = (*Metrics)(nil)
	_ HTTPHooks  = (*Metrics)(nil)
)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		scansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depscan_scans_total",
			Help: "Number of completed project scans.",
		}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "depscan_scan_duration_seconds",
			Help:    "Time taken to scan a project.",
			Buckets: prometheus.DefBuckets,
		}),
		filesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depscan_files_parsed_total",
			Help: "Number of manifest files parsed by format and result.",
		}, []string{"format", "result"}),
		fileDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "depscan_file_parse_duration_seconds",
			Help:    "Time taken to parse one manifest file.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"format"}),
		nodesParsed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depscan_nodes_parsed_total",
			Help: "Number of graph nodes produced by parsing.",
		}, []string{"format"}),
		cacheOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depscan_cache_operations_total",
			Help: "Cache lookups and writes by key type and outcome.",
		}, []string{"key_type", "op"}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depscan_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type.",
		}, []string{"key_type"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depscan_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "depscan_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "depscan_http_requests_in_flight",
			Help: "Requests currently being served.",
		}),
	}
	reg.MustRegister(
		m.scansTotal,
		m.scanDuration,
		m.filesTotal,
		m.fileDuration,
		m.nodesParsed,
		m.cacheOps,
		m.cacheBytes,
		m.requestsTotal,
		m.requestLatency,
		m.inFlight,
	)
	return m
}

func (m *Metrics) OnScanStart(context.Context, string) {}

func (m *Metrics) OnScanComplete(_ context.Context, _ string, _, _ int, d time.Duration) {
	m.scansTotal.Inc()
	m.scanDuration.Observe(d.Seconds())
}

func (m *Metrics) OnFileStart(context.Context, string, string) {}

func (m *Metrics) OnFileComplete(_ context.Context, _, format string, nodeCount int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.filesTotal.WithLabelValues(format, result).Inc()
	m.fileDuration.WithLabelValues(format).Observe(d.Seconds())
	m.nodesParsed.WithLabelValues(format).Add(float64(nodeCount))
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheOps.WithLabelValues(keyType, "set").Inc()
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.inFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, statusCode int, d time.Duration) {
	m.inFlight.Dec()
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.requestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}
