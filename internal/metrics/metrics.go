package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"railmap/internal/railmap"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
// A nil *Metrics accepts every observation and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	framesTotal         prometheus.Counter
	frameDuration       prometheus.Histogram
	frameCulled         prometheus.Counter
	hitRegions          prometheus.Gauge
	clicksTotal         *prometheus.CounterVec
	diagnosticsTotal    *prometheus.CounterVec
	graphSize           *prometheus.GaugeVec
	syncRunsTotal       *prometheus.CounterVec
	syncRunDuration     prometheus.Histogram
}

var _ railmap.Observer = (*Metrics)(nil)

// New creates a fresh Metrics registry with HTTP, renderer and sync metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "railmap",
			Name:      "http_requests_total",
			Help:      "Count of HTTP requests processed by the map service",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "railmap",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests served by the map service",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		framesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "railmap",
			Name:      "frames_total",
			Help:      "Total number of rendered frames",
		}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "railmap",
			Name:      "frame_duration_seconds",
			Help:      "Time spent drawing one frame",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
		frameCulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "railmap",
			Name:      "culled_primitives_total",
			Help:      "Markers, labels and segments skipped for lying off-surface",
		}),
		hitRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "railmap",
			Name:      "hit_regions",
			Help:      "Clickable regions registered by the last frame",
		}),
		clicksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "railmap",
			Name:      "clicks_total",
			Help:      "Clicks resolved to a map element",
		}, []string{"kind"}),
		diagnosticsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "railmap",
			Name:      "diagnostics_total",
			Help:      "Recoverable data and configuration problems",
		}, []string{"kind"}),
		graphSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "railmap",
			Name:      "graph_elements",
			Help:      "Size of the loaded graph by element type",
		}, []string{"element"}),
		syncRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "railmap",
			Name:      "sync_runs_total",
			Help:      "Data sync polls by result",
		}, []string{"result"}),
		syncRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "railmap",
			Name:      "sync_run_duration_seconds",
			Help:      "Duration of data reloads from the store",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}

	registry.MustRegister(
		m.httpRequests,
		m.httpRequestDuration,
		m.framesTotal,
		m.frameDuration,
		m.frameCulled,
		m.hitRegions,
		m.clicksTotal,
		m.diagnosticsTotal,
		m.graphSize,
		m.syncRunsTotal,
		m.syncRunDuration,
	)
	return m
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

func (m *Metrics) ObserveFrame(stats railmap.FrameStats, d time.Duration) {
	if m == nil {
		return
	}
	m.framesTotal.Inc()
	m.frameDuration.Observe(d.Seconds())
	m.frameCulled.Add(float64(stats.Culled))
	m.hitRegions.Set(float64(stats.HitRegions))
}

func (m *Metrics) ObserveIngest(stats railmap.IngestStats) {
	if m == nil {
		return
	}
	m.graphSize.WithLabelValues("stations").Set(float64(stats.Stations))
	m.graphSize.WithLabelValues("groups").Set(float64(stats.Groups))
	m.graphSize.WithLabelValues("lines").Set(float64(stats.Lines))
	m.graphSize.WithLabelValues("connections").Set(float64(stats.Connections))
	m.graphSize.WithLabelValues("skipped").Set(float64(stats.Skipped))
}

func (m *Metrics) ObserveClick(kind railmap.RegionKind) {
	if m == nil {
		return
	}
	m.clicksTotal.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) ObserveDiagnostic(kind railmap.DiagnosticKind) {
	if m == nil {
		return
	}
	m.diagnosticsTotal.WithLabelValues(string(kind)).Inc()
}

// ObserveSync records one sync poll. result is "unchanged", "applied" or
// "error"; duration is only observed for applied reloads.
func (m *Metrics) ObserveSync(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.syncRunsTotal.WithLabelValues(result).Inc()
	if result == "applied" {
		m.syncRunDuration.Observe(duration.Seconds())
	}
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
