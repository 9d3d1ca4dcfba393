package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks implements every hook interface with Prometheus metrics.
type PrometheusHooks struct {
	StageTotal    *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	SceneObjects  prometheus.Histogram
	BuildIssues   prometheus.Counter
	ArtifactBytes *prometheus.HistogramVec

	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheBytes  *prometheus.CounterVec

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

// NewPrometheusHooks registers the memviz metrics with reg.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		StageTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memviz_stage_total",
				Help: "Pipeline stage executions by outcome",
			},
			[]string{"stage", "status"},
		),
		StageDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "memviz_stage_duration_seconds",
				Help:    "Pipeline stage latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		SceneObjects: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "memviz_scene_objects",
				Help:    "Objects per built scene",
				Buckets: []float64{1, 5, 10, 25, 50, 100},
			},
		),
		BuildIssues: f.NewCounter(
			prometheus.CounterOpts{
				Name: "memviz_build_issues_total",
				Help: "Malformed subtrees replaced by placeholders",
			},
		),
		ArtifactBytes: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "memviz_artifact_size_bytes",
				Help:    "Rendered artifact size in bytes",
				Buckets: []float64{1000, 10000, 100000, 1000000},
			},
			[]string{"format"},
		),
		CacheHits: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memviz_cache_hits_total",
				Help: "Cache hits by key type",
			},
			[]string{"key_type"},
		),
		CacheMisses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memviz_cache_misses_total",
				Help: "Cache misses by key type",
			},
			[]string{"key_type"},
		),
		CacheBytes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memviz_cache_written_bytes_total",
				Help: "Bytes written to the cache by key type",
			},
			[]string{"key_type"},
		),
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "memviz_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "memviz_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "memviz_http_requests_in_flight",
				Help: "Current number of HTTP requests being processed",
			},
		),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *PrometheusHooks) OnBuildStart(context.Context, string) {}

func (p *PrometheusHooks) OnBuildComplete(_ context.Context, _ string, objects, issues int, d time.Duration, err error) {
	p.StageTotal.WithLabelValues("build", status(err)).Inc()
	p.StageDuration.WithLabelValues("build").Observe(d.Seconds())
	if err == nil {
		p.SceneObjects.Observe(float64(objects))
		p.BuildIssues.Add(float64(issues))
	}
}

func (p *PrometheusHooks) OnLayoutStart(context.Context, int) {}

func (p *PrometheusHooks) OnLayoutComplete(_ context.Context, d time.Duration, err error) {
	p.StageTotal.WithLabelValues("layout", status(err)).Inc()
	p.StageDuration.WithLabelValues("layout").Observe(d.Seconds())
}

func (p *PrometheusHooks) OnRenderStart(context.Context, string) {}

func (p *PrometheusHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	p.StageTotal.WithLabelValues("render", status(err)).Inc()
	p.StageDuration.WithLabelValues("render").Observe(d.Seconds())
	if err == nil {
		p.ArtifactBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (p *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	p.CacheHits.WithLabelValues(keyType).Inc()
}

func (p *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	p.CacheMisses.WithLabelValues(keyType).Inc()
}

func (p *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	p.CacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (p *PrometheusHooks) OnRequest(context.Context, string, string) {
	p.HTTPRequestsInFlight.Inc()
}

func (p *PrometheusHooks) OnResponse(_ context.Context, method, route string, code, _ int, d time.Duration) {
	p.HTTPRequestsInFlight.Dec()
	p.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ PipelineHooks = (*PrometheusHooks)(nil)
	_ CacheHooks    = (*PrometheusHooks)(nil)
	_ HTTPHooks     = (*PrometheusHooks)(nil)
)
