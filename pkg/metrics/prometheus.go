package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns its registry so several recorders can coexist in tests.
type Recorder struct {
	registry      *prometheus.Registry
	loadsTotal    *prometheus.CounterVec
	loadDuration  prometheus.Histogram
	tableRows     *prometheus.GaugeVec
	parseSkipped  *prometheus.CounterVec
	cacheHits     prometheus.Counter
	fetchAttempts *prometheus.CounterVec
	wsClients     prometheus.Gauge
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		loadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_loads_total",
				Help: "Pipeline loads by resulting status",
			},
			[]string{"status"},
		),
		loadDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reconciler_load_duration_seconds",
				Help:    "Duration of uncached pipeline loads",
				Buckets: prometheus.DefBuckets,
			},
		),
		tableRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reconciler_table_rows",
				Help: "Rows in the latest consumption, production and merged tables",
			},
			[]string{"table"},
		),
		parseSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_parse_skipped_total",
				Help: "Raw lines skipped while parsing",
			},
			[]string{"source"},
		),
		cacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "reconciler_cache_hits_total",
				Help: "Loads served from the fingerprint cache",
			},
		),
		fetchAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reconciler_fetch_attempts_total",
				Help: "Raw data fetch attempts by result",
			},
			[]string{"result"},
		),
		wsClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "reconciler_websocket_clients",
				Help: "Connected websocket clients",
			},
		),
	}
}

func (r *Recorder) RecordLoad(status string, took time.Duration) {
	r.loadsTotal.WithLabelValues(status).Inc()
	r.loadDuration.Observe(took.Seconds())
}

func (r *Recorder) RecordRows(table string, rows int) {
	r.tableRows.WithLabelValues(table).Set(float64(rows))
}

func (r *Recorder) RecordSkipped(source string, n int) {
	if n > 0 {
		r.parseSkipped.WithLabelValues(source).Add(float64(n))
	}
}

func (r *Recorder) RecordCacheHit() {
	r.cacheHits.Inc()
}

func (r *Recorder) RecordFetch(result string) {
	r.fetchAttempts.WithLabelValues(result).Inc()
}

func (r *Recorder) SetWebSocketClients(n int) {
	r.wsClients.Set(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
