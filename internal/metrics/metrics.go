// Package metrics exports index build and retrieval metrics in Prometheus
// format. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"socialrag/internal/domain"
)

const namespace = "socialrag"

type Metrics struct {
	registry *prometheus.Registry

	chunksBuilt     *prometheus.GaugeVec
	embedBatches    *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	retrievals      *prometheus.CounterVec
	retrievedChunks *prometheus.CounterVec
}

// New creates metrics on a private registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.chunksBuilt = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "chunks",
			Help:      "Chunks in the current index by level",
		},
		[]string{"level"},
	)
	m.embedBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "embed_batches_total",
			Help:      "Embedding batches sent to the provider",
		},
		[]string{"status"},
	)
	m.buildDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Index build latency in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
	m.retrievals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "requests_total",
			Help:      "Retrieval requests",
		},
		[]string{"status"},
	)
	m.retrievedChunks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "results_total",
			Help:      "Chunks returned by retrieval by level",
		},
		[]string{"level"},
	)

	m.registry.MustRegister(m.chunksBuilt, m.embedBatches, m.buildDuration, m.retrievals, m.retrievedChunks)
	return m
}

// SetChunks replaces the per-level chunk gauges.
func (m *Metrics) SetChunks(counts map[int]int) {
	if m == nil {
		return
	}
	m.chunksBuilt.Reset()
	for level := domain.LevelPost; level <= domain.LevelStrategic; level++ {
		m.chunksBuilt.WithLabelValues(strconv.Itoa(level)).Set(float64(counts[level]))
	}
}

func (m *Metrics) EmbedBatch(err error) {
	if m == nil {
		return
	}
	m.embedBatches.WithLabelValues(status(err)).Inc()
}

func (m *Metrics) ObserveBuild(d time.Duration) {
	if m == nil {
		return
	}
	m.buildDuration.Observe(d.Seconds())
}

// ObserveRetrieval counts one request and its results per level.
func (m *Metrics) ObserveRetrieval(results []domain.SearchResult, err error) {
	if m == nil {
		return
	}
	m.retrievals.WithLabelValues(status(err)).Inc()
	for _, r := range results {
		m.retrievedChunks.WithLabelValues(strconv.Itoa(r.Level())).Inc()
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
