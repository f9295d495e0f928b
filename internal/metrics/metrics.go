package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one registry. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	searchRequests   *prometheus.CounterVec
	analysisDuration prometheus.Histogram
	states           *prometheus.CounterVec
	sourcesFound     prometheus.Histogram
}

func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		searchRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plagcheck_search_requests_total",
			Help: "Search backend calls by provider and outcome.",
		}, []string{"provider", "outcome"}),
		analysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "plagcheck_analysis_duration_seconds",
			Help:    "Wall time of one full analysis.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		states: f.NewCounterVec(prometheus.CounterOpts{
			Name: "plagcheck_analysis_states_total",
			Help: "Analysis state transitions by target state.",
		}, []string{"state"}),
		sourcesFound: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "plagcheck_sources_found",
			Help:    "Sources kept per report.",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		}),
	}
}

func (m *Metrics) Search(provider, outcome string) {
	if m == nil {
		return
	}
	m.searchRequests.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) State(state string) {
	if m == nil {
		return
	}
	m.states.WithLabelValues(state).Inc()
}

func (m *Metrics) Analysis(d time.Duration, sources int) {
	if m == nil {
		return
	}
	m.analysisDuration.Observe(d.Seconds())
	m.sourcesFound.Observe(float64(sources))
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry is exposed for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
