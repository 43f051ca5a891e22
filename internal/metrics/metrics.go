package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// Scan metrics
	evaluationsTotal *prometheus.CounterVec
	candidatesRanked prometheus.Gauge
	scanDuration     prometheus.Histogram

	// Journal metrics
	journalTrades    prometheus.Counter
	configAdaptation *prometheus.CounterVec

	// Market data metrics
	fetchRequestsTotal *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		evaluationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_evaluations_total",
				Help: "Total number of symbol evaluations by outcome",
			},
			[]string{"result"},
		),

		candidatesRanked: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "vigil_candidates_ranked",
				Help: "Number of qualifying candidates in the latest scan",
			},
		),

		scanDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vigil_scan_duration_seconds",
				Help:    "Scan duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
			},
		),

		journalTrades: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vigil_journal_trades_total",
				Help: "Total number of trades recorded in the journal",
			},
		),

		configAdaptation: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_config_adaptations_total",
				Help: "Total number of adaptive threshold changes by direction",
			},
			[]string{"direction"},
		),

		fetchRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vigil_fetch_requests_total",
				Help: "Total number of market data requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
	}

	reg.MustRegister(r.evaluationsTotal)
	reg.MustRegister(r.candidatesRanked)
	reg.MustRegister(r.scanDuration)
	reg.MustRegister(r.journalTrades)
	reg.MustRegister(r.configAdaptation)
	reg.MustRegister(r.fetchRequestsTotal)

	return r
}

// Evaluation result labels.
const (
	ResultQualified        = "qualified"
	ResultRejected         = "rejected"
	ResultInsufficientData = "insufficient_data"
)

// RecordEvaluation records one symbol evaluation outcome.
func (r *Registry) RecordEvaluation(result string) {
	r.evaluationsTotal.WithLabelValues(result).Inc()
}

// SetCandidatesRanked sets the qualifying candidate count of the latest scan.
func (r *Registry) SetCandidatesRanked(count int) {
	r.candidatesRanked.Set(float64(count))
}

// RecordScan records a completed scan.
func (r *Registry) RecordScan(duration float64) {
	r.scanDuration.Observe(duration)
}

// RecordJournalTrade records a trade appended to the journal.
func (r *Registry) RecordJournalTrade() {
	r.journalTrades.Inc()
}

// RecordAdaptation records an adaptive tuning change.
func (r *Registry) RecordAdaptation(direction string) {
	r.configAdaptation.WithLabelValues(direction).Inc()
}

// RecordFetch records a market data request.
func (r *Registry) RecordFetch(endpoint string, status int) {
	r.fetchRequestsTotal.WithLabelValues(endpoint, statusToString(status)).Inc()
}

// Handler returns an http.Handler serving the registry in the Prometheus
// exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.Registry, promhttp.HandlerOpts{})
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
