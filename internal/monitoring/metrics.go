package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	URLsProcessedTotal *prometheus.CounterVec
	AttemptsTotal      *prometheus.CounterVec
	DiscoveredTotal    prometheus.Counter
	DuplicatesRemoved  prometheus.Counter
	ErrorsTotal        *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers the metrics on a specific registerer; tests pass
// a fresh registry to avoid duplicate registration.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		URLsProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_urls_processed_total",
			Help: "The total number of URLs processed",
		}, []string{"outcome"}), // 'scraped', 'exhausted', 'skipped'
		AttemptsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_fetch_attempts_total",
			Help: "Fetch attempts by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		DiscoveredTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "scraper_urls_discovered_total",
			Help: "URLs discovered across all crawls, after deduplication",
		}),
		DuplicatesRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "scraper_discovery_duplicates_removed_total",
			Help: "Duplicate URLs removed during discovery",
		}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "The total number of errors encountered",
		}, []string{"type"}), // e.g., 'discovery_failed', 'db_save_failed'
	}
}

func (m *Metrics) IncURLProcessed(outcome string) {
	m.URLsProcessedTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncAttempt(strategy, outcome string) {
	m.AttemptsTotal.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) AddDiscovered(n int) {
	m.DiscoveredTotal.Add(float64(n))
}

func (m *Metrics) AddDuplicatesRemoved(n int) {
	m.DuplicatesRemoved.Add(float64(n))
}

func (m *Metrics) IncErrorsTotal(errorType string) {
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}
