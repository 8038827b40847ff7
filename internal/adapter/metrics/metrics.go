// Package metrics adapts prometheus/client_golang to the core's
// ports.Metrics capability, registering counters the same way
// the teacher pack's syncer services do (promauto-registered vectors read
// by an exposed /metrics endpoint).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yash02896/graphix/internal/domain"
)

// PrometheusMetrics implements ports.Metrics.
type PrometheusMetrics struct {
	indexingStatusRequests *prometheus.CounterVec
	poiRequests            *prometheus.CounterVec
	investigationsStarted  prometheus.Counter
	investigationsByStatus *prometheus.CounterVec
}

// New registers the Graphix metric family against reg. Pass
// prometheus.DefaultRegisterer for the default global registry.
func New(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		indexingStatusRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graphix_indexing_statuses_requests_total",
			Help: "Count of indexing_statuses queries by indexer address and outcome.",
		}, []string{"address", "outcome"}),
		poiRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graphix_proofs_of_indexing_requests_total",
			Help: "Count of proofs_of_indexing queries by indexer address and outcome.",
		}, []string{"address", "outcome"}),
		investigationsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "graphix_divergence_investigations_started_total",
			Help: "Count of divergence investigations started.",
		}),
		investigationsByStatus: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "graphix_divergence_investigations_completed_total",
			Help: "Count of divergence investigations completed, by terminal status.",
		}, []string{"status"}),
	}
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

func (m *PrometheusMetrics) IndexingStatusesRequest(address string, success bool) {
	m.indexingStatusRequests.WithLabelValues(address, outcomeLabel(success)).Inc()
}

func (m *PrometheusMetrics) ProofsOfIndexingRequest(address string, success bool) {
	m.poiRequests.WithLabelValues(address, outcomeLabel(success)).Inc()
}

func (m *PrometheusMetrics) InvestigationStarted() {
	m.investigationsStarted.Inc()
}

func (m *PrometheusMetrics) InvestigationCompleted(status domain.InvestigationStatus) {
	m.investigationsByStatus.WithLabelValues(status.String()).Inc()
}
