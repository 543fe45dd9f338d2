package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the bot's Prometheus collectors, registered on their own
// registry rather than the global default.
type Metrics struct {
	Registry *prometheus.Registry

	updatesReceived    *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	shipmentsCommitted prometheus.Counter
	commitFailures     prometheus.Counter
	reportsGenerated   *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,
		updatesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipment_bot_updates_received_total",
				Help: "Total number of Telegram updates handled, partitioned by event kind.",
			},
			[]string{"kind"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipment_bot_validation_failures_total",
				Help: "Total number of rejected form inputs, partitioned by step.",
			},
			[]string{"step"},
		),
		shipmentsCommitted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shipment_bot_shipments_committed_total",
				Help: "Total number of shipments persisted.",
			},
		),
		commitFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shipment_bot_commit_failures_total",
				Help: "Total number of shipments that failed to persist.",
			},
		),
		reportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipment_bot_reports_generated_total",
				Help: "Total number of reports produced, partitioned by mode and outcome.",
			},
			[]string{"mode", "outcome"},
		),
	}
}

func (m *Metrics) UpdateReceived(kind string) {
	m.updatesReceived.WithLabelValues(kind).Inc()
}

func (m *Metrics) ValidationFailed(step string) {
	m.validationFailures.WithLabelValues(step).Inc()
}

func (m *Metrics) ShipmentCommitted() {
	m.shipmentsCommitted.Inc()
}

func (m *Metrics) CommitFailed() {
	m.commitFailures.Inc()
}

// ReportGenerated counts a report; outcome is "ok", "empty" or "unavailable".
func (m *Metrics) ReportGenerated(mode, outcome string) {
	m.reportsGenerated.WithLabelValues(mode, outcome).Inc()
}
