package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for Tandem, backed by any go-utils
// MetricFactory (e.g. the forge-managed metrics system via fapp.Metrics()).
type Metrics struct {
	WebhooksTotal       gu.Counter
	RuleMatchesTotal    gu.Counter
	DispatchesTotal     gu.Counter
	DispatchLatency     gu.Histogram
	IntegrationsInError gu.Gauge
	AuditEntries        gu.Counter
}

// NewMetrics creates Tandem metric instruments using the supplied factory.
// Pass fapp.Metrics() from a forge extension, or metrics.NewMetricsCollector()
// for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		WebhooksTotal:       factory.Counter("tandem_webhooks_received_total"),
		RuleMatchesTotal:    factory.Counter("tandem_rule_matches_total"),
		DispatchesTotal:     factory.Counter("tandem_dispatches_total"),
		DispatchLatency:     factory.Histogram("tandem_dispatch_latency_seconds"),
		IntegrationsInError: factory.Gauge("tandem_integrations_in_error"),
		AuditEntries:        factory.Counter("tandem_audit_entries_total"),
	}
}

// RecordWebhook records a received webhook with its verification result.
func (m *Metrics) RecordWebhook(platform, result string) {
	m.WebhooksTotal.WithLabels(map[string]string{
		"platform": platform,
		"result":   result,
	}).Inc()
}

// RecordDispatch records an action dispatch outcome with its latency.
func (m *Metrics) RecordDispatch(platform, outcome string, latencySeconds float64) {
	m.DispatchesTotal.WithLabels(map[string]string{
		"platform": platform,
		"outcome":  outcome,
	}).Inc()
	m.DispatchLatency.Observe(latencySeconds)
}
