package session

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSink counts activity events and redirects with prometheus
type MetricsSink struct {
	events    *prometheus.CounterVec
	redirects *prometheus.CounterVec
	outcomes  *prometheus.CounterVec
}

var _ ActivitySink = (*MetricsSink)(nil)

// NewMetricsSink registers the collectors on reg
func NewMetricsSink(reg prometheus.Registerer, namespace string) (*MetricsSink, error) {
	if namespace == "" {
		namespace = "social_session"
	}

	m := &MetricsSink{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activity_events_total",
			Help:      "Session activity events by type.",
		}, []string{"type"}),
		redirects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirects issued by the session redirect policy.",
		}, []string{"action"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_outcomes_total",
			Help:      "Token validation outcomes.",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{m.events, m.redirects, m.outcomes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *MetricsSink) Record(_ context.Context, event ActivityEvent) error {
	m.events.WithLabelValues(string(event.EventType)).Inc()

	switch event.EventType {
	case ActivityEventRedirect:
		m.redirects.WithLabelValues(event.Decision.Action.String()).Inc()
	case ActivityEventSessionValid, ActivityEventSessionExpired, ActivityEventSessionInvalid, ActivityEventSessionCleared:
		m.outcomes.WithLabelValues(event.Outcome.String()).Inc()
	}
	return nil
}

// ObserveDecision counts a redirect decided outside the Validator, the web
// gate uses it per request.
func (m *MetricsSink) ObserveDecision(outcome Outcome, decision Decision) {
	m.outcomes.WithLabelValues(outcome.String()).Inc()
	if !decision.IsNoop() {
		m.redirects.WithLabelValues(decision.Action.String()).Inc()
	}
}
