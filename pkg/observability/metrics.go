package observability

import (
	"context"

	"github.com/aretw0/layouts/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors fed by Hooks.
type Metrics struct {
	Hydrations        *prometheus.CounterVec
	HydrationDuration *prometheus.HistogramVec
	Transitions       *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Hydrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "layouts_hydrations_total",
				Help: "Total number of settled layout hydrations",
			},
			[]string{"layout", "outcome"},
		),
		HydrationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "layouts_hydration_duration_seconds",
				Help:    "Duration of layout hydrations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"layout"},
		),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "layouts_wizard_transitions_total",
				Help: "Total number of wizard actions",
			},
			[]string{"action"},
		),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "layouts_sessions_active",
			Help: "Number of live sessions",
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Hydrations, m.HydrationDuration, m.Transitions, m.ActiveSessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks records every event into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnHydrateSettle: func(_ context.Context, e *domain.HydrationEvent) {
			m.Hydrations.WithLabelValues(e.Layout, e.Outcome()).Inc()
			m.HydrationDuration.WithLabelValues(e.Layout).Observe(e.Duration.Seconds())
		},
		OnStepChange: func(_ context.Context, e *domain.StepEvent) {
			m.Transitions.WithLabelValues(e.Action).Inc()
		},
		OnSessionStart: func(context.Context, *domain.SessionEvent) {
			m.ActiveSessions.Inc()
		},
		OnSessionEnd: func(context.Context, *domain.SessionEvent) {
			m.ActiveSessions.Dec()
		},
	}
}
