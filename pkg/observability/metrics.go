// Package observability bridges engine lifecycle hooks into Prometheus
// collectors. Hook callbacks run synchronously on the dispatching
// goroutine, so everything here is a plain counter bump.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lanreath/strata/pkg/domain"
)

// Metrics converts lifecycle hooks into Prometheus counters. One value
// serves one chart; the chart name rides along as a constant label, so
// several charts register side by side without colliding.
type Metrics struct {
	def *domain.ChartDef

	dispatched  *prometheus.CounterVec
	entries     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	rejected    prometheus.Counter
}

// Option configures Metrics.
type Option func(*Metrics)

// WithChartDef resolves state and event ids to their declared names in
// metric labels. Without it labels carry the raw id forms.
func WithChartDef(def *domain.ChartDef) Option {
	return func(m *Metrics) {
		m.def = def
	}
}

// New builds the collector set for one chart. Register the result
// before assembling engines that feed it.
func New(chart string, opts ...Option) *Metrics {
	constLabels := prometheus.Labels{"chart": chart}
	m := &Metrics{
		dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "strata_events_dispatched_total",
				Help:        "Total number of dispatched events by outcome",
				ConstLabels: constLabels,
			},
			[]string{"event", "outcome"},
		),
		entries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "strata_state_entries_total",
				Help:        "Total number of state entries",
				ConstLabels: constLabels,
			},
			[]string{"state"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "strata_transitions_total",
				Help:        "Total number of applied transitions",
				ConstLabels: constLabels,
			},
			[]string{"from", "to"},
		),
		rejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name:        "strata_transitions_rejected_total",
				Help:        "Total number of change requests discarded for unregistered targets",
				ConstLabels: constLabels,
			},
		),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Collectors returns every collector owned by the set.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.dispatched, m.entries, m.transitions, m.rejected}
}

// MustRegister registers all collectors with reg, panicking on
// collision. Pass prometheus.DefaultRegisterer to use the default
// registry.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.Collectors()...)
}

// Hooks returns the lifecycle hook set feeding the counters. Chain it
// with domain.Chain when the engine carries other hooks too.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEventDispatched: func(_ context.Context, e *domain.DispatchEvent) {
			m.dispatched.WithLabelValues(m.eventLabel(e.Event), e.Outcome.String()).Inc()
		},
		OnStateEnter: func(_ context.Context, e *domain.StateEvent) {
			m.entries.WithLabelValues(m.stateLabel(e.State)).Inc()
		},
		OnTransitionApplied: func(_ context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(m.stateLabel(e.From), m.stateLabel(e.To)).Inc()
		},
		OnTransitionRejected: func(_ context.Context, _ *domain.TransitionEvent) {
			m.rejected.Inc()
		},
	}
}

func (m *Metrics) eventLabel(id domain.EventID) string {
	if m.def != nil {
		return m.def.EventName(id)
	}
	return id.String()
}

func (m *Metrics) stateLabel(id domain.StateID) string {
	if m.def != nil {
		if sd := m.def.State(id); sd != nil && sd.Name != "" {
			return sd.Name
		}
	}
	return id.String()
}

// NewResidentGauge exposes a live instance count as a gauge, typically
// fed by session.Manager.Resident.
func NewResidentGauge(resident func() int) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "strata_instances_active",
			Help: "Number of engine instances resident in memory",
		},
		func() float64 { return float64(resident()) },
	)
}
