package framefsm

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "framefsm"

// Failure reasons used as the "reason" label.
const (
	reasonNoEntity     = "no_entity"
	reasonUnknownState = "unknown_state"
	reasonNoActive     = "no_active_state"
)

// Metrics holds the prometheus collectors shared by coordinators. One
// Metrics value can serve many coordinators; series are split by the
// "machine" label.
type Metrics struct {
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	callbacks   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "transitions_total",
				Help:      "Completed state activations by source and target state",
			},
			[]string{"machine", "from", "to"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "transition_failures_total",
				Help:      "Activations that left the machine inert",
			},
			[]string{"machine", "reason"},
		),
		callbacks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "callbacks_total",
				Help:      "Callbacks delivered to the active state",
			},
			[]string{"machine", "callback"},
		),
		dropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "dropped_callbacks_total",
				Help:      "Callbacks dropped because no state was active",
			},
			[]string{"machine", "callback"},
		),
	}
}

func (m *Metrics) transition(machine string, from, to StateID) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(machine, string(from), string(to)).Inc()
}

func (m *Metrics) failure(machine, reason string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(machine, reason).Inc()
}

func (m *Metrics) callback(machine string, kind Callback) {
	if m == nil {
		return
	}
	m.callbacks.WithLabelValues(machine, string(kind)).Inc()
}

func (m *Metrics) drop(machine string, kind Callback) {
	if m == nil {
		return
	}
	m.dropped.WithLabelValues(machine, string(kind)).Inc()
}
