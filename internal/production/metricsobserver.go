package production

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/comalice/rafcore/internal/core"
)

// MetricsObserver exposes Prometheus counters/gauges for engine activity: a
// gauge for states currently active, and counters for outcomes, structural
// edits and control-state transitions, all namespaced "rafcore_".
type MetricsObserver struct {
	mu sync.Mutex

	activeStates   prometheus.Gauge
	outcomesTotal  *prometheus.CounterVec
	structuralOps  *prometheus.CounterVec
	controlChanges *prometheus.CounterVec
}

func NewMetricsObserver(reg prometheus.Registerer) *MetricsObserver {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &MetricsObserver{
		activeStates: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "rafcore",
			Name:      "active_states",
			Help:      "Number of states currently active.",
		}),
		outcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rafcore",
			Name:      "outcomes_total",
			Help:      "Count of completed state activations by state.",
		}, []string{"state"}),
		structuralOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rafcore",
			Name:      "structural_ops_total",
			Help:      "Count of structural mutations by property kind.",
		}, []string{"property"}),
		controlChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rafcore",
			Name:      "control_state_changes_total",
			Help:      "Count of engine control-state transitions.",
		}, []string{"to"}),
	}
}

func (m *MetricsObserver) Notify(c core.Change) {
	switch c.Kind {
	case core.EventStructural:
		m.structuralOps.WithLabelValues(c.Property).Inc()
	case core.EventOutcome:
		m.outcomesTotal.WithLabelValues(c.Subject).Inc()
	case core.EventControlState:
		if after, ok := c.After.(string); ok {
			m.controlChanges.WithLabelValues(after).Inc()
		}
	case core.EventStatusChange:
		if after, ok := c.After.(string); ok {
			m.mu.Lock()
			defer m.mu.Unlock()
			if after == "active" || after == "execute_children" {
				m.activeStates.Inc()
			} else {
				m.activeStates.Dec()
			}
		}
	}
}
