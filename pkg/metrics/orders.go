package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics tracks order lifecycle activity.
type OrderMetrics struct {
	created     prometheus.Counter
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders created from carts.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes by source and target status.",
	}, []string{"from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_operations_rejected_total",
		Help: "Order operations rejected by a business rule.",
	}, []string{"operation", "code"})
	reg.MustRegister(created, transitions, rejections)
	return &OrderMetrics{
		created:     created,
		transitions: transitions,
		rejections:  rejections,
	}
}

func (m *OrderMetrics) IncCreated() {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
}

// ObserveTransition counts a status change.
func (m *OrderMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncRejected counts an operation refused with the given error code.
func (m *OrderMetrics) IncRejected(operation, code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(operation), normalizeLabel(code)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
