// Package metrics exposes Prometheus counters for the remote store.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics records order and cart activity. A nil *StoreMetrics is a no-op.
type StoreMetrics struct {
	ordersCreated     prometheus.Counter
	orderRejections   *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	cartMutations     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// NewStoreMetrics registers the store metrics on the provided registerer.
func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	ordersCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders persisted.",
	})
	orderRejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_rejections_total",
		Help: "Order submissions rejected before persisting.",
	}, []string{"reason"})
	statusTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status updates by source and target status.",
	}, []string{"from", "to", "result"})
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart writes by operation.",
	}, []string{"op"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(ordersCreated, orderRejections, statusTransitions, cartMutations, requestDuration)
	return &StoreMetrics{
		ordersCreated:     ordersCreated,
		orderRejections:   orderRejections,
		statusTransitions: statusTransitions,
		cartMutations:     cartMutations,
		requestDuration:   requestDuration,
	}
}

// IncOrderCreated counts a persisted order.
func (m *StoreMetrics) IncOrderCreated() {
	if m == nil || m.ordersCreated == nil {
		return
	}
	m.ordersCreated.Inc()
}

// IncOrderRejected counts a rejected submission.
func (m *StoreMetrics) IncOrderRejected(reason string) {
	if m == nil || m.orderRejections == nil {
		return
	}
	m.orderRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncStatusTransition counts a status update attempt and its outcome.
func (m *StoreMetrics) IncStatusTransition(from, to, result string) {
	if m == nil || m.statusTransitions == nil {
		return
	}
	m.statusTransitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(result)).Inc()
}

// IncCartMutation counts a cart write.
func (m *StoreMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveRequest records the duration of an HTTP request.
func (m *StoreMetrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, normalizeLabel(route), status).Observe(d.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
