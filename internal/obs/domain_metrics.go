package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts checkout outcomes.
	OrdersCreatedTotal *prometheus.CounterVec
	// VoucherEvaluationsTotal counts voucher evaluations by scope and reason.
	VoucherEvaluationsTotal *prometheus.CounterVec
	// DeliveryQuoteTotal counts delivery fee quote outcomes.
	DeliveryQuoteTotal *prometheus.CounterVec
	// CartPricingDuration records how long a cart pricing computation takes in milliseconds.
	CartPricingDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		OrdersCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Count of checkout attempts by result.",
		}, []string{"result"})
		VoucherEvaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voucher_evaluations_total",
			Help:      "Count of voucher evaluations by scope and outcome reason.",
		}, []string{"scope", "reason"})
		DeliveryQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_quote_total",
			Help:      "Count of delivery fee quote requests by result.",
		}, []string{"result"})
		CartPricingDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_pricing_duration_ms",
			Help:      "Latency of cart total computations in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})
		reg.MustRegister(OrdersCreatedTotal, VoucherEvaluationsTotal, DeliveryQuoteTotal, CartPricingDuration)
	})
}
