package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Domain-level counters for the point-of-sale flow. Registered once per
// process; handlers increment them through the helpers below.
var (
	domainOnce sync.Once

	salesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "sales_total",
		Help:      "Completed checkout attempts by payment method and result.",
	}, []string{"method", "result"})

	cartOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "cart_ops_total",
		Help:      "Cart mutations by operation.",
	}, []string{"op"})

	lookupTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "product_lookup_total",
		Help:      "Product lookups by outcome.",
	}, []string{"result"})

	receiptReprints = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "pos",
		Name:      "receipt_reprints_total",
		Help:      "Receipt documents served from the reprint store.",
	})
)

// MustRegisterDomainMetrics registers the POS collectors on the given registry.
func MustRegisterDomainMetrics(reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		mustRegister(reg, salesTotal, cartOpsTotal, lookupTotal, receiptReprints)
	})
}

// CountSale records the outcome of a checkout submission.
func CountSale(method, result string) {
	salesTotal.WithLabelValues(method, result).Inc()
}

// CountCartOp records a cart mutation such as add, remove or clear.
func CountCartOp(op string) {
	cartOpsTotal.WithLabelValues(op).Inc()
}

// CountLookup records a product lookup outcome (hit, miss, error).
func CountLookup(result string) {
	lookupTotal.WithLabelValues(result).Inc()
}

// CountReceiptReprint records a receipt served from the reprint store.
func CountReceiptReprint() {
	receiptReprints.Inc()
}
