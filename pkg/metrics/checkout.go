package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the checkout pipeline counters and latencies.
type CheckoutMetrics struct {
	sessionsBuilt   *prometheus.CounterVec
	confirmations   *prometheus.CounterVec
	confirmDuration *prometheus.HistogramVec
	itemsProvision  *prometheus.CounterVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessionsBuilt := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_sessions_built",
		Help: "Payment sessions created from carts.",
	}, []string{"provider"})
	confirmations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_confirmations",
		Help: "Payment confirmation attempts by outcome.",
	}, []string{"provider", "outcome"})
	confirmDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_confirm_duration_seconds",
		Help:    "Duration of payment confirmation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	itemsProvision := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_items_provisioned",
		Help: "Order items provisioned by status.",
	}, []string{"status"})
	reg.MustRegister(sessionsBuilt, confirmations, confirmDuration, itemsProvision)
	return &CheckoutMetrics{
		sessionsBuilt:   sessionsBuilt,
		confirmations:   confirmations,
		confirmDuration: confirmDuration,
		itemsProvision:  itemsProvision,
	}
}

// IncSessionBuilt increments the session counter for the named provider.
func (c *CheckoutMetrics) IncSessionBuilt(provider string) {
	if c == nil || c.sessionsBuilt == nil {
		return
	}
	c.sessionsBuilt.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncConfirmation increments the confirmation counter for the provider/outcome pair.
func (c *CheckoutMetrics) IncConfirmation(provider, outcome string) {
	if c == nil || c.confirmations == nil {
		return
	}
	c.confirmations.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

// ObserveConfirmDuration records how long a confirmation took.
func (c *CheckoutMetrics) ObserveConfirmDuration(provider string, duration time.Duration) {
	if c == nil || c.confirmDuration == nil {
		return
	}
	c.confirmDuration.WithLabelValues(normalizeLabel(provider)).Observe(duration.Seconds())
}

// IncItemProvisioned counts one provisioned order item by final status.
func (c *CheckoutMetrics) IncItemProvisioned(status string) {
	if c == nil || c.itemsProvision == nil {
		return
	}
	c.itemsProvision.WithLabelValues(normalizeLabel(status)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
