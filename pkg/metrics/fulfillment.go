package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// FulfillmentMetrics records order fulfillment outcomes.
type FulfillmentMetrics struct {
	duration *prometheus.HistogramVec
	created  prometheus.Counter
	rejected *prometheus.CounterVec
	released prometheus.Counter
}

// NewFulfillmentMetrics registers the fulfillment metrics on the provided registerer.
func NewFulfillmentMetrics(reg prometheus.Registerer) *FulfillmentMetrics {
	if reg == nil {
		return &FulfillmentMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_fulfillment_duration_seconds",
		Help:    "Duration of order fulfillment attempts in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders fulfilled and committed.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Orders rejected before commit.",
	}, []string{"reason"})
	released := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_releases_total",
		Help: "Stock releases performed during order cancellation.",
	})
	reg.MustRegister(duration, created, rejected, released)
	return &FulfillmentMetrics{
		duration: duration,
		created:  created,
		rejected: rejected,
		released: released,
	}
}

// ObserveDuration records how long a fulfillment attempt took.
func (f *FulfillmentMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if f == nil || f.duration == nil {
		return
	}
	f.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCreated increments the committed-order counter.
func (f *FulfillmentMetrics) IncCreated() {
	if f == nil || f.created == nil {
		return
	}
	f.created.Inc()
}

// IncRejected increments the rejection counter for the given reason.
func (f *FulfillmentMetrics) IncRejected(reason string) {
	if f == nil || f.rejected == nil {
		return
	}
	f.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncReleased increments the cancellation release counter.
func (f *FulfillmentMetrics) IncReleased() {
	if f == nil || f.released == nil {
		return
	}
	f.released.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
