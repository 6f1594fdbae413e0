package payment

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks gateway calls. A nil *Metrics records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	webhooks *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "razorpay",
			Name:      "gateway_requests_total",
			Help:      "Razorpay API calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "razorpay",
			Name:      "gateway_request_duration_seconds",
			Help:      "Razorpay API call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		webhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "razorpay",
			Name:      "webhook_events_total",
			Help:      "Classified webhook deliveries by action.",
		}, []string{"action"}),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.webhooks)
	}
	return m
}

func (m *Metrics) observe(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveWebhook counts one classified webhook delivery.
func (m *Metrics) ObserveWebhook(action string) {
	if m == nil {
		return
	}
	m.webhooks.WithLabelValues(action).Inc()
}
