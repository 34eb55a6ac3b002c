package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus instruments for the dispatcher. All instruments
// are registered against the supplied registerer at construction.
type Metrics struct {
	reg prometheus.Registerer

	EventsDispatched prometheus.Counter
	DeliveriesTotal  *prometheus.CounterVec
	DeliveryLatency  prometheus.Histogram
	DeadLettersTotal prometheus.Counter
}

// NewMetrics creates dispatcher metric instruments. Pass
// prometheus.DefaultRegisterer for standalone usage.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		reg: reg,
		EventsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "fanout_events_dispatched_total",
			Help: "Events accepted for fan-out to subscribed webhooks.",
		}),
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fanout_deliveries_total",
			Help: "Delivery attempts by terminal status of the attempt.",
		}, []string{"status"}),
		DeliveryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "fanout_delivery_latency_seconds",
			Help:    "HTTP round-trip latency of delivery attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		DeadLettersTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "fanout_dead_letters_total",
			Help: "Deliveries that exhausted their retry budget.",
		}),
	}
}

// RecordDelivery records one delivery attempt with the given status and
// latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabelValues(status).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// TrackPendingRetries registers a gauge that reads the retry queue length on
// scrape. Called once the queue exists, after construction.
func (m *Metrics) TrackPendingRetries(length func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "fanout_pending_retries",
		Help: "Tasks currently waiting in the in-memory retry queue.",
	}, length))
}
