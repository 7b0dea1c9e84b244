package metrics

import (
	"mercator-hq/brokerproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BrokerMetrics tracks the proxy's view of backend brokers reached through
// lookup RPCs and data-plane splices: whether discovery considers them
// healthy, how long a lookup round trip to one takes, and how often a
// lookup to one fails.
type BrokerMetrics struct {
	health        *prometheus.GaugeVec
	lookupLatency *prometheus.HistogramVec
	lookupErrors  *prometheus.CounterVec
}

// NewBrokerMetrics creates and registers broker metrics against registry.
func NewBrokerMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BrokerMetrics {
	bm := &BrokerMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "broker_health",
				Help:      "Broker health as last reported by discovery (1=healthy, 0=unhealthy).",
			},
			[]string{"broker"},
		),
		lookupLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lookup_latency_seconds",
				Help:      "Round-trip latency of a lookup request forwarded to a broker.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"broker"},
		),
		lookupErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "lookup_errors_total",
				Help:      "Total lookup requests that failed to reach or were rejected by a broker.",
			},
			[]string{"broker", "reason"},
		),
	}

	registry.MustRegister(bm.health, bm.lookupLatency, bm.lookupErrors)
	return bm
}

// UpdateHealth records broker's current health as reported by discovery.
func (bm *BrokerMetrics) UpdateHealth(broker string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	bm.health.WithLabelValues(broker).Set(value)
}

// RecordLookupLatency records the duration of one lookup round trip to broker.
func (bm *BrokerMetrics) RecordLookupLatency(broker string, seconds float64) {
	bm.lookupLatency.WithLabelValues(broker).Observe(seconds)
}

// RecordLookupError records a failed lookup attempt against broker, tagged
// with a short reason ("dial", "timeout", "protocol", "broker_error").
func (bm *BrokerMetrics) RecordLookupError(broker, reason string) {
	bm.lookupErrors.WithLabelValues(broker, reason).Inc()
}
