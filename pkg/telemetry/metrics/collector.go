package metrics

import (
	"sync"

	"mercator-hq/brokerproxy/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the proxy's Prometheus metrics surface (spec.md §6). It
// owns the registry and every gauge/counter the proxy records against, and
// is the concrete type that satisfies the Metrics interfaces declared by
// pkg/proxyconn, pkg/directproxy and pkg/lookupproxy — each of those
// packages only names the couple of methods it needs, so one Collector
// value can be handed to all three.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	activeConnections   prometheus.Gauge
	newConnections      prometheus.Counter
	rejectedConnections prometheus.Counter
	binaryOps           prometheus.Counter
	binaryBytes         prometheus.Counter

	topicBytes    *prometheus.CounterVec
	topicMessages *prometheus.CounterVec

	broker *BrokerMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a Collector bound to cfg and registered against
// registry. If registry is nil, a fresh prometheus.Registry is created. The
// namespace/subsystem default to "pulsar"/"proxy" (see pkg/config defaults),
// which is what gives the exported series their pulsar_proxy_* names.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "pulsar"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "proxy"
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000),
	}

	c.activeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "active_connections",
		Help:      "Number of client connections currently open on the proxy.",
	})
	c.newConnections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "new_connections",
		Help:      "Total client connections accepted by the proxy.",
	})
	c.rejectedConnections = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "rejected_connections",
		Help:      "Total client connections rejected by admission control.",
	})
	c.binaryOps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "binary_ops",
		Help:      "Total binary protocol commands decoded from client connections.",
	})
	c.binaryBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "binary_bytes",
		Help:      "Total bytes read from client connections, including spliced data-plane traffic.",
	})
	c.topicBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "topic_bytes_total",
		Help:      "Total bytes spliced per topic.",
	}, []string{"topic"})
	c.topicMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: cfg.Namespace,
		Subsystem: cfg.Subsystem,
		Name:      "topic_messages_total",
		Help:      "Total messages observed per topic.",
	}, []string{"topic"})

	registry.MustRegister(
		c.activeConnections,
		c.newConnections,
		c.rejectedConnections,
		c.binaryOps,
		c.binaryBytes,
		c.topicBytes,
		c.topicMessages,
	)

	c.broker = NewBrokerMetrics(cfg, registry)

	return c
}

// IncActiveConnections records a newly admitted connection.
func (c *Collector) IncActiveConnections() {
	if !c.config.Enabled {
		return
	}
	c.activeConnections.Inc()
	c.newConnections.Inc()
}

// DecActiveConnections records a connection closing.
func (c *Collector) DecActiveConnections() {
	if !c.config.Enabled {
		return
	}
	c.activeConnections.Dec()
}

// IncRejectedConnections records a connection turned away by admission
// control (spec.md §5, global or per-IP cap exceeded).
func (c *Collector) IncRejectedConnections() {
	if !c.config.Enabled {
		return
	}
	c.rejectedConnections.Inc()
}

// IncBinaryOps implements the Metrics interface shared by pkg/proxyconn and
// pkg/lookupproxy.
func (c *Collector) IncBinaryOps(n uint64) {
	if !c.config.Enabled {
		return
	}
	c.binaryOps.Add(float64(n))
}

// AddBinaryBytes implements the Metrics interface shared by pkg/proxyconn
// and pkg/directproxy.
func (c *Collector) AddBinaryBytes(n uint64) {
	if !c.config.Enabled {
		return
	}
	c.binaryBytes.Add(float64(n))
}

// RecordTopicBytes attributes n spliced bytes to topic. Topics are
// cardinality-limited so a client that churns through many short-lived
// topic names can't grow the series without bound; once the limit is hit,
// the topic is folded into "other".
func (c *Collector) RecordTopicBytes(topic string, n int64) {
	if !c.config.Enabled || topic == "" {
		return
	}
	if !c.cardinalityLimiter.Allow(topic) {
		topic = "other"
	}
	c.topicBytes.WithLabelValues(topic).Add(float64(n))
}

// RecordTopicMessage attributes one observed message to topic, subject to
// the same cardinality limiting as RecordTopicBytes.
func (c *Collector) RecordTopicMessage(topic string) {
	if !c.config.Enabled || topic == "" {
		return
	}
	if !c.cardinalityLimiter.Allow(topic) {
		topic = "other"
	}
	c.topicMessages.WithLabelValues(topic).Inc()
}

// UpdateBrokerHealth records broker's current health as reported by discovery.
func (c *Collector) UpdateBrokerHealth(broker string, healthy bool) {
	if !c.config.Enabled {
		return
	}
	c.broker.UpdateHealth(broker, healthy)
}

// RecordLookupLatency records the duration of one lookup round trip to broker.
func (c *Collector) RecordLookupLatency(broker string, seconds float64) {
	if !c.config.Enabled {
		return
	}
	c.broker.RecordLookupLatency(broker, seconds)
}

// RecordLookupError records a failed lookup attempt against broker.
func (c *Collector) RecordLookupError(broker, reason string) {
	if !c.config.Enabled {
		return
	}
	c.broker.RecordLookupError(broker, reason)
}

// Registry returns the Prometheus registry used by this collector, for
// mounting Handler at the configured metrics path.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter bounds the number of distinct label values a
// per-topic series will accept, so a client that mints many short-lived
// topic names can't grow the registry without bound.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a limiter accepting up to maxCardinality
// distinct label values.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow reports whether labelValue has already been seen, or can still be
// admitted under the cardinality cap.
func (cl *CardinalityLimiter) Allow(labelValue string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelValue]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, exists := cl.current[labelValue]; exists {
		return true
	}
	if len(cl.current) >= cl.maxCardinality {
		return false
	}
	cl.current[labelValue] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
