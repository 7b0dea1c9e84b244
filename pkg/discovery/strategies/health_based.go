package strategies

import (
	"fmt"

	"mercator-hq/brokerproxy/pkg/discovery"
)

// HealthBasedStrategy is a decorator that filters out unhealthy brokers
// before delegating to a wrapped strategy, mirroring the teacher's
// strategies.HealthBasedStrategy.
type HealthBasedStrategy struct {
	wrapped        Strategy
	requireHealthy bool
}

// NewHealthBasedStrategy wraps strategy, filtering available brokers down
// to the healthy subset before delegating. If requireHealthy is true and no
// broker is healthy, SelectBroker returns an error instead of falling back
// to unhealthy brokers.
func NewHealthBasedStrategy(wrapped Strategy, requireHealthy bool) *HealthBasedStrategy {
	return &HealthBasedStrategy{wrapped: wrapped, requireHealthy: requireHealthy}
}

// SelectBroker delegates to the wrapped strategy using only healthy
// brokers, falling back to the full set when requireHealthy is false and
// none are healthy.
func (s *HealthBasedStrategy) SelectBroker(topic string, available []discovery.Broker) (discovery.Broker, error) {
	if len(available) == 0 {
		return discovery.Broker{}, fmt.Errorf("health-based: no brokers available")
	}

	healthy := make([]discovery.Broker, 0, len(available))
	for _, b := range available {
		if b.Healthy {
			healthy = append(healthy, b)
		}
	}

	if len(healthy) > 0 {
		return s.wrapped.SelectBroker(topic, healthy)
	}
	if s.requireHealthy {
		return discovery.Broker{}, fmt.Errorf("health-based: no healthy brokers available (total: %d)", len(available))
	}
	return s.wrapped.SelectBroker(topic, available)
}

// Name returns the strategy name.
func (s *HealthBasedStrategy) Name() string { return "health-based" }

// Reset resets the wrapped strategy.
func (s *HealthBasedStrategy) Reset() { s.wrapped.Reset() }
