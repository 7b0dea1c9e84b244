package strategies

import (
	"fmt"
	"sync/atomic"

	"mercator-hq/brokerproxy/pkg/discovery"
)

// RoundRobinStrategy distributes topic lookups evenly across the available
// brokers using an atomic counter, mirroring the teacher's
// strategies.RoundRobinStrategy but without per-broker weighting: spec.md
// does not describe a weighted broker-assignment policy.
type RoundRobinStrategy struct {
	counter atomic.Int64
}

// NewRoundRobinStrategy creates a RoundRobinStrategy.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// SelectBroker returns the next broker in round-robin order.
func (s *RoundRobinStrategy) SelectBroker(topic string, available []discovery.Broker) (discovery.Broker, error) {
	if len(available) == 0 {
		return discovery.Broker{}, fmt.Errorf("round-robin: no brokers available")
	}
	if len(available) == 1 {
		return available[0], nil
	}

	count := s.counter.Add(1) - 1
	if count >= 1_000_000_000 {
		s.counter.CompareAndSwap(count+1, 0)
		count = 0
	}

	return available[count%int64(len(available))], nil
}

// Name returns the strategy name.
func (s *RoundRobinStrategy) Name() string { return "round-robin" }

// Reset resets the round-robin counter.
func (s *RoundRobinStrategy) Reset() { s.counter.Store(0) }
