package strategies

import (
	"fmt"
	"sync"

	"mercator-hq/brokerproxy/pkg/discovery"
)

// ManualStrategy selects a broker from an operator-configured topic-to-
// broker map, falling back to a wrapped strategy for any topic with no
// explicit assignment. Grounded on the teacher's strategies.ManualStrategy,
// retargeted from a per-request PreferredProvider field (which this
// protocol has no equivalent of) to a static operator-supplied mapping —
// the pub/sub analogue of pinning specific topics to specific brokers for
// operational control.
type ManualStrategy struct {
	mu            sync.RWMutex
	assignments   map[string]string
	fallback      Strategy
	allowFallback bool
}

// NewManualStrategy creates a ManualStrategy. assignments maps topic name
// to broker name; fallback is used for topics with no entry, or when
// allowFallback is true and the assigned broker is unavailable.
func NewManualStrategy(assignments map[string]string, fallback Strategy, allowFallback bool) *ManualStrategy {
	if assignments == nil {
		assignments = make(map[string]string)
	}
	return &ManualStrategy{assignments: assignments, fallback: fallback, allowFallback: allowFallback}
}

// SelectBroker returns topic's manually assigned broker if it is in the
// available set; otherwise it falls back per allowFallback.
func (s *ManualStrategy) SelectBroker(topic string, available []discovery.Broker) (discovery.Broker, error) {
	if len(available) == 0 {
		return discovery.Broker{}, fmt.Errorf("manual: no brokers available")
	}

	s.mu.RLock()
	brokerName, assigned := s.assignments[topic]
	s.mu.RUnlock()

	if !assigned {
		if s.fallback != nil {
			return s.fallback.SelectBroker(topic, available)
		}
		return available[0], nil
	}

	for _, b := range available {
		if b.Name == brokerName {
			return b, nil
		}
	}

	if s.allowFallback && s.fallback != nil {
		return s.fallback.SelectBroker(topic, available)
	}
	return discovery.Broker{}, fmt.Errorf("manual: assigned broker %q for topic %q is not available", brokerName, topic)
}

// Assign sets or updates topic's manual broker assignment.
func (s *ManualStrategy) Assign(topic, brokerName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[topic] = brokerName
}

// Name returns the strategy name.
func (s *ManualStrategy) Name() string { return "manual" }

// Reset clears all manual assignments and the wrapped strategy's state.
func (s *ManualStrategy) Reset() {
	s.mu.Lock()
	s.assignments = make(map[string]string)
	s.mu.Unlock()
	if s.fallback != nil {
		s.fallback.Reset()
	}
}
