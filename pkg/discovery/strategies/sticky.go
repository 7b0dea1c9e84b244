package strategies

import (
	"fmt"
	"time"

	"mercator-hq/brokerproxy/pkg/discovery"
)

// StickyStrategy keeps a topic pinned to the same broker across lookups,
// consulting a fallback strategy only on cache miss or when the previously
// assigned broker is no longer in the available set. Grounded on the
// teacher's strategies.StickyStrategy, keyed by topic instead of
// user/session/API key.
type StickyStrategy struct {
	cache    *stickyCache
	fallback Strategy
}

// NewStickyStrategy creates a StickyStrategy backed by a cache with the
// given TTL (0 = no expiry) and max entry count (0 = unbounded).
func NewStickyStrategy(fallback Strategy, ttl time.Duration, maxEntries int) *StickyStrategy {
	return &StickyStrategy{
		cache:    newStickyCache(ttl, maxEntries),
		fallback: fallback,
	}
}

// SelectBroker returns the topic's pinned broker if still available,
// otherwise delegates to the fallback strategy and pins the result.
func (s *StickyStrategy) SelectBroker(topic string, available []discovery.Broker) (discovery.Broker, error) {
	if len(available) == 0 {
		return discovery.Broker{}, fmt.Errorf("sticky: no brokers available")
	}

	if brokerName, ok := s.cache.get(topic); ok {
		for _, b := range available {
			if b.Name == brokerName {
				return b, nil
			}
		}
		// Pinned broker is gone; fall through to reassignment.
	}

	selected, err := s.fallback.SelectBroker(topic, available)
	if err != nil {
		return discovery.Broker{}, err
	}
	s.cache.set(topic, selected.Name)
	return selected, nil
}

// Name returns the strategy name.
func (s *StickyStrategy) Name() string { return "sticky" }

// Reset clears the sticky cache and the wrapped strategy's state.
func (s *StickyStrategy) Reset() {
	s.cache.clear()
	s.fallback.Reset()
}
