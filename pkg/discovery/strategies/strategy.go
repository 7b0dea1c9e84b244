// Package strategies implements pluggable broker-selection strategies used
// by pkg/lookupproxy when a topic's owning broker is not already known,
// grounded on the teacher's pkg/routing/strategies package: the same
// RoutingStrategy interface shape, retargeted from "select an LLM provider
// for a request" to "select a broker for a topic lookup."
package strategies

import "mercator-hq/brokerproxy/pkg/discovery"

// Strategy selects a broker from the currently available set for a given
// topic. Implementations must be safe for concurrent use: a single
// Strategy instance is shared by every I/O worker's lookup path.
type Strategy interface {
	// SelectBroker picks a broker for topic from available.
	SelectBroker(topic string, available []discovery.Broker) (discovery.Broker, error)

	// Name identifies the strategy for logging and the discovery.strategy
	// metrics label.
	Name() string

	// Reset clears any internal state (counters, caches). Used in tests.
	Reset()
}
