package discovery

import "context"

// Broker describes a backend messaging server the proxy can splice clients
// onto or answer lookups on behalf of.
type Broker struct {
	// Name is the broker's logical identifier (e.g. "broker-1").
	Name string

	// ServiceURL is the broker's own advertised service address, the
	// address a lookup reply would name before the proxy rewrites it to
	// its own service URL (spec.md §6).
	ServiceURL string

	// LoadScore is a relative load indicator; lower is less loaded.
	// leastLoadedBroker picks the minimum.
	LoadScore float64

	// Healthy reports whether the broker is currently considered
	// reachable and accepting traffic.
	Healthy bool
}

// Provider is the broker discovery provider spec.md names as an external
// collaborator: listActiveBrokers() and leastLoadedBroker().
type Provider interface {
	// ListActiveBrokers returns the current set of known brokers.
	ListActiveBrokers(ctx context.Context) ([]Broker, error)

	// LeastLoadedBroker returns the broker with the lowest LoadScore among
	// the currently known healthy brokers.
	LeastLoadedBroker(ctx context.Context) (Broker, error)

	// Close releases any resources (refresh goroutines, connections) held
	// by the provider.
	Close() error
}
