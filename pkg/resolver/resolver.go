package resolver

import (
	"context"
	"net"
	"sync"
	"time"
)

// DefaultTTLCeiling is the hard cap spec.md §4.6 puts on both positive and
// negative answers, regardless of what the platform resolver or upstream
// DNS server would otherwise cache for.
const DefaultTTLCeiling = time.Second

// entry is a cached answer. A non-nil err means a negative-cache entry: a
// prior lookup failed and the failure itself is cached for ttlCeiling so a
// downed backend hostname doesn't cause a resolver call per connection
// attempt.
type entry struct {
	addrs     []net.IPAddr
	err       error
	expiresAt time.Time
}

// lookupFunc matches net.Resolver.LookupIPAddr's signature, so tests can
// substitute a fake without a real network lookup.
type lookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Resolver caches LookupIPAddr results for at most ttlCeiling, irrespective
// of the platform's own TTL handling, so that a backend's DNS record change
// is visible within one ceiling interval.
type Resolver struct {
	ttlCeiling time.Duration
	lookup     lookupFunc

	mu      sync.RWMutex
	entries map[string]*entry
}

// NewResolver creates a Resolver that caches answers for at most
// ttlCeiling. A ttlCeiling <= 0 uses DefaultTTLCeiling.
func NewResolver(ttlCeiling time.Duration) *Resolver {
	if ttlCeiling <= 0 {
		ttlCeiling = DefaultTTLCeiling
	}
	netResolver := &net.Resolver{}
	return &Resolver{
		ttlCeiling: ttlCeiling,
		lookup:     netResolver.LookupIPAddr,
		entries:    make(map[string]*entry),
	}
}

// LookupIPAddr resolves host, serving a cached answer (positive or
// negative) when one is still within the TTL ceiling.
func (r *Resolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if addrs, err, ok := r.cached(host); ok {
		return addrs, err
	}

	addrs, err := r.lookup(ctx, host)

	r.mu.Lock()
	r.entries[host] = &entry{
		addrs:     addrs,
		err:       err,
		expiresAt: time.Now().Add(r.ttlCeiling),
	}
	r.mu.Unlock()

	return addrs, err
}

func (r *Resolver) cached(host string) (addrs []net.IPAddr, err error, ok bool) {
	r.mu.RLock()
	e, found := r.entries[host]
	r.mu.RUnlock()

	if !found || time.Now().After(e.expiresAt) {
		return nil, nil, false
	}
	return e.addrs, e.err, true
}

// Forget evicts any cached answer for host, forcing the next LookupIPAddr
// to hit the platform resolver.
func (r *Resolver) Forget(host string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, host)
}

// Close releases cached state. The Resolver has no background goroutine to
// stop; Close exists so callers can treat it uniformly with other shared
// services torn down during ProxyService shutdown (spec.md §4.7).
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*entry)
	return nil
}
