package discovery

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// RefreshFunc fetches the current broker set from whatever external source
// backs discovery (a metadata store, a control-plane API, a static list).
// It is called once at construction and again on every refresh tick.
type RefreshFunc func(ctx context.Context) ([]Broker, error)

// StaticProvider is the reference Provider implementation: it holds an
// in-memory broker set refreshed on a timer by a pluggable RefreshFunc.
// Passing a RefreshFunc that always returns the same fixed list implements
// the "manual"/static discovery strategy from SPEC_FULL.md's
// discovery.staticBrokers configuration; passing one that queries a real
// metadata store implements live discovery with the same refresh loop.
type StaticProvider struct {
	refresh  RefreshFunc
	interval time.Duration

	mu      sync.RWMutex
	brokers []Broker

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStaticProvider creates a StaticProvider, performing one synchronous
// refresh before returning so ListActiveBrokers has data immediately.
func NewStaticProvider(ctx context.Context, refresh RefreshFunc, interval time.Duration) (*StaticProvider, error) {
	p := &StaticProvider{
		refresh:  refresh,
		interval: interval,
		stopCh:   make(chan struct{}),
	}

	brokers, err := refresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("discovery: initial broker refresh failed: %w", err)
	}
	p.brokers = brokers

	if interval > 0 {
		go p.refreshLoop()
	}

	return p, nil
}

// ListActiveBrokers returns the most recently refreshed broker set.
func (p *StaticProvider) ListActiveBrokers(ctx context.Context) ([]Broker, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Broker, len(p.brokers))
	copy(out, p.brokers)
	return out, nil
}

// LeastLoadedBroker returns the healthy broker with the lowest LoadScore.
func (p *StaticProvider) LeastLoadedBroker(ctx context.Context) (Broker, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var best Broker
	found := false
	for _, b := range p.brokers {
		if !b.Healthy {
			continue
		}
		if !found || b.LoadScore < best.LoadScore {
			best = b
			found = true
		}
	}
	if !found {
		return Broker{}, fmt.Errorf("discovery: no healthy brokers available")
	}
	return best, nil
}

// Close stops the refresh loop. Safe to call more than once.
func (p *StaticProvider) Close() error {
	p.stopOnce.Do(func() { close(p.stopCh) })
	return nil
}

func (p *StaticProvider) refreshLoop() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.doRefresh()
		case <-p.stopCh:
			return
		}
	}
}

func (p *StaticProvider) doRefresh() {
	brokers, err := p.refresh(context.Background())
	if err != nil {
		// A failed refresh keeps serving the last known-good broker set
		// rather than going empty; the caller's metrics/logging layer is
		// expected to surface the error if refresh is wired to one.
		return
	}
	p.mu.Lock()
	p.brokers = brokers
	p.mu.Unlock()
}
