package admission

import "sync/atomic"

// Semaphore is a lock-free counting semaphore, used directly for the
// lookup-request concurrency gate (spec §4.4) and embedded in
// ConnectionController for the global connection cap.
//
// A zero-value Semaphore (limit 0) rejects every Acquire call, matching
// spec §8's requirement that maxConcurrentLookupRequests=0 or
// maxConcurrentInboundConnections=0 reject everything rather than being
// treated as "unlimited".
type Semaphore struct {
	limit   int64
	current int64
}

// NewSemaphore creates a Semaphore that admits at most limit concurrent
// holders.
func NewSemaphore(limit int) *Semaphore {
	return &Semaphore{limit: int64(limit)}
}

// Acquire attempts to take a permit. It returns true if the permit was
// granted; the caller must call Release exactly once for each successful
// Acquire.
func (s *Semaphore) Acquire() bool {
	current := atomic.AddInt64(&s.current, 1)
	if current > s.limit {
		atomic.AddInt64(&s.current, -1)
		return false
	}
	return true
}

// Release returns a previously acquired permit.
func (s *Semaphore) Release() {
	atomic.AddInt64(&s.current, -1)
}

// Current returns the number of permits currently held.
func (s *Semaphore) Current() int64 {
	return atomic.LoadInt64(&s.current)
}

// Limit returns the configured permit count.
func (s *Semaphore) Limit() int64 {
	return atomic.LoadInt64(&s.limit)
}
