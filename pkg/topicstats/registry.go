package topicstats

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// TopicStats is a point-in-time snapshot of a single topic's counters.
type TopicStats struct {
	Topic       string
	Bytes       int64
	Messages    int64
	BytesRate1m float64
	MsgRate1m   float64
}

// entry is the mutable state tracked per topic. Bytes/Messages are
// cumulative, lock-free counters updated on every Record call; the rate
// fields are only touched by the rollup goroutine, one at a time, so they
// need no atomics of their own.
type entry struct {
	topic string

	bytes    int64
	messages int64

	lastBytes    int64
	lastMessages int64

	bytesRate1m float64
	msgRate1m   float64

	listElem *list.Element
}

// Registry is a concurrent, capacity-bounded store of per-topic counters
// with a background rollup task that derives a one-minute rate for each
// tracked topic.
//
// Capacity is enforced by LRU eviction: when a new topic would push the
// registry past maxEntries, the least-recently-touched topic is dropped.
// "Touched" means RecordBytes/RecordMessage/Stats, not the rollup task,
// matching the spec's intent that the cap bounds distinct *active* topics.
type Registry struct {
	mu         sync.Mutex
	entries    map[string]*entry
	order      *list.List // front = most recently used
	maxEntries int

	rollupInterval time.Duration
	stopCh         chan struct{}
	stopOnce       sync.Once
}

// NewRegistry creates a Registry that tracks at most maxEntries topics,
// rolling up rates every rollupInterval. A maxEntries of 0 means unbounded.
func NewRegistry(maxEntries int, rollupInterval time.Duration) *Registry {
	if rollupInterval <= 0 {
		rollupInterval = time.Minute
	}
	return &Registry{
		entries:        make(map[string]*entry),
		order:          list.New(),
		maxEntries:     maxEntries,
		rollupInterval: rollupInterval,
		stopCh:         make(chan struct{}),
	}
}

// Start runs the rollup loop in a background goroutine until Close is called.
func (r *Registry) Start() {
	go r.rollupLoop()
}

// Close stops the rollup loop. It is safe to call more than once.
func (r *Registry) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// RecordBytes adds n bytes to topic's cumulative byte counter, creating the
// entry (and possibly evicting the LRU victim) if it doesn't exist yet.
func (r *Registry) RecordBytes(topic string, n int64) {
	e := r.touch(topic)
	atomic.AddInt64(&e.bytes, n)
}

// RecordMessage adds n messages to topic's cumulative message counter.
func (r *Registry) RecordMessage(topic string, n int64) {
	e := r.touch(topic)
	atomic.AddInt64(&e.messages, n)
}

// Stats returns a snapshot of topic's counters, or ok=false if the topic is
// not currently tracked.
func (r *Registry) Stats(topic string) (TopicStats, bool) {
	r.mu.Lock()
	e, ok := r.entries[topic]
	if ok {
		r.order.MoveToFront(e.listElem)
	}
	r.mu.Unlock()
	if !ok {
		return TopicStats{}, false
	}
	return TopicStats{
		Topic:       topic,
		Bytes:       atomic.LoadInt64(&e.bytes),
		Messages:    atomic.LoadInt64(&e.messages),
		BytesRate1m: e.bytesRate1m,
		MsgRate1m:   e.msgRate1m,
	}, true
}

// Len returns the number of topics currently tracked.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// touch returns the entry for topic, creating it (and evicting the LRU
// victim if at capacity) and marking it most-recently-used.
func (r *Registry) touch(topic string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[topic]; ok {
		r.order.MoveToFront(e.listElem)
		return e
	}

	if r.maxEntries > 0 && len(r.entries) >= r.maxEntries {
		r.evictOldestLocked()
	}

	e := &entry{topic: topic}
	e.listElem = r.order.PushFront(e)
	r.entries[topic] = e
	return e
}

func (r *Registry) evictOldestLocked() {
	oldest := r.order.Back()
	if oldest == nil {
		return
	}
	victim := oldest.Value.(*entry)
	r.order.Remove(oldest)
	delete(r.entries, victim.topic)
}

func (r *Registry) rollupLoop() {
	ticker := time.NewTicker(r.rollupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.rollup()
		case <-r.stopCh:
			return
		}
	}
}

// rollup computes each tracked entry's rate over the elapsed interval from
// the delta against the last rollup's cumulative counters.
func (r *Registry) rollup() {
	seconds := r.rollupInterval.Seconds()
	if seconds <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		bytes := atomic.LoadInt64(&e.bytes)
		messages := atomic.LoadInt64(&e.messages)

		e.bytesRate1m = float64(bytes-e.lastBytes) / seconds
		e.msgRate1m = float64(messages-e.lastMessages) / seconds

		e.lastBytes = bytes
		e.lastMessages = messages
	}
}
