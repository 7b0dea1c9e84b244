// Package topicstats tracks per-topic byte and message counters and derives
// a rolling one-minute rate from them, as described in spec.md §3's
// TopicStats and §4's metrics design.
//
// The registry is a concurrent map keyed by topic name, grounded on the
// teacher's pkg/limits/storage.MemoryBackend (LRU eviction once a configured
// entry cap is reached, guarded by a single sync.RWMutex). Each entry's rate
// is computed by the same fixed-bucket rolling-window idiom as the teacher's
// pkg/limits/budget.RollingWindow, reduced to a single one-minute bucket
// since spec.md only asks for a 60s-schedule rate, not a multi-granularity
// window.
//
// Unlike the teacher's budget tracker, entries here are evicted on an LRU
// basis rather than left to grow without bound — see DESIGN.md's "Open
// Question decisions" for why unbounded growth (the literal source
// behavior) was rejected in favor of a capped registry.
package topicstats
