// Package admission implements the connection-admission and lookup-request
// concurrency gates described in spec §4.1 and §4.4: a global inbound
// connection cap, a per-source-IP cap, and a semaphore shared by topic and
// schema lookups.
//
// All three are lock-free counting semaphores built on the same
// atomic-increment-then-check idiom as the teacher's
// pkg/limits/ratelimit.ConcurrentLimiter, generalized here to key the
// per-IP cap off a map instead of a single counter.
package admission
