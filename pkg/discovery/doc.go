// Package discovery provides the broker discovery provider spec.md
// describes as an external collaborator: listActiveBrokers() and
// leastLoadedBroker(), consumed by the lookup path (pkg/lookupproxy) to
// decide which backend broker owns a topic.
//
// spec.md treats discovery purely as an interface the core consumes; this
// package supplies a concrete, pluggable reference implementation so the
// proxy is runnable end to end, grounded on the teacher's pkg/routing
// package: the same Strategy interface shape, the same decorator
// composition (health filtering wraps a selection strategy rather than
// being its own strategy), and the same sticky-cache idiom, retargeted from
// selecting an LLM provider per request to selecting a broker per topic.
package discovery
