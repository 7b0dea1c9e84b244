// Package resolver provides a DNS resolver that caches A/AAAA answers with a
// hard TTL ceiling, per spec.md §4.6: "forces both [positive and negative
// TTL] down to short values (1 s) so that backend rotations are picked up."
//
// The cache shape (expiring entries, TTL-based eviction, a Clear/Delete
// escape hatch) is grounded on the teacher's pkg/security/secrets.Cache; the
// lookup itself uses the standard library's net.Resolver, since no example
// repo vendors a DNS client and the platform resolver is exactly what the
// spec wants capped, not replaced.
package resolver
