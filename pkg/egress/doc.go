// Package egress implements the BrokerProxyValidator described in spec.md
// §4.5: a (hostname, resolved IP, port) allow-list gate that every
// direct-proxy splice target must satisfy before the proxy opens a socket
// to it. All three lists default to empty, meaning deny-all, per spec.md
// §6.
//
// Hostname matching uses glob patterns (github.com/gobwas/glob, already
// present in the example pack's dependency graph) rather than a hand-rolled
// matcher. IP and port matching use the standard library's net.ParseCIDR
// and plain integer range parsing: no example repo reaches for a
// third-party library for either, since both are exactly what net and
// strconv already solve well.
package egress
