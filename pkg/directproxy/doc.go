// Package directproxy implements the splice (data-plane) path: given the
// first data-plane command on a ProxyConnection, it validates the
// backend target, dials it, completes a broker-side Connect handshake,
// forwards the triggering command, and then pumps bytes opaquely in both
// directions until either side closes.
//
// Handler satisfies proxyconn.BrokerDialer; it is constructed once per
// ProxyService and shared across connections (egress validator, resolver,
// topic-stats registry and metrics are themselves already safe for
// concurrent use).
package directproxy
