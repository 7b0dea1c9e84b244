// Package proxyconn implements the per-client-socket protocol state
// machine: Init, Connecting, Connected, ProxyLookupRequests,
// ProxyConnectingToBroker, ProxyConnectionToEndpoint, Closing, Closed.
//
// A ProxyConnection is confined to the ioloop.Worker it was assigned at
// accept time: state-mutating work runs as a Task submitted to that
// worker, never directly from the Serve goroutine, so the invariant "no
// other thread mutates it except via scheduled tasks on that same worker"
// holds without a connection-wide lock. The blocking parts — reading
// frames off the socket, and the splice pump once a data-plane command
// arrives — run on the Serve goroutine itself (and the goroutines the
// BrokerDialer spawns for the pump), not on the shared worker, so one
// long-lived splice never starves the other connections pinned to the
// same worker.
//
// This package owns the state machine and the Connect/AuthResponse
// handshake; it delegates the two heavy paths to collaborators supplied
// at construction: LookupHandler services the control-plane lookup
// commands, and BrokerDialer opens and pumps the backend splice. Neither
// collaborator is implemented here, matching the source's component
// boundary (lookup proxy handler and direct proxy handler are separate
// components).
package proxyconn
