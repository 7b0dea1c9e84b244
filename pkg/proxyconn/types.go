package proxyconn

import (
	"context"
	"errors"
	"time"

	"mercator-hq/brokerproxy/pkg/identity"
	"mercator-hq/brokerproxy/pkg/proto"
)

// ErrSpliceRejected is returned by a BrokerDialer when the target could
// not be spliced to — egress validation failure, DNS failure, or a
// backend that refused the connection. The connection stays alive in
// ProxyLookupRequests rather than closing (spec §4.3, §4.5, §7: "DNS
// failure for a splice target: error the first data-plane request, keep
// the client in ProxyLookupRequests").
var ErrSpliceRejected = errors.New("proxyconn: splice target rejected")

// LookupHandler services Lookup, PartitionedMetadata, GetSchema and
// GetOrCreateSchema commands on behalf of a connection's principal. It
// owns acquiring and releasing its own concurrency permit and is
// responsible for producing a fully encoded reply (a LookupResponse or
// Error command header) for every call — it never returns without
// something to write back, so the permit is never left held across a
// dropped reply.
type LookupHandler interface {
	HandleLookup(ctx context.Context, principal identity.Principal, cmd *proto.Command) []byte
}

// BrokerDialer opens (or reuses) the backend connection selected for the
// first data-plane command, and — on success — owns the bidirectional
// pump for the remainder of the connection's life, blocking until the
// splice ends. Returning nil means the splice ran to completion (either
// side closed); the ProxyConnection transitions to Closing. Returning
// ErrSpliceRejected (or a wrapped form of it) means the target could not
// be reached; the triggering request is replied to with an error and the
// connection resumes servicing lookups.
type BrokerDialer interface {
	StartSplice(ctx context.Context, conn *ProxyConnection, cmd *proto.Command) error
}

// Metrics is the narrow slice of counters proxyconn updates directly, per
// frame. Connection admission counters (new/rejected/active) are owned by
// the accepting layer, not by the connection itself.
type Metrics interface {
	IncBinaryOps(n uint64)
	AddBinaryBytes(n uint64)
}

// Deps are the collaborators and configuration a ProxyConnection needs at
// construction. Authenticator may be nil to disable authentication
// entirely (spec: "or auth is disabled").
type Deps struct {
	Authenticator identity.Authenticator
	Lookup        LookupHandler
	Broker        BrokerDialer
	Metrics       Metrics

	// IdleTimeout, if non-zero, closes the connection after this long
	// without a complete inbound frame (spec §5, "idle-connection timeout
	// (optional)").
	IdleTimeout    time.Duration

	// OnClose is invoked exactly once, after the socket is closed and the
	// state reaches Closed, so the owner can drop the connection from its
	// live set and release its admission slot (spec §4.3, "removed from
	// the live set; the per-IP counter is decremented").
	OnClose func(*ProxyConnection)
}
