package lookupproxy

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"mercator-hq/brokerproxy/pkg/admission"
	"mercator-hq/brokerproxy/pkg/discovery"
	"mercator-hq/brokerproxy/pkg/identity"
	"mercator-hq/brokerproxy/pkg/proto"
)

// Metrics is the slice of counters lookupproxy updates. Shaped like
// proxyconn.Metrics so one implementation in pkg/telemetry can satisfy
// both without either package importing the other.
type Metrics interface {
	IncBinaryOps(n uint64)
}

// Config tunes dialing and identity behavior of a Handler.
type Config struct {
	// DialTimeout bounds the outbound connection to the selected broker.
	DialTimeout time.Duration

	// RequestTimeout bounds the full dial-handshake-forward-reply round
	// trip, independent of DialTimeout (spec §4.4: "a bounded round trip,
	// not held open").
	RequestTimeout time.Duration

	// ProxyProtocolVersion is the protocol version the proxy presents in
	// its own Connect handshake to the backend broker.
	ProxyProtocolVersion int32

	// AdvertisedServiceURL is the proxy's own service URL, substituted
	// into the brokerServiceUrl of every lookup reply the proxy forwards
	// to the client (spec §4.4: "translate the broker's reply so that any
	// brokerServiceUrl points back at the proxy's service URL").
	AdvertisedServiceURL string
}

// Handler implements proxyconn.LookupHandler: it answers Lookup,
// PartitionedMetadata, GetSchema and GetOrCreateSchema commands by gating on
// a shared admission semaphore, selecting a backend broker, and forwarding
// the request with the connection's principal attached.
type Handler struct {
	semaphore  *admission.Semaphore
	discovery  discovery.Provider
	authorizer identity.Authorizer
	metrics    Metrics
	cfg        Config
}

// NewHandler builds a Handler. authorizer and metrics may be nil to disable
// authorization checks and metrics updates respectively.
func NewHandler(semaphore *admission.Semaphore, disc discovery.Provider, authorizer identity.Authorizer, metrics Metrics, cfg Config) *Handler {
	return &Handler{
		semaphore:  semaphore,
		discovery:  disc,
		authorizer: authorizer,
		metrics:    metrics,
		cfg:        cfg,
	}
}

// HandleLookup implements proxyconn.LookupHandler. It always returns a
// non-nil frame header: either the rewritten broker reply or a locally
// synthesized Error reply, so the caller never needs to special-case a nil
// result (spec §7: "every request that entered the lookup path receives
// exactly one reply").
func (h *Handler) HandleLookup(ctx context.Context, principal identity.Principal, cmd *proto.Command) []byte {
	if !h.semaphore.Acquire() {
		return errorHeader(cmd.RequestID, proto.ErrorKindTooManyRequests, "too many concurrent lookup requests")
	}
	defer h.semaphore.Release()

	if h.authorizer != nil && !h.authorizer.Authorize(ctx, principal, cmd.Topic, identity.ActionLookup) {
		return errorHeader(cmd.RequestID, proto.ErrorKindAuthorizationError, "not authorized to look up "+cmd.Topic)
	}

	broker, err := h.selectBroker(ctx)
	if err != nil {
		return errorHeader(cmd.RequestID, proto.ErrorKindServiceNotReady, err.Error())
	}

	reply, err := h.forward(ctx, broker, principal, cmd)
	if err != nil {
		return errorHeader(cmd.RequestID, proto.ErrorKindMetadataError, err.Error())
	}

	if h.metrics != nil {
		h.metrics.IncBinaryOps(1)
	}

	header, err := proto.EncodeCommand(reply)
	if err != nil {
		return errorHeader(cmd.RequestID, proto.ErrorKindUnknownError, err.Error())
	}
	return header
}

// selectBroker picks the backend to forward a lookup, metadata, or schema
// request to. discovery.Provider exposes no per-topic ownership lookup, so
// every lookup kind is routed through the least-loaded broker uniformly
// rather than the owning broker; exact topic-ownership routing is out of
// scope (spec §9 open question — resolved this way since the proxy never
// tracks topic-to-broker assignment itself).
func (h *Handler) selectBroker(ctx context.Context) (discovery.Broker, error) {
	return h.discovery.LeastLoadedBroker(ctx)
}

// forward opens a short-lived connection to broker, performs the proxy's
// own Connect handshake, forwards cmd with the client's principal attached
// as OriginalPrincipal, and returns the decoded reply rewritten to point
// back at the proxy (spec §4.4).
func (h *Handler) forward(ctx context.Context, broker discovery.Broker, principal identity.Principal, cmd *proto.Command) (*proto.Command, error) {
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	host, port, err := parseServiceURL(broker.ServiceURL)
	if err != nil {
		return nil, fmt.Errorf("lookupproxy: broker %s: %w", broker.Name, err)
	}
	address := net.JoinHostPort(host, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: h.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("lookupproxy: dial %s: %w", address, err)
	}
	defer conn.Close()

	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	}

	if err := h.handshake(conn, principal); err != nil {
		return nil, fmt.Errorf("lookupproxy: handshake with %s: %w", address, err)
	}

	forwarded := *cmd
	forwarded.OriginalPrincipal = principal.Name
	header, err := proto.EncodeCommand(&forwarded)
	if err != nil {
		return nil, err
	}
	if err := proto.WriteFrame(conn, header, nil); err != nil {
		return nil, fmt.Errorf("lookupproxy: forward request to %s: %w", address, err)
	}

	frame, err := proto.ReadFrame(bufio.NewReader(conn))
	if err != nil {
		return nil, fmt.Errorf("lookupproxy: read reply from %s: %w", address, err)
	}
	reply, err := proto.DecodeCommand(frame.Header)
	if err != nil {
		return nil, err
	}
	if reply.Name == proto.CmdError {
		return nil, fmt.Errorf("lookupproxy: broker replied %s: %s", reply.ReplyErrorKind, reply.ReplyErrorMessage)
	}

	reply.RequestID = cmd.RequestID
	reply.BrokerServiceURL = h.cfg.AdvertisedServiceURL
	reply.ProxyThroughServiceURL = true
	return reply, nil
}

// handshake performs the proxy's own Connect/Connected round trip with the
// backend broker, propagating the client's principal as OriginalPrincipal
// on the proxy's own credentials (spec §4.4: "the proxy's credentials plus
// the original client's principal propagated as originalPrincipal").
func (h *Handler) handshake(backend net.Conn, principal identity.Principal) error {
	header, err := proto.EncodeCommand(&proto.Command{
		Name:              proto.CmdConnect,
		ProtocolVersion:   h.cfg.ProxyProtocolVersion,
		OriginalPrincipal: principal.Name,
	})
	if err != nil {
		return err
	}
	if err := proto.WriteFrame(backend, header, nil); err != nil {
		return err
	}

	frame, err := proto.ReadFrame(bufio.NewReader(backend))
	if err != nil {
		return err
	}
	reply, err := proto.DecodeCommand(frame.Header)
	if err != nil {
		return err
	}
	if reply.Name != proto.CmdConnected {
		return fmt.Errorf("lookupproxy: backend replied %s to Connect, want Connected", reply.Name)
	}
	return nil
}

func errorHeader(requestID uint64, kind proto.ErrorKind, message string) []byte {
	return proto.EncodeCommandError(proto.NewCommandError(requestID, kind, message))
}

func parseServiceURL(raw string) (host string, port int, err error) {
	if raw == "" {
		return "", 0, fmt.Errorf("empty broker service URL")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", 0, fmt.Errorf("invalid broker service URL %q", raw)
	}
	h, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return "", 0, fmt.Errorf("broker service URL %q has no port", raw)
	}
	p, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port in %q", raw)
	}
	return h, p, nil
}
