package directproxy

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"mercator-hq/brokerproxy/pkg/egress"
	"mercator-hq/brokerproxy/pkg/proto"
	"mercator-hq/brokerproxy/pkg/proxyconn"
	"mercator-hq/brokerproxy/pkg/resolver"
	"mercator-hq/brokerproxy/pkg/topicstats"
)

// Metrics is the slice of counters directproxy updates per splice. Shaped
// identically to proxyconn.Metrics so one implementation in pkg/telemetry
// can satisfy both without either package importing the other.
type Metrics interface {
	AddBinaryBytes(n uint64)
}

// Config tunes the dial and buffering behavior of a Handler.
type Config struct {
	// DialTimeout bounds the outbound TCP connect and broker handshake.
	// Zero means no timeout.
	DialTimeout time.Duration

	// TLSConfig, if non-nil, is used to dial the backend over TLS. Nil
	// means a plaintext backend connection.
	TLSConfig *tls.Config

	// MinBufferSize/MaxBufferSize bound the adaptive pump buffer (spec
	// §4.5: "a fixed-size adaptive buffer (starting 1 KiB, max 1 MiB)").
	MinBufferSize int
	MaxBufferSize int

	// ProxyProtocolVersion is the protocol version the proxy presents in
	// its own Connect handshake to the backend broker.
	ProxyProtocolVersion int32

	// ZeroCopyEnabled attempts the Linux splice(2) zero-copy fast path
	// for TCP-to-TCP pumps (spec §4.5: "Zero-copy transport is used when
	// the underlying OS and socket family support it"). It is silently
	// ignored on other platforms or connection types, falling back to the
	// buffered copy.
	ZeroCopyEnabled bool
}

func (c Config) withDefaults() Config {
	if c.MinBufferSize <= 0 {
		c.MinBufferSize = 1024
	}
	if c.MaxBufferSize <= 0 {
		c.MaxBufferSize = 1 << 20
	}
	return c
}

// Handler implements proxyconn.BrokerDialer: it validates, dials, and
// splices the backend half of a connection that has just received its
// first data-plane command. One Handler is shared across every connection
// a ProxyService owns.
type Handler struct {
	validator  *egress.Validator
	resolver   *resolver.Resolver
	topicStats *topicstats.Registry
	metrics    Metrics
	cfg        Config
}

// NewHandler builds a Handler. topicStats and metrics may be nil to
// disable per-topic tracking and metrics updates respectively.
func NewHandler(validator *egress.Validator, res *resolver.Resolver, topicStats *topicstats.Registry, metrics Metrics, cfg Config) *Handler {
	return &Handler{
		validator:  validator,
		resolver:   res,
		topicStats: topicStats,
		metrics:    metrics,
		cfg:        cfg.withDefaults(),
	}
}

// StartSplice implements proxyconn.BrokerDialer.
func (h *Handler) StartSplice(ctx context.Context, conn *proxyconn.ProxyConnection, trigger *proto.Command) error {
	target := trigger.BrokerServiceURL
	if target == "" {
		target = conn.BrokerTarget()
	}

	host, port, err := parseServiceURL(target)
	if err != nil {
		return fmt.Errorf("%w: %v", proxyconn.ErrSpliceRejected, err)
	}

	addrs, err := h.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %v", proxyconn.ErrSpliceRejected, host, err)
	}

	resolved := make([]net.IP, len(addrs))
	for i, a := range addrs {
		resolved[i] = a.IP
	}

	if err := h.validator.Validate(host, resolved, port); err != nil {
		return fmt.Errorf("%w: %v", proxyconn.ErrSpliceRejected, err)
	}

	address := net.JoinHostPort(resolved[0].String(), strconv.Itoa(port))

	backend, err := h.dial(ctx, address)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", proxyconn.ErrSpliceRejected, address, err)
	}

	if err := h.handshake(backend); err != nil {
		backend.Close()
		return fmt.Errorf("%w: backend handshake with %s: %v", proxyconn.ErrSpliceRejected, address, err)
	}

	conn.EnterSplice()
	defer backend.Close()

	if err := forward(backend, trigger); err != nil {
		return fmt.Errorf("%w: forward triggering command: %v", proxyconn.ErrSpliceRejected, err)
	}

	topic := trigger.Topic
	if topic == "" {
		topic = trigger.ProducerTopic
	}

	return h.pump(conn.Conn(), backend, topic)
}

func (h *Handler) dial(ctx context.Context, address string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: h.cfg.DialTimeout}
	if h.cfg.TLSConfig != nil {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: h.cfg.TLSConfig}
		return tlsDialer.DialContext(ctx, "tcp", address)
	}
	return dialer.DialContext(ctx, "tcp", address)
}

// handshake performs the proxy's own Connect/Connected round trip with the
// backend broker before any client command is forwarded (spec §4.3:
// "ProxyConnectingToBroker → ProxyConnectionToEndpoint when the backend
// Connected reply is received").
func (h *Handler) handshake(backend net.Conn) error {
	header, err := proto.EncodeCommand(&proto.Command{
		Name:            proto.CmdConnect,
		ProtocolVersion: h.cfg.ProxyProtocolVersion,
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
		return fmt.Errorf("directproxy: backend replied %s to Connect, want Connected", reply.Name)
	}
	return nil
}

func forward(backend net.Conn, cmd *proto.Command) error {
	header, err := proto.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return proto.WriteFrame(backend, header, nil)
}

func parseServiceURL(raw string) (host string, port int, err error) {
	if raw == "" {
		return "", 0, fmt.Errorf("directproxy: empty broker service URL")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", 0, fmt.Errorf("directproxy: invalid broker service URL %q", raw)
	}
	h, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		return "", 0, fmt.Errorf("directproxy: broker service URL %q has no port", raw)
	}
	p, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("directproxy: invalid port in %q", raw)
	}
	return h, p, nil
}
