package proxyconn

import (
	"bufio"
	"context"
	stdtls "crypto/tls"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"mercator-hq/brokerproxy/pkg/identity"
	"mercator-hq/brokerproxy/pkg/ioloop"
	"mercator-hq/brokerproxy/pkg/proto"
	tlsidentity "mercator-hq/brokerproxy/pkg/security/tls"
)

// ProxyConnection is one per inbound client socket (spec §3). Everything
// under mu is mutated only from a Task submitted to worker; Serve and the
// splice handoff read state through the accessor methods, never the
// field directly, so a future refactor that adds more confined fields
// can't reintroduce an unsynchronized read by accident.
type ProxyConnection struct {
	id         uint64
	remoteAddr string
	conn       net.Conn
	reader     *bufio.Reader
	worker     *ioloop.Worker
	deps       Deps

	mu              sync.Mutex
	state           State
	principal       identity.Principal
	protocolVersion int32
	authMethod      string
	brokerTarget    string

	inboundBytes atomic.Uint64
	inboundOps   atomic.Uint64

	closeOnce sync.Once
}

// New creates a ProxyConnection bound to worker for an already-admitted,
// already-TLS-terminated socket (spec §4.1 step 2). It does not start
// reading; call Serve to run the connection to completion.
func New(id uint64, conn net.Conn, worker *ioloop.Worker, deps Deps) *ProxyConnection {
	return &ProxyConnection{
		id:         id,
		remoteAddr: conn.RemoteAddr().String(),
		conn:       conn,
		reader:     bufio.NewReader(conn),
		worker:     worker,
		deps:       deps,
		state:      StateInit,
	}
}

func (c *ProxyConnection) ID() uint64         { return c.id }
func (c *ProxyConnection) RemoteAddr() string { return c.remoteAddr }
func (c *ProxyConnection) Conn() net.Conn     { return c.conn }

func (c *ProxyConnection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *ProxyConnection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Principal returns the authenticated identity, or the zero Principal if
// authentication is disabled or has not completed.
func (c *ProxyConnection) Principal() identity.Principal {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.principal
}

// BrokerTarget returns the service URL selected for the current (or
// most recent) data-plane splice attempt.
func (c *ProxyConnection) BrokerTarget() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.brokerTarget
}

func (c *ProxyConnection) InboundBytes() uint64 { return c.inboundBytes.Load() }
func (c *ProxyConnection) InboundOps() uint64   { return c.inboundOps.Load() }

// WriteCommand encodes and writes cmd as a reply frame. Exported so a
// BrokerDialer can write replies (e.g. the rewritten Connected echo) with
// the same codec the state machine uses.
func (c *ProxyConnection) WriteCommand(cmd *proto.Command) error {
	header, err := proto.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	return proto.WriteFrame(c.conn, header, nil)
}

// WriteError writes an Error command carrying requestID, so the client
// can correlate the failure with the request that caused it.
func (c *ProxyConnection) WriteError(requestID uint64, kind proto.ErrorKind, message string) error {
	header := proto.EncodeCommandError(proto.NewCommandError(requestID, kind, message))
	return proto.WriteFrame(c.conn, header, nil)
}

// Close tears the connection down; safe to call more than once and from
// any goroutine (spec §8, "closing an already-closed ProxyConnection is a
// no-op").
func (c *ProxyConnection) Close() {
	c.closeOnce.Do(func() {
		c.setState(StateClosing)
		c.conn.Close()
		c.setState(StateClosed)
		if c.deps.OnClose != nil {
			c.deps.OnClose(c)
		}
	})
}

// Serve reads frames until the connection closes or hands itself off to
// splice mode. Each frame's state-mutating handling runs as a Task on the
// owning worker (confinement); Serve itself — and the eventual splice
// pump — run on the caller's goroutine, which must be a goroutine
// dedicated to this connection, not the worker's own loop, so a
// long-lived splice never blocks other connections pinned to the same
// worker (spec §5's per-worker cooperative loop, reinterpreted under Go's
// goroutine scheduler: the worker owns quick state transitions, not
// blocking I/O).
func (c *ProxyConnection) Serve(ctx context.Context) {
	defer c.Close()

	if tlsConn, ok := c.conn.(*stdtls.Conn); ok {
		if state := tlsConn.ConnectionState(); len(state.PeerCertificates) > 0 {
			ctx = tlsidentity.ContextWithPeerCertificate(ctx, state.PeerCertificates[0])
		}
	}

	for {
		if c.deps.IdleTimeout > 0 {
			c.conn.SetReadDeadline(time.Now().Add(c.deps.IdleTimeout))
		}

		frame, err := proto.ReadFrame(c.reader)
		if err != nil {
			return
		}
		cmd, err := proto.DecodeCommand(frame.Header)
		if err != nil {
			return
		}
		if len(frame.Payload) > 0 {
			// Trailing payload bytes (e.g. a Send body) aren't part of the
			// header codec; fold them into Raw so a forwarding collaborator
			// (pkg/directproxy) can reconstruct the full command.
			cmd.Raw = append(cmd.Raw, frame.Payload...)
		}

		frameBytes := uint64(8 + frame.CommandSize + len(frame.Payload))
		c.inboundOps.Add(1)
		c.inboundBytes.Add(frameBytes)
		if c.deps.Metrics != nil {
			c.deps.Metrics.IncBinaryOps(1)
			c.deps.Metrics.AddBinaryBytes(frameBytes)
		}

		done := make(chan struct{})
		submitted := c.worker.Submit(func() {
			defer close(done)
			c.handle(ctx, cmd)
		})
		if !submitted {
			return
		}
		<-done

		switch c.State() {
		case StateProxyConnectingToBroker:
			if !c.runSplice(ctx, cmd) {
				return
			}
			// runSplice reset the state back to ProxyLookupRequests on a
			// recoverable rejection; keep reading frames.
		case StateClosing, StateClosed:
			return
		}
	}
}

// runSplice blocks for the lifetime of the backend dial and pump. It
// returns false when the connection should stop being served (the splice
// either succeeded and ran to completion, or the dialer itself failed
// fatally), true when the rejection was recoverable and the caller
// should keep reading client frames.
func (c *ProxyConnection) runSplice(ctx context.Context, trigger *proto.Command) bool {
	err := c.deps.Broker.StartSplice(ctx, c, trigger)
	if err == nil {
		c.setState(StateClosing)
		return false
	}

	if !errors.Is(err, ErrSpliceRejected) {
		c.setState(StateClosing)
		return false
	}

	done := make(chan struct{})
	submitted := c.worker.Submit(func() {
		defer close(done)
		c.WriteError(trigger.RequestID, proto.ErrorKindServiceNotReady, err.Error())
		c.setState(StateProxyLookupRequests)
	})
	if !submitted {
		return false
	}
	<-done
	return true
}

// handle dispatches one decoded command according to the current state.
// It runs confined to the connection's worker.
func (c *ProxyConnection) handle(ctx context.Context, cmd *proto.Command) {
	switch c.State() {
	case StateInit:
		c.handleInit(ctx, cmd)
	case StateConnecting:
		c.handleConnecting(ctx, cmd)
	case StateConnected, StateProxyLookupRequests:
		c.handleConnected(ctx, cmd)
	default:
		// ProxyConnectingToBroker / ProxyConnectionToEndpoint / Closing /
		// Closed never reach handle: Serve intercepts before reading the
		// next frame in those states.
	}
}

func (c *ProxyConnection) handleInit(ctx context.Context, cmd *proto.Command) {
	if cmd.Name != proto.CmdConnect {
		c.protocolError(cmd.RequestID)
		return
	}
	c.protocolVersion = cmd.ProtocolVersion
	c.authMethod = cmd.AuthMethodName
	c.runAuth(ctx, cmd.RequestID, cmd.AuthMethodName, cmd.AuthData)
}

func (c *ProxyConnection) handleConnecting(ctx context.Context, cmd *proto.Command) {
	if cmd.Name != proto.CmdAuthResponse {
		c.protocolError(cmd.RequestID)
		return
	}
	c.runAuth(ctx, cmd.RequestID, c.authMethod, cmd.AuthData)
}

// runAuth drives one round of the Connect/AuthResponse handshake. With no
// Authenticator configured, authentication is disabled and the
// connection proceeds straight to Connected (spec: "or auth is
// disabled").
func (c *ProxyConnection) runAuth(ctx context.Context, requestID uint64, method string, authData []byte) {
	if c.deps.Authenticator == nil {
		c.completeConnect()
		return
	}

	principal, err := c.deps.Authenticator.Authenticate(ctx, method, authData)

	var challenge *identity.ChallengeError
	switch {
	case errors.As(err, &challenge):
		c.setState(StateConnecting)
		c.WriteCommand(&proto.Command{Name: proto.CmdAuthChallenge, RequestID: requestID, AuthData: challenge.Data})
	case err != nil:
		// Do not leak whether the principal is known (spec §4.3).
		c.WriteError(requestID, proto.ErrorKindAuthenticationError, "authentication failed")
		c.Close()
	default:
		c.mu.Lock()
		c.principal = principal
		c.mu.Unlock()
		c.completeConnect()
	}
}

func (c *ProxyConnection) completeConnect() {
	c.setState(StateConnected)
	c.WriteCommand(&proto.Command{Name: proto.CmdConnected, ProtocolVersion: c.protocolVersion})
}

func (c *ProxyConnection) handleConnected(ctx context.Context, cmd *proto.Command) {
	switch {
	case cmd.Name == proto.CmdConnect:
		c.protocolError(cmd.RequestID)
	case cmd.Name == proto.CmdPing:
		c.WriteCommand(&proto.Command{Name: proto.CmdPong})
	case cmd.Name == proto.CmdCloseConsumer, cmd.Name == proto.CmdCloseProducer:
		// No session state is tracked proxy-side once control returns
		// here post-splice-teardown; nothing to acknowledge.
	case proto.IsLookup(cmd.Name):
		c.setState(StateProxyLookupRequests)
		c.dispatchLookup(ctx, cmd)
	case proto.IsDataPlane(cmd.Name):
		c.beginSplice(cmd)
	default:
		c.protocolError(cmd.RequestID)
	}
}

func (c *ProxyConnection) dispatchLookup(ctx context.Context, cmd *proto.Command) {
	if c.deps.Lookup == nil {
		c.WriteError(cmd.RequestID, proto.ErrorKindServiceNotReady, "lookup path not configured")
		return
	}
	header := c.deps.Lookup.HandleLookup(ctx, c.Principal(), cmd)
	if header != nil {
		proto.WriteFrame(c.conn, header, nil)
	}
}

func (c *ProxyConnection) beginSplice(cmd *proto.Command) {
	// Any data-plane command passes through ProxyLookupRequests first, even
	// one arriving straight out of Connected without a prior lookup.
	c.setState(StateProxyLookupRequests)

	target := cmd.BrokerServiceURL
	if target == "" {
		target = c.BrokerTarget()
	}
	if target == "" {
		c.WriteError(cmd.RequestID, proto.ErrorKindServiceNotReady, "no broker target known for data-plane command")
		return
	}
	c.mu.Lock()
	c.brokerTarget = target
	c.mu.Unlock()
	c.setState(StateProxyConnectingToBroker)
}

// EnterSplice transitions ProxyConnectingToBroker → ProxyConnectionToEndpoint.
// A BrokerDialer calls this once the backend's Connected reply arrives and
// before it starts pumping bytes (spec §4.3): from this point on the
// client-facing decoder is considered disabled.
func (c *ProxyConnection) EnterSplice() {
	c.setState(StateProxyConnectionToEndpoint)
}

func (c *ProxyConnection) protocolError(requestID uint64) {
	c.WriteError(requestID, proto.ErrorKindProtocolError, "protocol error")
	c.Close()
}
