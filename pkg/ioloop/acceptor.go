package ioloop

import (
	"errors"
	"net"
	"sync"
)

// ConnHandler is invoked on its own dedicated goroutine for each accepted
// connection, paired with the Worker it was assigned to for task
// confinement.
type ConnHandler func(conn net.Conn, worker *Worker)

// Acceptor owns a listening socket and hands each accepted connection off
// to an I/O worker pool by round-robin, per spec.md §5's "a separate
// acceptor pool owns only the listening sockets" model. A single Acceptor
// corresponds to one of numAcceptorThreads; running numAcceptorThreads > 1
// on the same listener is supported since net.Listener.Accept is safe for
// concurrent callers.
type Acceptor struct {
	listener net.Listener
	pool     *Pool
	handler  ConnHandler

	closeOnce sync.Once
	doneCh    chan struct{}
}

// NewAcceptor creates an Acceptor bound to listener. handler is invoked on
// its own goroutine for every accepted connection, alongside the worker the
// pool round-robin picked for it.
func NewAcceptor(listener net.Listener, pool *Pool, handler ConnHandler) *Acceptor {
	return &Acceptor{
		listener: listener,
		pool:     pool,
		handler:  handler,
		doneCh:   make(chan struct{}),
	}
}

// Serve runs the accept loop until the listener is closed. It returns nil
// on a clean shutdown (Close was called) and any other Accept error
// otherwise.
func (a *Acceptor) Serve() error {
	defer close(a.doneCh)
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		worker := a.pool.Next()
		c := conn
		w := worker
		// handler (typically ProxyConnection.Serve) blocks for the
		// connection's whole lifetime, so it must run on its own
		// goroutine, not on w's cooperative loop -- w is only the
		// confinement target for the Tasks handler submits while
		// handling individual frames.
		go a.handler(c, w)
	}
}

// Close stops the accept loop by closing the underlying listener. Safe to
// call more than once.
func (a *Acceptor) Close() error {
	var err error
	a.closeOnce.Do(func() { err = a.listener.Close() })
	return err
}

// Wait blocks until Serve has returned.
func (a *Acceptor) Wait() { <-a.doneCh }
