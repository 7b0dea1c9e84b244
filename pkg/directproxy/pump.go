package directproxy

import (
	"errors"
	"io"
	"net"
	"sync"
)

// pump forwards bytes opaquely between client and backend in both
// directions until either side closes, honoring half-close: when one side
// reaches EOF, the other side's write-half is closed once its buffer
// drains, but reads continue until that side also EOFs or errors (spec
// §4.5). It returns the first non-EOF error observed in either direction,
// or nil on a clean close.
func (h *Handler) pump(client, backend net.Conn, topic string) error {
	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- h.copyDirection(backend, client, topic) // client -> backend
	}()
	go func() {
		defer wg.Done()
		errs <- h.copyDirection(client, backend, topic) // backend -> client
	}()

	wg.Wait()
	close(errs)

	var first error
	for err := range errs {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// copyDirection reads from src and writes to dst with an adaptively
// growing buffer (spec: "starting 1 KiB, max 1 MiB"). Backpressure between
// the two directions falls out of the synchronous read/write loop itself:
// a slow dst.Write blocks this goroutine, which simply stops issuing
// src.Read calls until it unblocks — the Go-idiomatic equivalent of the
// source's explicit high/low water-mark queue, since there is no separate
// async write queue here that could overflow.
func (h *Handler) copyDirection(dst, src net.Conn, topic string) error {
	if h.cfg.ZeroCopyEnabled {
		onBytes := func(n int) {
			h.recordBytes(topic, int64(n))
			if h.metrics != nil {
				h.metrics.AddBinaryBytes(uint64(n))
			}
		}
		if handled, err := trySplice(dst, src, onBytes); handled {
			if err != nil {
				return err
			}
			closeWriteHalf(dst)
			return nil
		}
	}

	bufSize := h.cfg.MinBufferSize
	buf := make([]byte, bufSize)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			h.recordBytes(topic, int64(n))
			if h.metrics != nil {
				h.metrics.AddBinaryBytes(uint64(n))
			}
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return werr
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				closeWriteHalf(dst)
				return nil
			}
			return readErr
		}

		if n == len(buf) && bufSize < h.cfg.MaxBufferSize {
			bufSize *= 2
			if bufSize > h.cfg.MaxBufferSize {
				bufSize = h.cfg.MaxBufferSize
			}
			buf = make([]byte, bufSize)
		}
	}
}

func (h *Handler) recordBytes(topic string, n int64) {
	if h.topicStats == nil || topic == "" {
		return
	}
	h.topicStats.RecordBytes(topic, n)
}

type writeCloser interface {
	CloseWrite() error
}

// closeWriteHalf half-closes conn's send side if the underlying
// connection supports it (e.g. *net.TCPConn, *tls.Conn); otherwise it
// closes the connection outright.
func closeWriteHalf(conn net.Conn) {
	if wc, ok := conn.(writeCloser); ok {
		wc.CloseWrite()
		return
	}
	conn.Close()
}
