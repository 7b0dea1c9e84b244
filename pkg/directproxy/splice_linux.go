//go:build linux

package directproxy

import (
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// spliceChunk bounds how much one splice(2) call moves at a time.
const spliceChunk = 1 << 20

// trySplice moves bytes from src to dst using the Linux splice(2)
// zero-copy primitive, relaying through an intermediate pipe (splice
// requires one endpoint of each call to be a pipe, so socket-to-socket
// needs two calls per chunk: socket->pipe, pipe->socket). It reports
// handled=false when the fast path isn't usable for this pair (not TCP
// connections, or kernel setup failed), so the caller falls back to the
// buffered copy loop; handled=true with a nil error means src reached EOF
// cleanly.
func trySplice(dst, src net.Conn, onBytes func(int)) (handled bool, err error) {
	srcTCP, ok := src.(*net.TCPConn)
	if !ok {
		return false, nil
	}
	dstTCP, ok := dst.(*net.TCPConn)
	if !ok {
		return false, nil
	}

	srcFile, err := srcTCP.File()
	if err != nil {
		return false, nil
	}
	defer srcFile.Close()
	dstFile, err := dstTCP.File()
	if err != nil {
		return false, nil
	}
	defer dstFile.Close()

	pr, pw, err := os.Pipe()
	if err != nil {
		return false, nil
	}
	defer pr.Close()
	defer pw.Close()

	srcFd := int(srcFile.Fd())
	dstFd := int(dstFile.Fd())
	pipeR := int(pr.Fd())
	pipeW := int(pw.Fd())

	for {
		n, serr := unix.Splice(srcFd, nil, pipeW, nil, spliceChunk, unix.SPLICE_F_MOVE)
		if serr != nil {
			return true, serr
		}
		if n == 0 {
			return true, nil
		}
		if onBytes != nil {
			onBytes(int(n))
		}

		var written int64
		for written < n {
			m, werr := unix.Splice(pipeR, nil, dstFd, nil, int(n-written), unix.SPLICE_F_MOVE)
			if werr != nil {
				return true, werr
			}
			written += m
		}
	}
}
