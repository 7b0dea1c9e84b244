//go:build !linux

package directproxy

import "net"

// trySplice is a no-op on non-Linux platforms: the buffered copy in
// copyDirection is the only transport available there (spec §4.5:
// "otherwise a fixed-size adaptive buffer... is used").
func trySplice(dst, src net.Conn, onBytes func(int)) (handled bool, err error) {
	return false, nil
}
