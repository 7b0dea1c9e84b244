// Package proto models the binary wire protocol shared between clients,
// the proxy, and brokers: a length-prefixed frame carrying a tagged command
// union, plus the error-kind taxonomy the proxy uses to reply to failed
// requests.
//
// Decoding/encoding of the frame envelope itself is implemented here as a
// minimal local codec (length-prefixed command header plus optional
// payload) since the spec treats the full wire-format library as an
// external dependency the core merely consumes.
package proto
