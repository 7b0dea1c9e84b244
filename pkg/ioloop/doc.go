// Package ioloop implements the event-loop pool described in spec.md §5: a
// small acceptor pool that only owns listening sockets, and a fixed-size
// group of I/O worker goroutines, each running a single-threaded
// cooperative loop over a private run-queue of tasks. All per-connection
// state is confined to the worker that first accepted it; cross-worker
// interaction is message passing (Worker.Submit), never a shared lock.
//
// The goroutine-plus-channel-plus-select shutdown idiom (a stop channel
// selected alongside the work channel, closed exactly once) is grounded on
// the teacher's pkg/server.Server's signal/shutdown handling, adapted from
// one HTTP server's lifecycle to N independent worker loops.
package ioloop
