// Package h2stream implements the per-stream transport state machine for a
// single bidirectional HTTP/2 stream, as consumed by a proxy or RPC runtime
// that multiplexes many such streams over one connection.
//
// The package models RFC 7540 §5.1's stream lifecycle as a lock-free atomic
// state cell, admits inbound frames against that state, and coordinates the
// local (outbound) writer with the remote half's received body queue. Wire
// framing, HPACK, connection-level flow control and dispatch are external
// collaborators (FrameWriter, Stats) supplied by the caller.
package h2stream
