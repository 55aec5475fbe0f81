package h2stream

import (
	"fmt"

	"golang.org/x/net/http2"
)

// Reset is a stream reset code. It carries every RFC 7540 §7 error code
// (reused from golang.org/x/net/http2 rather than re-declared) plus a
// handful of synthetic codes this package needs for causes that never
// travel over the wire as-is.
type Reset uint32

// RFC 7540 §7 codes, passed straight through from golang.org/x/net/http2.
const (
	NoError          = Reset(http2.ErrCodeNo)
	ProtocolError    = Reset(http2.ErrCodeProtocol)
	InternalError    = Reset(http2.ErrCodeInternal)
	FlowControlError = Reset(http2.ErrCodeFlowControl)
	StreamClosedWire = Reset(http2.ErrCodeStreamClosed)
	Refused          = Reset(http2.ErrCodeRefusedStream)
	Cancel           = Reset(http2.ErrCodeCancel)
)

// Closed is synthetic: it marks a local reset raised because the stream's
// own state was already terminal (or being torn down) when the triggering
// frame or event arrived. It is never a code a peer sent us. A local reset
// hands it to FrameWriter.WriteReset unchanged; wireCode maps it to
// StreamClosedWire.
const Closed = Reset(1 << 16)

// wireCode returns the RFC 7540 code to put on an outgoing RST_STREAM frame.
func (r Reset) wireCode() http2.ErrCode {
	if r == Closed {
		return http2.ErrCodeStreamClosed
	}
	return http2.ErrCode(r)
}

func (r Reset) String() string {
	if r == Closed {
		return "stream_closed (local)"
	}
	return http2.ErrCode(r).String()
}

// Origin records which side of the stream caused a StreamError. It
// determines whether a RST_STREAM must be emitted: Local aborts must emit
// one, Remote aborts are already the consequence of receiving one.
type Origin uint8

const (
	// Local means this side originated the abort; write_reset must fire.
	Local Origin = iota
	// Remote means the peer originated the abort (an RST_STREAM was
	// observed, or the peer otherwise misbehaved); nothing is emitted.
	Remote
)

func (o Origin) String() string {
	if o == Remote {
		return "remote"
	}
	return "local"
}

// StreamError is the terminal error surfaced through on_reset, a send's
// inner future, or a read() on the received body, tagged with who caused
// the abort.
type StreamError struct {
	Origin Origin
	Reset  Reset
}

func (e StreamError) Error() string {
	return fmt.Sprintf("stream reset (%s): %s", e.Origin, e.Reset)
}

// Unwrap exposes the underlying Reset in the error chain as an unexported
// error type whose message is the Reset's String.
func (e StreamError) Unwrap() error {
	return resetErr(e.Reset)
}

type resetErr Reset

func (e resetErr) Error() string { return Reset(e).String() }

// localError returns a StreamError for r originated by this side.
func localError(r Reset) StreamError {
	return StreamError{Origin: Local, Reset: r}
}

// remoteError returns a StreamError for r originated by the peer.
func remoteError(r Reset) StreamError {
	return StreamError{Origin: Remote, Reset: r}
}

// Interrupt is the kind of cancellation the application raised against
// on_receive_message, mapped to a local reset per §4.6.
type Interrupt int

const (
	// InterruptGeneric is a plain cancellation with no further detail.
	InterruptGeneric Interrupt = iota
	// InterruptRejected models application-side load shedding.
	InterruptRejected
)

// interruptToReset implements the §4.6 mapping table from an application
// interrupt on on_receive_message to the local reset it produces.
func interruptToReset(interrupt Interrupt, cause error) Reset {
	if se, ok := cause.(StreamError); ok {
		return se.Reset
	}

	switch interrupt {
	case InterruptRejected:
		return Refused
	case InterruptGeneric:
		return Cancel
	default:
		return InternalError
	}
}

// outboundErrSource distinguishes where an error during send() originated,
// for classifyOutboundErr.
type outboundErrSource int

const (
	// sourceStream means the error came from reading the outbound body
	// stream (a producer error — the application's own fault).
	sourceStream outboundErrSource = iota
	// sourceWriter means the error came from the FrameWriter (a network
	// error, or a cancellation of the underlying write).
	sourceWriter
)

// classifyOutboundErr implements the §4.6 "error-wrap helpers": a
// StreamError passes through unchanged, anything else is wrapped according
// to where it arose.
func classifyOutboundErr(err error, src outboundErrSource) StreamError {
	if se, ok := err.(StreamError); ok {
		return se
	}

	if src == sourceStream {
		return localError(InternalError)
	}
	return remoteError(InternalError)
}
