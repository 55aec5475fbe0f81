package h2stream

import "context"

// Frame is an already-decoded inbound frame as it sits in the body queue
// and is returned by BodyStream.Read. Only the two variants the body
// stream cares about are represented here; connection-level frames (SETTINGS, PING, GOAWAY,
// PRIORITY) never reach a stream transport.
type Frame interface {
	isFrame()
	EndOfStream() bool
}

// DataFrame carries a chunk of the body. WindowRefund, when non-nil, must
// be invoked once the application is done with Bytes; doing so causes a
// WINDOW_UPDATE to be emitted for this stream's id for len(Bytes).
type DataFrame struct {
	Bytes        []byte
	EndStream    bool
	WindowRefund func()
}

func (*DataFrame) isFrame()          {}
func (d *DataFrame) EndOfStream() bool { return d.EndStream }

// TrailersFrame carries a HEADERS frame that arrived after DATA.
type TrailersFrame struct {
	Headers   Headers
	EndStream bool
}

func (*TrailersFrame) isFrame()          {}
func (t *TrailersFrame) EndOfStream() bool { return t.EndStream }

// BodyStream is the lazy, finite, non-restartable sequence of Frames a
// ReceivedMessage's body is backed by (spec §3). It is either empty, or
// backed by a frameQueue.
type BodyStream struct {
	q *frameQueue
}

func newBodyStream(q *frameQueue) *BodyStream {
	return &BodyStream{q: q}
}

// Read returns the next frame in the body, or an error once the stream
// ends. A clean end-of-stream surfaces as a nil error alongside a nil
// frame (analogous to io.EOF, kept as a dedicated sentinel internally so
// read() can distinguish it from a reset).
func (b *BodyStream) Read(ctx context.Context) (Frame, error) {
	fr, err := b.q.read(ctx)
	if err == errEndOfStream {
		return nil, nil
	}
	return fr, err
}

// RST poisons the body stream directly, as if the owning stream had just
// been reset, for callers that want to abandon a body without going
// through the full StreamTransport.
func (b *BodyStream) RST(origin Origin, reason Reset) {
	b.q.fail(reason, origin, true)
}

// InboundFrame is the wire-level frame recv() is given by the dispatcher:
// HEADERS (initial or trailing), DATA, or RST_STREAM. Its variants are
// distinct from Frame's; recv converts them into Frames for the body queue.
type InboundFrame interface {
	isInbound()
}

// InboundHeaders is a HEADERS frame, whether it resolves the received
// message (remote still Pending) or carries trailers (remote already
// Streaming).
type InboundHeaders struct {
	Headers   Headers
	EndStream bool
}

func (InboundHeaders) isInbound() {}

// InboundData is a DATA frame.
type InboundData struct {
	Bytes        []byte
	EndStream    bool
	WindowRefund func()
}

func (InboundData) isInbound() {}

// InboundReset is an RST_STREAM frame.
type InboundReset struct {
	Code Reset
}

func (InboundReset) isInbound() {}
