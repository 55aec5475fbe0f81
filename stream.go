package h2stream

import (
	"context"
	"strconv"

	"github.com/valyala/fasthttp"
)

// StreamOpts configures a StreamTransport. There is no file, environment,
// or connection-level configuration at this layer (spec §6) — only what a
// caller passes to New.
type StreamOpts struct {
	Logger fasthttp.Logger
	Debug  bool
}

// StreamTransport is the per-stream transport state machine described by
// this package: one instance per HTTP/2 stream, created by the dispatcher
// and driven by recv (inbound) and Send (outbound).
type StreamTransport struct {
	streamID uint32
	role     Role

	writer FrameWriter
	stats  Stats

	logger fasthttp.Logger
	debug  bool

	cell *stateCell

	onReceive *future[ReceivedMessage]
	onReset   *future[struct{}]
}

// New constructs a stream transport in Open(Pending), the only legal
// initial state (spec §4.2 "Initial: Open(Pending)").
func New(streamID uint32, fw FrameWriter, stats Stats, role Role, opts StreamOpts) *StreamTransport {
	if stats == nil {
		stats = NopStats{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = nopLogger{}
	}

	pending := newFuture[ReceivedMessage]()

	s := &StreamTransport{
		streamID:  streamID,
		role:      role,
		writer:    fw,
		stats:     stats,
		logger:    logger,
		debug:     opts.Debug,
		cell:      newStateCell(openState(pendingRemote(pending))),
		onReceive: pending,
		onReset:   newFuture[struct{}](),
	}
	return s
}

// StreamID returns the stream's identity.
func (s *StreamTransport) StreamID() uint32 { return s.streamID }

// IsClosed reports whether the state has reached Closed, without blocking.
func (s *StreamTransport) IsClosed() bool {
	return s.cell.load().kind == kindClosed
}

// Closed returns a channel closed once the stream reaches its terminal
// state, for callers that want to select on it alongside other events
// instead of calling OnReset with a context (spec §6's is_closed, made
// awaitable).
func (s *StreamTransport) Closed() <-chan struct{} {
	return s.onReset.wakeup()
}

// OnReceiveMessage blocks until the initial HEADERS have resolved the
// received message, ctx ends, or the stream is reset.
func (s *StreamTransport) OnReceiveMessage(ctx context.Context) (ReceivedMessage, error) {
	return s.onReceive.wait(ctx)
}

// OnReset blocks until the stream reaches Closed. It returns nil iff the
// terminal reason was NoError (spec invariant 2).
func (s *StreamTransport) OnReset(ctx context.Context) error {
	_, err := s.onReset.wait(ctx)
	return err
}

// CancelReceive maps an application-side cancellation of on_receive_message
// to a local reset, per the §4.6 mapping table.
func (s *StreamTransport) CancelReceive(interrupt Interrupt, cause error) {
	s.LocalReset(interruptToReset(interrupt, cause))
}

func (s *StreamTransport) String() string {
	return "stream " + strconv.FormatUint(uint64(s.streamID), 10) + " [" + s.cell.load().kind.String() + "]"
}
