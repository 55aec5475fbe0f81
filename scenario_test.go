package h2stream

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioRequestResponseRoundTrip covers the common case end to end on
// one stream transport: an inbound request with a body is received, then
// an outbound response with a body is sent, and both halves
// converge on a clean NoError close.
func TestScenarioRequestResponseRoundTrip(t *testing.T) {
	s, fw, _ := newTestStream(Server)

	require.True(t, s.Recv(InboundHeaders{Headers: fakeHeaders{":method": "POST"}, EndStream: false}))
	msg, err := s.OnReceiveMessage(context.Background())
	require.NoError(t, err)

	require.True(t, s.Recv(InboundData{Bytes: []byte("ping"), EndStream: true}))
	frames, err := drainAll(context.Background(), msg.Body)
	require.NoError(t, err)
	require.Len(t, frames, 1)
	require.Equal(t, kindRemoteClosed, s.cell.load().kind)

	body := NewBody(OutFrame{Data: []byte("pong"), EndStream: true})
	handle, err := s.Send(context.Background(), OutgoingMessage{Headers: fakeHeaders{":status": "200"}, Body: body})
	require.NoError(t, err)
	require.NoError(t, handle.Wait(context.Background()))

	require.True(t, s.IsClosed())
	require.NoError(t, s.OnReset(context.Background()))
	require.Empty(t, fw.resets())
}

// TestScenarioEmptyBodyRequestRespondedImmediately covers the boundary case
// where the initial HEADERS already carries END_STREAM: the body must read
// as ended without ever blocking on a DATA frame that will never come.
func TestScenarioEmptyBodyRequestRespondedImmediately(t *testing.T) {
	s, _, _ := newTestStream(Server)

	require.True(t, s.Recv(InboundHeaders{Headers: fakeHeaders{":method": "GET"}, EndStream: true}))
	msg, err := s.OnReceiveMessage(context.Background())
	require.NoError(t, err)

	fr, err := msg.Body.Read(context.Background())
	require.NoError(t, err)
	require.Nil(t, fr)

	handle, err := s.Send(context.Background(), OutgoingMessage{Headers: fakeHeaders{":status": "204"}})
	require.NoError(t, err)
	require.NoError(t, handle.Wait(context.Background()))
	require.True(t, s.IsClosed())
}

// TestScenarioTrailersAfterData covers a streamed body that ends with
// trailers rather than a DATA frame carrying END_STREAM.
func TestScenarioTrailersAfterData(t *testing.T) {
	s, _, st := newTestStream(Server)

	require.True(t, s.Recv(InboundHeaders{Headers: fakeHeaders{}, EndStream: false}))
	msg, _ := s.OnReceiveMessage(context.Background())
	require.True(t, s.Recv(InboundData{Bytes: []byte("chunk")}))
	require.True(t, s.Recv(InboundHeaders{Headers: fakeHeaders{"x-trace": "7"}, EndStream: true}))

	frames, err := drainAll(context.Background(), msg.Body)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	_, isTrailers := frames[1].(*TrailersFrame)
	require.True(t, isTrailers)
	require.Equal(t, int64(1), st.counter(statRemoteTrailers))
}

// TestScenarioApplicationCancelsReceive covers an application giving up on
// a pending receive, which must surface as a local reset with the mapped
// code rather than hanging forever.
func TestScenarioApplicationCancelsReceive(t *testing.T) {
	s, fw, _ := newTestStream(Server)

	s.CancelReceive(InterruptGeneric, nil)

	_, err := s.OnReceiveMessage(context.Background())
	var se StreamError
	require.ErrorAs(t, err, &se)
	require.Equal(t, Cancel, se.Reset)
	require.Equal(t, []Reset{Cancel}, fw.resets())
}

// TestScenarioRemoteResetWinsOverBufferedData covers the tie-break: a reset
// observed after data was already buffered discards that data rather than
// letting the consumer observe it.
func TestScenarioRemoteResetWinsOverBufferedData(t *testing.T) {
	s, _, _ := newTestStream(Server)

	require.True(t, s.Recv(InboundHeaders{Headers: fakeHeaders{}, EndStream: false}))
	msg, _ := s.OnReceiveMessage(context.Background())
	require.True(t, s.Recv(InboundData{Bytes: []byte("will be dropped")}))
	require.True(t, s.Recv(InboundReset{Code: FlowControlError}))

	_, err := msg.Body.Read(context.Background())
	var se StreamError
	require.ErrorAs(t, err, &se)
	require.Equal(t, FlowControlError, se.Reset)
}

// TestScenarioDoubleCloseIsSurfacedNotSwallowed covers §3 invariant 6 and
// §4.4 step 1's bug path: a caller that sends twice on the same stream is
// rejected outright on the second call — no second HEADERS frame reaches
// the writer — rather than writing onto an already-closed stream and only
// noticing via closeLocal afterwards.
func TestScenarioDoubleCloseIsSurfacedNotSwallowed(t *testing.T) {
	s, fw, _ := newTestStream(Server)

	first, err := s.Send(context.Background(), OutgoingMessage{Headers: fakeHeaders{":status": "200"}})
	require.NoError(t, err)
	require.NoError(t, first.Wait(context.Background()))
	require.Len(t, fw.headersSent, 1)

	second, err := s.Send(context.Background(), OutgoingMessage{Headers: fakeHeaders{":status": "200"}})
	require.Nil(t, second)
	var se StreamError
	require.ErrorAs(t, err, &se)
	require.Equal(t, InternalError, se.Reset)

	// The rejected call must never have reached the writer: still one
	// HEADERS frame on the wire, not two.
	require.Len(t, fw.headersSent, 1)

	resetErr := s.OnReset(context.Background())
	require.ErrorAs(t, resetErr, &se)
	require.Equal(t, InternalError, se.Reset)
	require.Equal(t, []Reset{InternalError}, fw.resets())
}
