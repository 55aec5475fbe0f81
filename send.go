package h2stream

import "context"

// SendHandle is the pair of events send() produces per spec §4.4: an outer
// signal that resolves once the initial HEADERS are on the wire (so a
// caller may start a request/response round before the body finishes
// draining), and an inner one that resolves once the full body has been
// written, or failed, whichever comes first.
type SendHandle struct {
	headersWritten chan struct{}
	body           *future[struct{}]
}

// HeadersWritten is closed once the initial HEADERS frame has gone out.
func (h *SendHandle) HeadersWritten() <-chan struct{} {
	return h.headersWritten
}

// Wait blocks until the body has fully drained, or ctx ends, returning the
// StreamError that aborted the stream if the drain failed.
func (h *SendHandle) Wait(ctx context.Context) error {
	_, err := h.body.wait(ctx)
	return err
}

// Send implements the outbound half (spec §4.4). It first rejects the call
// outright if the stream's local half is already closed (invariant 6: the
// writer path is never entered once state is LocalClosed or Closed) before
// writing anything, and rejects headers carrying a connection-specific
// header with a local ProtocolError reset, again without writing anything.
// Otherwise it writes the initial HEADERS synchronously,
// then — if there is a body — drains it in the background, writing
// DATA/trailing-HEADERS frames and finally driving closeLocal once the
// frame carrying EndStream has gone out.
//
// A write failure or a cancelled ctx aborts the stream via LocalReset; the
// resulting StreamError surfaces through the returned error (a failure
// writing HEADERS) or through SendHandle.Wait (a failure draining the body).
func (s *StreamTransport) Send(ctx context.Context, msg OutgoingMessage) (*SendHandle, error) {
	if prev := s.cell.load(); prev.kind == kindClosed || prev.kind == kindLocalClosed {
		se := localError(InternalError)
		s.LocalReset(InternalError)
		return nil, se
	}

	if msg.Headers != nil && hasConnectionHeader(msg.Headers) {
		s.LocalReset(ProtocolError)
		return nil, localError(ProtocolError)
	}

	bodyEmpty := msg.Body == nil

	if err := s.writer.WriteHeaders(ctx, s.streamID, msg.Headers, bodyEmpty); err != nil {
		return nil, s.abortSend(err)
	}

	handle := &SendHandle{headersWritten: make(chan struct{}), body: newFuture[struct{}]()}
	close(handle.headersWritten)

	if bodyEmpty {
		s.closeLocal()
		handle.body.resolve(struct{}{})
		return handle, nil
	}

	go s.drainBody(ctx, msg.Body, handle)
	return handle, nil
}

// drainBody runs the body-drain loop in the background, resolving
// handle.body exactly once: with success once the frame carrying
// EndStream has gone out or once the body reports no further frames (in
// that case closeLocal runs without any END_STREAM frame being written),
// or with the StreamError that aborted the stream otherwise.
func (s *StreamTransport) drainBody(ctx context.Context, body OutboundBody, handle *SendHandle) {
	for {
		if ctx.Err() != nil {
			s.LocalReset(Cancel)
			handle.body.fail(localError(Cancel))
			return
		}

		fr, ok, err := body.Next()
		if err != nil {
			se := classifyOutboundErr(err, sourceStream)
			s.LocalReset(se.Reset)
			handle.body.fail(localError(se.Reset))
			return
		}
		if !ok {
			s.closeLocal()
			handle.body.resolve(struct{}{})
			return
		}

		if fr.Trailers != nil {
			if err := s.writer.WriteHeaders(ctx, s.streamID, fr.Trailers, fr.EndStream); err != nil {
				se := classifyOutboundErr(err, sourceWriter)
				s.LocalReset(se.Reset)
				handle.body.fail(localError(se.Reset))
				return
			}
			s.stats.IncrCounter(statLocalTrailers, 1)
		} else {
			if err := s.writer.WriteData(ctx, s.streamID, fr); err != nil {
				se := classifyOutboundErr(err, sourceWriter)
				s.LocalReset(se.Reset)
				handle.body.fail(localError(se.Reset))
				return
			}
			s.stats.IncrCounter(statLocalFrames, 1)
			s.stats.ObserveHistogram(statLocalBytes, float64(len(fr.Data)))
		}

		if fr.EndStream {
			s.closeLocal()
			handle.body.resolve(struct{}{})
			return
		}
	}
}

// abortSend classifies err, raises the matching local reset, and returns
// the StreamError for the caller.
func (s *StreamTransport) abortSend(err error) error {
	se := classifyOutboundErr(err, sourceWriter)
	s.LocalReset(se.Reset)
	return localError(se.Reset)
}

// closeLocal implements §4.5: Open moves to LocalClosed; RemoteClosed (the
// peer already ended) completes the stream with NoError; LocalClosed
// again is a caller bug — closing twice — raised as a real local reset
// rather than silently ignored, so it is visible to on_reset; Closed is
// already terminal and a no-op. Send's own upfront state check keeps this
// from being reached by Send itself; it remains as a defensive backstop.
func (s *StreamTransport) closeLocal() {
	for {
		prev := s.cell.load()

		switch prev.kind {
		case kindOpen:
			next := localClosedState(prev.remote)
			if !s.cell.cas(prev, next) {
				continue
			}
			return

		case kindRemoteClosed:
			next := closedState(NoError)
			if !s.cell.cas(prev, next) {
				continue
			}
			s.onReset.resolve(struct{}{})
			return

		case kindLocalClosed:
			s.LocalReset(InternalError)
			return

		case kindClosed:
			return
		}
	}
}
