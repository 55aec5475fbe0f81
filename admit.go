package h2stream

// Recv admits one inbound frame, validating and transitioning the state
// per the table in spec §4.3. It returns false only when the frame could
// not be accepted because the stream was already Closed; every other
// outcome — including one that itself raises a local reset — is reported
// as true. The return value is advisory: dispatchers may log or ignore a
// false, it is never treated as an error by this package.
//
// recv never suspends: each retry re-reads the state cell and re-evaluates
// the same table, converging in at most the number of reachable states
// (spec §4.3 "Retry discipline").
func (s *StreamTransport) Recv(fr InboundFrame) bool {
	switch v := fr.(type) {
	case InboundReset:
		return s.admitReset(v)
	case InboundHeaders:
		if v.EndStream {
			return s.admitHeadersEndStream(v)
		}
		return s.admitHeadersNoEndStream(v)
	case InboundData:
		if v.EndStream {
			return s.admitDataEndStream(v)
		}
		return s.admitDataNoEndStream(v)
	default:
		return false
	}
}

// admitReset handles the RESET(code) row: every non-terminal state resets
// Remote(code); RemoteClosed additionally poisons its queue, which
// teardown already does uniformly for every kind. Closed rejects it.
func (s *StreamTransport) admitReset(v InboundReset) bool {
	if s.cell.load().kind == kindClosed {
		return false
	}
	s.RemoteReset(v.Code)
	return true
}

// admitHeadersNoEndStream handles the "HEADERS, no ES" row.
func (s *StreamTransport) admitHeadersNoEndStream(v InboundHeaders) bool {
	for {
		prev := s.cell.load()

		switch prev.kind {
		case kindClosed:
			return false

		case kindRemoteClosed:
			// Remote already ended; another HEADERS now is out of order.
			s.LocalReset(Closed)
			return true

		case kindOpen, kindLocalClosed:
			switch prev.remote.kind {
			case remoteStreaming:
				// HEADERS without END_STREAM can't follow a HEADERS/DATA
				// that already opened the body; out of order.
				s.LocalReset(InternalError)
				return true

			case remotePending:
				if hasConnectionHeader(v.Headers) {
					s.LocalReset(ProtocolError)
					return true
				}

				q := newQueue()
				var next *stateDescriptor
				if prev.kind == kindOpen {
					next = openState(streamingRemote(q))
				} else {
					next = localClosedState(streamingRemote(q))
				}

				if !s.cell.cas(prev, next) {
					continue
				}

				prev.remote.pending.resolve(ReceivedMessage{
					Headers: v.Headers,
					Body:    newBodyStream(q),
				})
				return true
			}
		}
	}
}

// admitHeadersEndStream handles the "HEADERS, ES" row: it either resolves
// the received message with an empty body (remote was Pending), or it
// carries trailers onto a body already in flight (remote was Streaming).
func (s *StreamTransport) admitHeadersEndStream(v InboundHeaders) bool {
	for {
		prev := s.cell.load()

		switch prev.kind {
		case kindClosed:
			return false

		case kindRemoteClosed:
			// Remote already ended once; trailers again is out of order.
			s.LocalReset(InternalError)
			return true

		case kindOpen, kindLocalClosed:
			switch prev.remote.kind {
			case remotePending:
				if hasConnectionHeader(v.Headers) {
					s.LocalReset(ProtocolError)
					return true
				}

				q := newEmptyQueue()
				msg := ReceivedMessage{Headers: v.Headers, Body: newBodyStream(q)}

				if prev.kind == kindOpen {
					next := remoteClosedState(q)
					if !s.cell.cas(prev, next) {
						continue
					}
					prev.remote.pending.resolve(msg)
					return true
				}

				// LocalClosed(Pending): both halves are now done.
				next := closedState(NoError)
				if !s.cell.cas(prev, next) {
					continue
				}
				prev.remote.pending.resolve(msg)
				s.onReset.resolve(struct{}{})
				return true

			case remoteStreaming:
				q := prev.remote.q

				if prev.kind == kindOpen {
					next := remoteClosedState(q)
					if !s.cell.cas(prev, next) {
						continue
					}
					s.deliverTrailers(q, v.Headers)
					return true
				}

				// LocalClosed(Streaming): both halves are now done.
				next := closedState(NoError)
				if !s.cell.cas(prev, next) {
					continue
				}
				s.deliverTrailers(q, v.Headers)
				s.onReset.resolve(struct{}{})
				return true
			}
		}
	}
}

// deliverTrailers enqueues a TrailersFrame and marks the queue
// end-of-stream (a benign, non-discarding close — buffered frames
// including the trailers remain readable before the consumer observes
// end-of-stream).
func (s *StreamTransport) deliverTrailers(q *frameQueue, h Headers) {
	q.offer(&TrailersFrame{Headers: h, EndStream: true})
	q.fail(NoError, Local, false)
	s.stats.IncrCounter(statRemoteTrailers, 1)
}

// admitDataNoEndStream handles the "DATA, no ES" row.
func (s *StreamTransport) admitDataNoEndStream(v InboundData) bool {
	prev := s.cell.load()

	switch prev.kind {
	case kindClosed:
		return false

	case kindRemoteClosed:
		s.LocalReset(Closed)
		return true

	case kindOpen, kindLocalClosed:
		switch prev.remote.kind {
		case remotePending:
			s.LocalReset(InternalError)
			return true

		case remoteStreaming:
			if !prev.remote.q.offer(&DataFrame{
				Bytes:        v.Bytes,
				EndStream:    false,
				WindowRefund: v.WindowRefund,
			}) {
				s.LocalReset(Closed)
				return true
			}
			s.recordData(len(v.Bytes))
			return true
		}
	}
	return false
}

// admitDataEndStream handles the "DATA, ES" row.
func (s *StreamTransport) admitDataEndStream(v InboundData) bool {
	for {
		prev := s.cell.load()

		switch prev.kind {
		case kindClosed:
			return false

		case kindRemoteClosed:
			s.LocalReset(Closed)
			return true

		case kindOpen, kindLocalClosed:
			switch prev.remote.kind {
			case remotePending:
				s.LocalReset(InternalError)
				return true

			case remoteStreaming:
				q := prev.remote.q

				if prev.kind == kindOpen {
					next := remoteClosedState(q)
					if !s.cell.cas(prev, next) {
						continue
					}
					s.deliverFinalData(q, v)
					return true
				}

				next := closedState(NoError)
				if !s.cell.cas(prev, next) {
					continue
				}
				s.deliverFinalData(q, v)
				s.onReset.resolve(struct{}{})
				return true
			}
		}
	}
}

func (s *StreamTransport) deliverFinalData(q *frameQueue, v InboundData) {
	q.offer(&DataFrame{Bytes: v.Bytes, EndStream: true, WindowRefund: v.WindowRefund})
	q.fail(NoError, Local, false)
	s.recordData(len(v.Bytes))
}

func (s *StreamTransport) recordData(n int) {
	s.stats.IncrCounter(statRemoteFrames, 1)
	s.stats.ObserveHistogram(statRemoteBytes, float64(n))
}
