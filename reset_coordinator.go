package h2stream

import "context"

// LocalReset aborts the stream for a reason this side originated: a
// RST_STREAM is emitted to the wire. Calling it twice, or after the stream
// is already Closed, is a no-op (spec §8 "reset wins"/idempotence).
func (s *StreamTransport) LocalReset(r Reset) {
	s.doReset(r, Local)
}

// RemoteReset records a reset the peer originated (an RST_STREAM was
// observed on the wire). No frame is emitted — it is already the
// consequence of receiving one.
func (s *StreamTransport) RemoteReset(r Reset) {
	s.doReset(r, Remote)
}

// doReset implements §4.6's try_reset: CAS any resettable state to
// Closed(r), run the prior state's teardown exactly once, then resolve
// on_reset. A CAS observing an already-terminal state returns without any
// side effect.
func (s *StreamTransport) doReset(r Reset, origin Origin) {
	for {
		prev := s.cell.load()
		if !prev.resettable() {
			return
		}

		next := closedState(r)
		if !s.cell.cas(prev, next) {
			continue
		}

		teardown(prev, r, origin)

		if r == NoError {
			s.onReset.resolve(struct{}{})
		} else {
			s.onReset.fail(StreamError{Origin: origin, Reset: r})
		}

		if origin == Local {
			s.stats.IncrCounter(statLocalReset, 1)
			s.logf("local reset: %s", r)
			if err := s.writer.WriteReset(context.Background(), s.streamID, r); err != nil {
				s.logf("write_reset failed: %s", err)
			}
		} else {
			s.stats.IncrCounter(statRemoteReset, 1)
			s.logf("remote reset: %s", r)
		}
		return
	}
}
