package h2stream

import (
	"context"
	"errors"
	"sync"
)

// errEndOfStream is the sentinel read() returns when a queue was failed
// with NoError: the remote half ended cleanly and the body is exhausted.
var errEndOfStream = errors.New("h2stream: end of stream")

// frameQueue is the single-producer, single-consumer queue of inbound
// frames described in §4.1: the admission logic is the sole producer, the
// application (draining the received message's body) is the sole consumer.
type frameQueue struct {
	mu      sync.Mutex
	buf     []Frame
	capLim  int // 0 means unbounded
	failed  bool
	origin  Origin
	reason  Reset
	waiters chan struct{}
}

// newQueue returns an unbounded queue, used once the initial HEADERS lack
// END_STREAM and body frames may follow.
func newQueue() *frameQueue {
	return &frameQueue{waiters: make(chan struct{})}
}

// newEmptyQueue returns a queue of capacity 1 that the producer never
// offers into. Its only purpose (spec §9, first open question) is to give
// a RemoteClosed state something to poison if a reset arrives after an
// END_STREAM HEADERS that carried an already-empty body; it starts
// pre-failed with NoError so the first read() observes end-of-stream
// immediately (spec §8 boundary behavior).
func newEmptyQueue() *frameQueue {
	q := &frameQueue{capLim: 1, waiters: make(chan struct{})}
	q.fail(NoError, Local, false)
	return q
}

func (q *frameQueue) signal() {
	close(q.waiters)
	q.waiters = make(chan struct{})
}

// offer enqueues a frame. It returns false if the queue has already been
// failed (the producer should stop trying).
func (q *frameQueue) offer(fr Frame) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.failed {
		return false
	}
	if q.capLim > 0 && len(q.buf) >= q.capLim {
		return false
	}

	q.buf = append(q.buf, fr)
	q.signal()
	return true
}

// fail terminates the queue with reason, attributed to origin. Buffered
// frames remain readable unless discard is true, in which case they are
// dropped and the next read observes the error immediately. fail may be
// called again before the queue has fully drained to escalate a benign
// end-of-stream into a genuine reset (the §4.3 "reset wins" tie-break).
func (q *frameQueue) fail(reason Reset, origin Origin, discard bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.failed = true
	q.reason = reason
	q.origin = origin
	if discard {
		q.buf = nil
	}
	q.signal()
}

// read returns the next buffered frame, or the queue's terminal error once
// the buffer is drained. It blocks until either is available or ctx ends.
func (q *frameQueue) read(ctx context.Context) (Frame, error) {
	for {
		q.mu.Lock()
		if len(q.buf) > 0 {
			fr := q.buf[0]
			q.buf = q.buf[1:]
			q.mu.Unlock()
			return fr, nil
		}

		if q.failed {
			reason, origin := q.reason, q.origin
			q.mu.Unlock()

			if reason == NoError {
				return nil, errEndOfStream
			}
			return nil, StreamError{Origin: origin, Reset: reason}
		}

		ch := q.waiters
		q.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
