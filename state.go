package h2stream

import "sync/atomic"

// remoteKind tags RemoteState (spec §3).
type remoteKind uint8

const (
	remotePending remoteKind = iota
	remoteStreaming
)

// remoteState is the remote half: either Pending (no initial HEADERS yet,
// on_receive_message not yet resolved) or Streaming (initial HEADERS
// delivered, body frames flow through q).
type remoteState struct {
	kind    remoteKind
	pending *future[ReceivedMessage]
	q       *frameQueue
}

func pendingRemote(p *future[ReceivedMessage]) remoteState {
	return remoteState{kind: remotePending, pending: p}
}

func streamingRemote(q *frameQueue) remoteState {
	return remoteState{kind: remoteStreaming, q: q}
}

// stateKind tags stateDescriptor (spec §3's StreamState).
type stateKind uint8

const (
	kindOpen stateKind = iota
	kindLocalClosed
	kindRemoteClosed
	kindClosed
)

func (k stateKind) String() string {
	switch k {
	case kindOpen:
		return "open"
	case kindLocalClosed:
		return "local_closed"
	case kindRemoteClosed:
		return "remote_closed"
	case kindClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// stateDescriptor is the immutable value a stream's atomic cell points to.
// Per spec §9's design note, a pointer to an immutable descriptor is the
// Go-idiomatic equivalent of the source's tagged-union CAS cell; only the
// fields valid for kind are populated.
type stateDescriptor struct {
	kind   stateKind
	remote remoteState // kindOpen, kindLocalClosed
	q      *frameQueue // kindRemoteClosed
	reason Reset       // kindClosed
}

func openState(remote remoteState) *stateDescriptor {
	return &stateDescriptor{kind: kindOpen, remote: remote}
}

func localClosedState(remote remoteState) *stateDescriptor {
	return &stateDescriptor{kind: kindLocalClosed, remote: remote}
}

func remoteClosedState(q *frameQueue) *stateDescriptor {
	return &stateDescriptor{kind: kindRemoteClosed, q: q}
}

func closedState(reason Reset) *stateDescriptor {
	return &stateDescriptor{kind: kindClosed, reason: reason}
}

func (d *stateDescriptor) resettable() bool {
	return d.kind != kindClosed
}

// stateCell is the single atomic reference all transitions CAS against
// (spec invariant 7). There are no locks; a failed CAS retries by
// re-reading the cell.
type stateCell struct {
	ptr atomic.Pointer[stateDescriptor]
}

func newStateCell(initial *stateDescriptor) *stateCell {
	c := &stateCell{}
	c.ptr.Store(initial)
	return c
}

func (c *stateCell) load() *stateDescriptor {
	return c.ptr.Load()
}

func (c *stateCell) cas(old, new *stateDescriptor) bool {
	return c.ptr.CompareAndSwap(old, new)
}

// teardown runs the prior descriptor's "destructor" exactly once on a
// successful CAS to Closed: it fails whatever pending promise or frame
// queue the prior variant owned (spec §9 "no cycles exist; the frame
// queue is owned first by Streaming, then transferred to RemoteClosed on
// end-of-stream, then finally failed on Closed").
func teardown(prev *stateDescriptor, reason Reset, origin Origin) {
	switch prev.kind {
	case kindOpen, kindLocalClosed:
		switch prev.remote.kind {
		case remotePending:
			prev.remote.pending.fail(StreamError{Origin: origin, Reset: reason})
		case remoteStreaming:
			prev.remote.q.fail(reason, origin, true)
		}
	case kindRemoteClosed:
		prev.q.fail(reason, origin, true)
	}
}
