package h2stream

import (
	"bytes"

	"github.com/valyala/fasthttp"
)

// Headers is the header-container abstraction recv and send validate and
// walk. The concrete implementations wrap fasthttp's own header types
// rather than a generic map, matching the teacher's choice of fasthttp as
// its header representation throughout (legacy/adaptor.go).
type Headers interface {
	Peek(key string) []byte
	VisitAll(f func(key, value []byte))
}

type requestHeaders struct{ h *fasthttp.RequestHeader }

func (r requestHeaders) Peek(key string) []byte { return r.h.Peek(key) }
func (r requestHeaders) VisitAll(f func(key, value []byte)) { r.h.VisitAll(f) }

type responseHeaders struct{ h *fasthttp.ResponseHeader }

func (r responseHeaders) Peek(key string) []byte { return r.h.Peek(key) }
func (r responseHeaders) VisitAll(f func(key, value []byte)) { r.h.VisitAll(f) }

// connectionSpecificHeaders are the hop-by-hop headers RFC 7540 §8.1.2.2
// forbids in either direction (spec invariant 5).
var connectionSpecificHeaders = [][]byte{
	[]byte("Connection"),
	[]byte("Keep-Alive"),
	[]byte("Transfer-Encoding"),
	[]byte("Upgrade"),
}

var proxyHeaderPrefix = []byte("Proxy-")

// hasConnectionHeader reports whether h carries a forbidden hop-by-hop
// header.
func hasConnectionHeader(h Headers) bool {
	found := false
	h.VisitAll(func(k, _ []byte) {
		if found {
			return
		}
		if bytes.HasPrefix(k, proxyHeaderPrefix) {
			found = true
			return
		}
		for _, bad := range connectionSpecificHeaders {
			if bytes.EqualFold(k, bad) {
				found = true
				return
			}
		}
	})
	return found
}

// Role selects which high-level message a stream transport sends and
// which it receives (spec §6): a Client sends a Request and receives a
// Response, a Server sends a Response and receives a Request.
type Role uint8

const (
	Client Role = iota
	Server
)

// newReceivedHeaders allocates the header container recv should decode an
// initial (or trailing) inbound HEADERS frame into, appropriate to Role:
// a Client receives Response headers, a Server receives Request headers.
func (r Role) newReceivedHeaders() Headers {
	if r == Client {
		return responseHeaders{h: &fasthttp.ResponseHeader{}}
	}
	return requestHeaders{h: &fasthttp.RequestHeader{}}
}

// ReceivedMessage is the object resolved by on_receive_message: initial
// Headers plus a body (spec §3).
type ReceivedMessage struct {
	Headers Headers
	Body    *BodyStream
}

// OutboundBody is the lazy stream of outgoing frames send() drains, the
// mirror image of BodyStream for the local half. A nil OutboundBody means
// the message has no body at all (message.body.is_empty in §4.4).
type OutboundBody interface {
	// Next returns the next frame to write, (OutFrame{}, false, nil) once
	// the body has nothing left to drain and the caller should stop, or a
	// non-nil error if producing the next frame itself failed (§4.6: a
	// producer-side failure, classified and reported as a local reset).
	Next() (OutFrame, bool, error)
}

// OutFrame is one frame the outbound writer drains from an OutboundBody.
type OutFrame struct {
	Data      []byte
	Trailers  Headers
	EndStream bool
}

// OutgoingMessage is what the application hands to send(): headers plus an
// optional body.
type OutgoingMessage struct {
	Headers Headers
	Body    OutboundBody
}

// sliceBody is the simplest OutboundBody: a fixed, pre-built list of
// frames, handed out in order. It is enough for request/response bodies
// that are fully buffered before send() is called, which covers every
// end-to-end scenario in spec §8.
type sliceBody struct {
	frames []OutFrame
	next   int
}

// NewBody returns an OutboundBody that yields frames in order. The last
// frame must carry EndStream true.
func NewBody(frames ...OutFrame) OutboundBody {
	return &sliceBody{frames: frames}
}

func (s *sliceBody) Next() (OutFrame, bool, error) {
	if s.next >= len(s.frames) {
		return OutFrame{}, false, nil
	}
	fr := s.frames[s.next]
	s.next++
	return fr, true, nil
}
