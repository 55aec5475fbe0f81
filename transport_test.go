package h2stream

import (
	"context"
	"sync"
)

// fakeHeaders is the simplest Headers implementation a test needs: an
// ordered-enough map good for Peek/VisitAll.
type fakeHeaders map[string]string

func (h fakeHeaders) Peek(key string) []byte {
	v, ok := h[key]
	if !ok {
		return nil
	}
	return []byte(v)
}

func (h fakeHeaders) VisitAll(f func(key, value []byte)) {
	for k, v := range h {
		f([]byte(k), []byte(v))
	}
}

var _ Headers = fakeHeaders{}

type headersCall struct {
	h         Headers
	endStream bool
}

// fakeWriter is an in-memory FrameWriter recording every call it receives,
// with optional error injection for each method.
type fakeWriter struct {
	mu sync.Mutex

	headersSent []headersCall
	dataSent    []OutFrame
	resetsSent  []Reset
	windowDelta []int

	headersErr error
	dataErr    error
	resetErr   error
}

func (f *fakeWriter) WriteHeaders(_ context.Context, _ uint32, h Headers, endStream bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.headersErr != nil {
		return f.headersErr
	}
	f.headersSent = append(f.headersSent, headersCall{h, endStream})
	return nil
}

func (f *fakeWriter) WriteData(_ context.Context, _ uint32, fr OutFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.dataErr != nil {
		return f.dataErr
	}
	f.dataSent = append(f.dataSent, fr)
	return nil
}

func (f *fakeWriter) WriteReset(_ context.Context, _ uint32, code Reset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetErr != nil {
		return f.resetErr
	}
	f.resetsSent = append(f.resetsSent, code)
	return nil
}

func (f *fakeWriter) UpdateWindow(_ context.Context, _ uint32, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windowDelta = append(f.windowDelta, delta)
	return nil
}

func (f *fakeWriter) LocalAddr() string  { return "127.0.0.1:1234" }
func (f *fakeWriter) RemoteAddr() string { return "127.0.0.1:5678" }

func (f *fakeWriter) resets() []Reset {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Reset, len(f.resetsSent))
	copy(out, f.resetsSent)
	return out
}

var _ FrameWriter = (*fakeWriter)(nil)

// fakeStats is an in-memory Stats recording every counter/histogram sample.
type fakeStats struct {
	mu         sync.Mutex
	counters   map[string]int64
	histograms map[string][]float64
}

func newFakeStats() *fakeStats {
	return &fakeStats{counters: map[string]int64{}, histograms: map[string][]float64{}}
}

func (s *fakeStats) IncrCounter(name string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[name] += delta
}

func (s *fakeStats) ObserveHistogram(name string, value float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histograms[name] = append(s.histograms[name], value)
}

func (s *fakeStats) counter(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counters[name]
}

func (s *fakeStats) histogramSum(name string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, v := range s.histograms[name] {
		total += v
	}
	return total
}

var _ Stats = (*fakeStats)(nil)

func newTestStream(role Role) (*StreamTransport, *fakeWriter, *fakeStats) {
	fw := &fakeWriter{}
	st := newFakeStats()
	s := New(42, fw, st, role, StreamOpts{})
	return s, fw, st
}

func drainAll(ctx context.Context, b *BodyStream) ([]Frame, error) {
	var frames []Frame
	for {
		fr, err := b.Read(ctx)
		if err != nil {
			return frames, err
		}
		if fr == nil {
			return frames, nil
		}
		frames = append(frames, fr)
	}
}
