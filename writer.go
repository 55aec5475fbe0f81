package h2stream

import "context"

// FrameWriter is the external collaborator that actually puts bytes on the
// wire (spec §6). It is assumed serialized by its owner. The body drain
// issues its writes one at a time, but WriteReset runs on whichever
// goroutine raises a local reset, so it may overlap a body write.
type FrameWriter interface {
	WriteHeaders(ctx context.Context, streamID uint32, h Headers, endStream bool) error
	WriteData(ctx context.Context, streamID uint32, fr OutFrame) error
	WriteReset(ctx context.Context, streamID uint32, code Reset) error
	UpdateWindow(ctx context.Context, streamID uint32, delta int) error

	LocalAddr() string
	RemoteAddr() string
}

// Stats is the metrics collaborator (spec §6): six counters and two
// histograms, all keyed by direction.
type Stats interface {
	IncrCounter(name string, delta int64)
	ObserveHistogram(name string, value float64)
}

// NopStats is the null-object default for Stats (spec §9: "Global logger /
// stats: treat as injected collaborators with a null-object default").
type NopStats struct{}

func (NopStats) IncrCounter(string, int64)        {}
func (NopStats) ObserveHistogram(string, float64) {}

var _ Stats = NopStats{}

const (
	statLocalReset     = "local.reset"
	statRemoteReset    = "remote.reset"
	statLocalTrailers  = "local.trailers"
	statRemoteTrailers = "remote.trailers"
	statLocalBytes     = "local.data.bytes"
	statRemoteBytes    = "remote.data.bytes"
	statLocalFrames    = "local.data.frames"
	statRemoteFrames   = "remote.data.frames"
)
