package h2stream

import "github.com/valyala/fasthttp"

// nopLogger discards everything; the zero value of StreamOpts.Logger.
type nopLogger struct{}

func (nopLogger) Printf(string, ...interface{}) {}

var _ fasthttp.Logger = nopLogger{}

// logf writes a debug-gated, stream-id-prefixed log line through the
// injected fasthttp.Logger, matching the teacher's serverConn pattern of
// gating every log line on a debug flag rather than a log level
// (legacy/serverConn.go: "if sc.debug { sc.logger.Printf(...) }").
func (s *StreamTransport) logf(format string, args ...interface{}) {
	if !s.debug {
		return
	}
	prefixed := make([]interface{}, 0, len(args)+3)
	prefixed = append(prefixed, s.streamID, s.writer.LocalAddr(), s.writer.RemoteAddr())
	prefixed = append(prefixed, args...)
	s.logger.Printf("[stream %d %s->%s] "+format, prefixed...)
}
