package observability

import (
	"github.com/danmuck/tcpwire/internal/transport"
	"github.com/rs/zerolog"
)

// LogRecorder writes every frame as a trace-level event.
type LogRecorder struct {
	Logger zerolog.Logger
}

func (r LogRecorder) Record(payload string, tags []string) {
	r.Logger.Trace().Strs("tags", tags).Str("data", payload).Msg("transport.frame")
}

// MetricsRecorder counts frames and payload bytes per direction.
type MetricsRecorder struct {
	Node string
}

func (r MetricsRecorder) Record(payload string, tags []string) {
	RecordFrame(r.Node, direction(tags), len(payload)/2)
}

// Multi fans one event out to several recorders in order.
type Multi []transport.Recorder

func (m Multi) Record(payload string, tags []string) {
	for _, r := range m {
		if r != nil {
			r.Record(payload, tags)
		}
	}
}

// direction is the trailing read/write tag a transport appends.
func direction(tags []string) string {
	if len(tags) == 0 {
		return "unknown"
	}
	switch last := tags[len(tags)-1]; last {
	case transport.TagRead, transport.TagWrite:
		return last
	default:
		return "unknown"
	}
}
