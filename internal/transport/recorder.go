package transport

import (
	"encoding/hex"

	"github.com/rs/zerolog"
)

const (
	TagWrite = "write"
	TagRead  = "read"
)

// Recorder receives one trace event per frame read or written.
// payload is the lowercase hex encoding of the frame bytes. For a line-hex
// line that fails to decode it is the trimmed line text as received.
type Recorder interface {
	Record(payload string, tags []string)
}

// RecorderFunc adapts a function to Recorder.
type RecorderFunc func(payload string, tags []string)

func (f RecorderFunc) Record(payload string, tags []string) { f(payload, tags) }

type nopRecorder struct{}

func (nopRecorder) Record(string, []string) {}

// record hands the hex form of data to r.
func record(r Recorder, log *zerolog.Logger, data []byte, tags []string, direction string) {
	recordPayload(r, log, hex.EncodeToString(data), tags, direction)
}

// recordPayload hands payload to r on a fresh tag slice. A panicking recorder
// is logged and otherwise ignored.
func recordPayload(r Recorder, log *zerolog.Logger, payload string, tags []string, direction string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Warn().Interface("panic", rec).Str("direction", direction).Msg("transport.record recorder panicked")
		}
	}()
	r.Record(payload, append(append(make([]string, 0, len(tags)+1), tags...), direction))
}
