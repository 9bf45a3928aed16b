package transport

import (
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultBufSize caps the bytes returned by one raw read.
	DefaultBufSize = 4096
	// DefaultMaxLineBytes caps one line-hex frame on the wire, terminator included.
	DefaultMaxLineBytes = 1 << 20
)

// Config defines per-connection limits, fallback timeouts, and sinks.
//
// Timeouts apply only when the caller's context carries no deadline.
// A zero timeout waits indefinitely.
type Config struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BufSize        int
	MaxLineBytes   int
	Recorder       Recorder
	Logger         *zerolog.Logger
}

// DefaultConfig returns the stock limits with no fallback timeouts.
func DefaultConfig() Config {
	return Config{
		BufSize:      DefaultBufSize,
		MaxLineBytes: DefaultMaxLineBytes,
	}
}

// WithDefaults fills zero-valued fields.
func (c Config) WithDefaults() Config {
	if c.BufSize <= 0 {
		c.BufSize = DefaultBufSize
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = DefaultMaxLineBytes
	}
	if c.Recorder == nil {
		c.Recorder = nopRecorder{}
	}
	if c.Logger == nil {
		nop := zerolog.Nop()
		c.Logger = &nop
	}
	return c
}
