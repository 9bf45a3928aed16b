package transport

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
)

// LineHex frames each payload as one line of lowercase hex text terminated
// by '\n'.
type LineHex struct {
	*Conn
}

// NewLineHex returns a disconnected line-hex transport for target.
func NewLineHex(target Target, cfg Config) *LineHex {
	return &LineHex{Conn: newConn(target, cfg)}
}

// Write sends hex(data)+"\n" as a single unit and returns len(data), the
// payload length rather than the wire length.
func (t *LineHex) Write(ctx context.Context, data []byte, tags ...string) (int, error) {
	if t.state != StateConnected {
		return 0, ErrNotConnected
	}
	record(t.cfg.Recorder, t.cfg.Logger, data, tags, TagWrite)
	if err := t.writeWire(ctx, EncodeLine(data)); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Read waits for one full line and decodes it. A malformed line is still
// recorded, as received, and fails with ErrDecoding; the stream stays
// connected and the next line can be read.
func (t *LineHex) Read(ctx context.Context, tags ...string) ([]byte, error) {
	if t.state != StateConnected {
		return nil, ErrNotConnected
	}
	line, err := t.readLine(ctx)
	if err != nil {
		return nil, err
	}
	data, err := DecodeLine(line)
	if err != nil {
		recordPayload(t.cfg.Recorder, t.cfg.Logger, string(bytes.TrimSpace(line)), tags, TagRead)
		return nil, fmt.Errorf("read %s: %w", t.target.Addr(), err)
	}
	record(t.cfg.Recorder, t.cfg.Logger, data, tags, TagRead)
	return data, nil
}

// EncodeLine returns the line-hex wire form of data.
func EncodeLine(data []byte) []byte {
	out := make([]byte, hex.EncodedLen(len(data))+1)
	hex.Encode(out, data)
	out[len(out)-1] = '\n'
	return out
}

// DecodeLine decodes one line-hex frame. Surrounding whitespace, including
// the terminator and a trailing '\r', is ignored.
func DecodeLine(line []byte) ([]byte, error) {
	body := bytes.TrimSpace(line)
	out := make([]byte, hex.DecodedLen(len(body)))
	if _, err := hex.Decode(out, body); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	return out, nil
}
