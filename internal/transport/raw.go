package transport

import "context"

// Raw passes bytes through unframed. Chunk boundaries are not preserved
// across the wire.
type Raw struct {
	*Conn
}

// NewRaw returns a disconnected raw transport for target.
func NewRaw(target Target, cfg Config) *Raw {
	return &Raw{Conn: newConn(target, cfg)}
}

// Write sends all of data and returns len(data). After ErrTimeout a partial
// write may have reached the peer; reconnect before relying on byte counts.
func (t *Raw) Write(ctx context.Context, data []byte, tags ...string) (int, error) {
	if t.state != StateConnected {
		return 0, ErrNotConnected
	}
	record(t.cfg.Recorder, t.cfg.Logger, data, tags, TagWrite)
	if err := t.writeWire(ctx, data); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Read returns the next available chunk of at most BufSize bytes. An empty,
// non-nil slice means the peer closed the stream.
func (t *Raw) Read(ctx context.Context, tags ...string) ([]byte, error) {
	if t.state != StateConnected {
		return nil, ErrNotConnected
	}
	data, err := t.readChunk(ctx)
	if err != nil {
		return nil, err
	}
	record(t.cfg.Recorder, t.cfg.Logger, data, tags, TagRead)
	return data, nil
}
