package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/google/uuid"
)

// Transport is the framing-independent contract shared by Raw and LineHex.
type Transport interface {
	Target() Target
	State() State
	Connect(ctx context.Context) error
	Reconnect(ctx context.Context) error
	Close() error
	Write(ctx context.Context, data []byte, tags ...string) (int, error)
	Read(ctx context.Context, tags ...string) ([]byte, error)
	SendTo(ctx context.Context, data []byte, dst int, tags ...string) (int, error)
	RecvFrom(ctx context.Context, tags ...string) (int, []byte, error)
}

// Conn owns one TCP stream and its lifecycle. Framers embed it and add
// Read/Write on top of the shared state machine.
//
// Conn is not safe for concurrent use beyond one in-flight read alongside one
// in-flight write.
type Conn struct {
	target Target
	cfg    Config
	state  State
	id     string
	nc     net.Conn
	r      *bufio.Reader
}

func newConn(target Target, cfg Config) *Conn {
	return &Conn{
		target: target,
		cfg:    cfg.WithDefaults(),
		state:  StateDisconnected,
	}
}

func (c *Conn) Target() Target { return c.target }

func (c *Conn) State() State { return c.state }

// ID identifies the current stream. It is empty while disconnected and
// changes on every successful connect.
func (c *Conn) ID() string { return c.id }

// Connect dials the target. The context deadline, or ConnectTimeout when the
// context has none, bounds the dial.
func (c *Conn) Connect(ctx context.Context) error {
	if c.state != StateDisconnected {
		return ErrAlreadyConnected
	}
	addr := c.target.Addr()
	dialer := net.Dialer{}
	if _, ok := ctx.Deadline(); !ok {
		dialer.Timeout = c.cfg.ConnectTimeout
	}
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		err = classify(ctx, "connect", addr, err)
		c.cfg.Logger.Debug().Str("addr", addr).Err(err).Msg("transport.Conn.Connect failed")
		return err
	}
	c.nc = nc
	c.r = bufio.NewReaderSize(nc, c.cfg.BufSize)
	c.id = uuid.NewString()
	c.state = StateConnected
	c.cfg.Logger.Debug().Str("addr", addr).Str("conn_id", c.id).Msg("transport.Conn.Connect connected")
	return nil
}

// Reconnect closes the stream and dials again. It is not atomic: when the
// dial fails the Conn stays disconnected.
func (c *Conn) Reconnect(ctx context.Context) error {
	if err := c.Close(); err != nil {
		return err
	}
	return c.Connect(ctx)
}

// Close releases the stream. Writes are never buffered here, so nothing is
// pending and a failed earlier write does not make Close fail. The Conn is
// disconnected afterwards even when closing fails.
func (c *Conn) Close() error {
	if c.state != StateConnected {
		return ErrNotConnected
	}
	addr := c.target.Addr()
	id := c.id

	err := c.nc.Close()

	c.nc, c.r = nil, nil
	c.id = ""
	c.state = StateDisconnected

	if err != nil {
		c.cfg.Logger.Debug().Str("addr", addr).Str("conn_id", id).Err(err).Msg("transport.Conn.Close failed")
		return fmt.Errorf("%w: close %s: %w", ErrConnection, addr, err)
	}
	c.cfg.Logger.Debug().Str("addr", addr).Str("conn_id", id).Msg("transport.Conn.Close closed")
	return nil
}

// SendTo is unsupported on a stream transport.
func (c *Conn) SendTo(ctx context.Context, data []byte, dst int, tags ...string) (int, error) {
	return 0, fmt.Errorf("%w: sendto on stream transport", ErrNotSupported)
}

// RecvFrom is unsupported on a stream transport.
func (c *Conn) RecvFrom(ctx context.Context, tags ...string) (int, []byte, error) {
	return 0, nil, fmt.Errorf("%w: recvfrom on stream transport", ErrNotSupported)
}

// writeWire hands all of wire to the socket. Errors are not sticky: the next
// call starts from a clean state.
func (c *Conn) writeWire(ctx context.Context, wire []byte) error {
	addr := c.target.Addr()
	done, err := bind(ctx, c.nc.SetWriteDeadline, c.cfg.WriteTimeout)
	if err != nil {
		return classify(ctx, "write", addr, err)
	}
	defer done()

	for len(wire) > 0 {
		n, err := c.nc.Write(wire)
		if err != nil {
			return classify(ctx, "write", addr, err)
		}
		wire = wire[n:]
	}
	return nil
}

// readChunk returns up to BufSize bytes, or an empty slice once the peer has
// closed its side.
func (c *Conn) readChunk(ctx context.Context) ([]byte, error) {
	addr := c.target.Addr()
	done, err := bind(ctx, c.nc.SetReadDeadline, c.cfg.ReadTimeout)
	if err != nil {
		return nil, classify(ctx, "read", addr, err)
	}
	defer done()

	buf := make([]byte, c.cfg.BufSize)
	n, err := c.r.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return []byte{}, nil
	}
	return nil, classify(ctx, "read", addr, err)
}

// readLine returns one line including its terminator. At end of stream it
// returns whatever unterminated bytes remain, possibly none.
func (c *Conn) readLine(ctx context.Context) ([]byte, error) {
	addr := c.target.Addr()
	done, err := bind(ctx, c.nc.SetReadDeadline, c.cfg.ReadTimeout)
	if err != nil {
		return nil, classify(ctx, "read", addr, err)
	}
	defer done()

	var line []byte
	for {
		chunk, err := c.r.ReadSlice('\n')
		if len(line)+len(chunk) > c.cfg.MaxLineBytes {
			return nil, fmt.Errorf("%w: read %s: more than %d bytes", ErrLineTooLong, addr, c.cfg.MaxLineBytes)
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return line, nil
		default:
			return nil, classify(ctx, "read", addr, err)
		}
	}
}

// bind applies the context deadline, or fallback when the context has none,
// to one direction of the stream. Cancelling ctx moves that deadline into the
// past so the pending call returns. The returned func releases the watcher.
func bind(ctx context.Context, set func(time.Time) error, fallback time.Duration) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var deadline time.Time
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	} else if fallback > 0 {
		deadline = time.Now().Add(fallback)
	}
	if err := set(deadline); err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() {
		_ = set(time.Unix(1, 0))
	})
	return func() { stop() }, nil
}

// classify maps an I/O failure to the package error kinds. Cancellation is
// reported as context.Canceled rather than as a timeout.
func classify(ctx context.Context, op, addr string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("transport: %s %s: %w", op, addr, context.Canceled)
	case errors.Is(ctx.Err(), context.DeadlineExceeded), isTimeout(err):
		return fmt.Errorf("%w: %s %s: %w", ErrTimeout, op, addr, err)
	default:
		return fmt.Errorf("%w: %s %s: %w", ErrConnection, op, addr, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

var (
	_ Transport = (*Raw)(nil)
	_ Transport = (*LineHex)(nil)
)
