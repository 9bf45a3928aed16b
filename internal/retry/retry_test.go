package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/danmuck/tcpwire/internal/echo"
	"github.com/danmuck/tcpwire/internal/testutil/testlog"
	"github.com/danmuck/tcpwire/internal/transport"
)

func TestNextDelayGrowsAndCaps(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond}
	want := []time.Duration{100, 200, 300, 300}
	for i, w := range want {
		if got := NextDelay(cfg, i+1, nil); got != w*time.Millisecond {
			t.Fatalf("attempt %d: got=%s want=%s", i+1, got, w*time.Millisecond)
		}
	}
}

func TestNextDelayJitterBounds(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second, Jitter: true}
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 50; i++ {
		got := NextDelay(cfg, 3, rng)
		if got < 200*time.Millisecond || got > 600*time.Millisecond {
			t.Fatalf("jittered delay out of bounds: %s", got)
		}
	}
	if got := NextDelay(cfg, 2, nil); got != 100*time.Millisecond {
		t.Fatalf("nil rng jitter: got=%s", got)
	}
}

func TestNextDelayJitterNeverExceedsMax(t *testing.T) {
	cfg := BackoffConfig{InitialDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: 300 * time.Millisecond, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		if got := NextDelay(cfg, 4, rng); got > cfg.MaxDelay {
			t.Fatalf("jittered delay above cap: got=%s max=%s", got, cfg.MaxDelay)
		}
	}
	if got := NextDelay(BackoffConfig{}, 3, rng); got != 0 {
		t.Fatalf("zero initial delay: got=%s want=0", got)
	}
}

func TestRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{err: nil, want: false},
		{err: transport.ErrNotConnected, want: false},
		{err: transport.ErrAlreadyConnected, want: false},
		{err: fmt.Errorf("%w: dial", transport.ErrConnection), want: true},
		{err: fmt.Errorf("%w: dial", transport.ErrTimeout), want: true},
		{err: fmt.Errorf("x: %w", context.Canceled), want: false},
		{err: transport.ErrDecoding, want: false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Fatalf("Retryable(%v): got=%v want=%v", tc.err, got, tc.want)
		}
	}
}

func targetOf(t *testing.T, addr string) transport.Target {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	target, err := transport.NewTarget(host, port)
	if err != nil {
		t.Fatalf("target: %v", err)
	}
	return target
}

func TestConnectGivesUpAfterMaxAttempts(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := targetOf(t, ln.Addr().String())
	_ = ln.Close()

	tr := transport.NewRaw(target, transport.Config{})
	p := Policy{MaxAttempts: 3, Backoff: BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 1}}
	if err := Connect(context.Background(), tr, p); !errors.Is(err, transport.ErrConnection) {
		t.Fatalf("expected ErrConnection, got %v", err)
	}
	if tr.State() != transport.StateDisconnected {
		t.Fatalf("state: %s", tr.State())
	}
}

func TestConnectDoesNotRetryUsage(t *testing.T) {
	testlog.Start(t)
	srv, err := echo.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("echo listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = srv.Serve(ctx) }()

	tr := transport.NewRaw(targetOf(t, srv.Addr().String()), transport.Config{})
	if err := Connect(ctx, tr, DefaultPolicy()); err != nil {
		t.Fatalf("first connect: %v", err)
	}
	defer tr.Close()

	start := time.Now()
	if err := Connect(ctx, tr, DefaultPolicy()); !errors.Is(err, transport.ErrAlreadyConnected) {
		t.Fatalf("expected ErrAlreadyConnected, got %v", err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("usage violation was retried")
	}

	if err := Reconnect(ctx, tr, DefaultPolicy()); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if tr.State() != transport.StateConnected {
		t.Fatalf("state after reconnect: %s", tr.State())
	}
}

func TestConnectStopsOnContextCancel(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	target := targetOf(t, ln.Addr().String())
	_ = ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	tr := transport.NewRaw(target, transport.Config{})
	p := Policy{MaxAttempts: 0, Backoff: BackoffConfig{InitialDelay: 20 * time.Millisecond, Multiplier: 1}}
	err = Connect(ctx, tr, p)
	if err == nil {
		t.Fatalf("expected error once context expired")
	}
}
