package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/tcpwire/internal/echo"
	"github.com/danmuck/tcpwire/internal/testutil/testlog"
)

func runCLI(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func startEcho(t *testing.T) string {
	t.Helper()
	srv, err := echo.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("echo listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Serve(ctx) }()
	t.Cleanup(cancel)
	return srv.Addr().String()
}

func TestSendLineHexAgainstEcho(t *testing.T) {
	testlog.Start(t)
	addr := startEcho(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := runCLI(t, ctx, "send", "--uri", "tcp-lines://"+addr, "0102", "ff")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if out != "0102\nff\n" {
		t.Fatalf("output: got=%q want=%q", out, "0102\nff\n")
	}
}

func TestSendRejectsBadPayload(t *testing.T) {
	testlog.Start(t)
	_, err := runCLI(t, context.Background(), "send", "--uri", "tcp://127.0.0.1:9", "abc")
	if err == nil || !strings.Contains(err.Error(), "payload") {
		t.Fatalf("expected payload error, got %v", err)
	}
}

func TestSendUsesConfigFile(t *testing.T) {
	testlog.Start(t)
	addr := startEcho(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	body := "uri = \"tcp://" + addr + "\"\nread_timeout = \"2s\"\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out, err := runCLI(t, ctx, "--config", path, "send", "0a0b")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	// Raw framing may split the echo; a 2-byte payload arrives whole on loopback.
	if strings.TrimSpace(out) != "0a0b" {
		t.Fatalf("output: %q", out)
	}
}

func TestConfigInitAndVersion(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	out, err := runCLI(t, context.Background(), "config", "init", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Fatalf("config init output: %q", out)
	}
	if _, err := runCLI(t, context.Background(), "--config", path, "version"); err != nil {
		t.Fatalf("version with generated config: %v", err)
	}
}

func TestListenStopsOnCancel(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runListen(ctx, "127.0.0.1:0", "127.0.0.1:0") }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("listen did not stop")
	}
}
