package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/tcpwire/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadOverlaysDefinedKeys(t *testing.T) {
	testlog.Start(t)
	path := writeConfig(t, `
uri = "tcp-lines://10.0.0.5:20"
read_timeout = "250ms"
buf_size = 512
retry_attempts = 4
retry_jitter = false
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := Default()
	if cfg.URI != "tcp-lines://10.0.0.5:20" {
		t.Fatalf("uri: %q", cfg.URI)
	}
	if cfg.ReadTimeout != 250*time.Millisecond || cfg.BufSize != 512 {
		t.Fatalf("overlay: read_timeout=%s buf_size=%d", cfg.ReadTimeout, cfg.BufSize)
	}
	if cfg.WriteTimeout != def.WriteTimeout || cfg.MaxLineBytes != def.MaxLineBytes {
		t.Fatalf("defaults not kept: %+v", cfg)
	}
	if cfg.Retry.Attempts != 4 || cfg.Retry.Jitter {
		t.Fatalf("retry overlay: %+v", cfg.Retry)
	}

	tc := TransportConfig(cfg)
	if tc.ReadTimeout != 250*time.Millisecond || tc.BufSize != 512 {
		t.Fatalf("transport projection: %+v", tc)
	}
	if p := RetryPolicy(cfg); p.MaxAttempts != 4 || p.Backoff.Jitter {
		t.Fatalf("retry projection: %+v", p)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"read_timeout":   `read_timeout = "soon"`,
		"buf_size":       `buf_size = 4`,
		"uri":            `uri = "  "`,
		"unknown key":    `bogus = 1`,
		"retry_multiply": `retry_multiplier = 0.5`,
	}
	for name, body := range cases {
		if _, err := Load(writeConfig(t, body)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("missing file: expected error")
	}
}

func TestTemplateLoadsToDefaults(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := WriteTemplate(path, false); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if err := WriteTemplate(path, false); err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("expected overwrite guard, got %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("template drifted from defaults:\n got=%+v\nwant=%+v", cfg, Default())
	}
}
