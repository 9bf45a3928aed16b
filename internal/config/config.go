package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the resolved wirectl runtime configuration.
type Config struct {
	URI            string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	BufSize        int
	MaxLineBytes   int
	ListenAddr     string
	MetricsAddr    string
	LogLevel       string
	Retry          RetryConfig
}

// RetryConfig mirrors retry.Policy in file-friendly form.
type RetryConfig struct {
	Attempts     int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// wirectl config.toml key mapping. Durations are Go duration strings.
type fileConfig struct {
	URI               string  `toml:"uri"`
	ConnectTimeout    string  `toml:"connect_timeout"`
	ReadTimeout       string  `toml:"read_timeout"`
	WriteTimeout      string  `toml:"write_timeout"`
	BufSize           int     `toml:"buf_size"`
	MaxLineBytes      int     `toml:"max_line_bytes"`
	ListenAddr        string  `toml:"listen_addr"`
	MetricsAddr       string  `toml:"metrics_addr"`
	LogLevel          string  `toml:"log_level"`
	RetryAttempts     int     `toml:"retry_attempts"`
	RetryInitialDelay string  `toml:"retry_initial_delay"`
	RetryMaxDelay     string  `toml:"retry_max_delay"`
	RetryMultiplier   float64 `toml:"retry_multiplier"`
	RetryJitter       bool    `toml:"retry_jitter"`
}

func Default() Config {
	return Config{
		URI:            "tcp://127.0.0.1:9000",
		ConnectTimeout: 5 * time.Second,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		BufSize:        4096,
		MaxLineBytes:   1 << 20,
		ListenAddr:     "127.0.0.1:9000",
		LogLevel:       "info",
		Retry: RetryConfig{
			Attempts:     1,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
	}
}

// Load overlays the keys present in the TOML file at path onto Default.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config parse failed (%s): unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("uri") {
		cfg.URI = strings.TrimSpace(raw.URI)
	}
	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.ReadTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.WriteTimeout},
		{"retry_initial_delay", raw.RetryInitialDelay, &cfg.Retry.InitialDelay},
		{"retry_max_delay", raw.RetryMaxDelay, &cfg.Retry.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %s: %w", path, d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("buf_size") {
		cfg.BufSize = raw.BufSize
	}
	if meta.IsDefined("max_line_bytes") {
		cfg.MaxLineBytes = raw.MaxLineBytes
	}
	if meta.IsDefined("listen_addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.ListenAddr)
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("retry_attempts") {
		cfg.Retry.Attempts = raw.RetryAttempts
	}
	if meta.IsDefined("retry_multiplier") {
		cfg.Retry.Multiplier = raw.RetryMultiplier
	}
	if meta.IsDefined("retry_jitter") {
		cfg.Retry.Jitter = raw.RetryJitter
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.URI) == "" {
		return fmt.Errorf("uri is required")
	}
	if cfg.ConnectTimeout < 0 || cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	if cfg.BufSize < 16 {
		return fmt.Errorf("buf_size must be at least 16, got %d", cfg.BufSize)
	}
	if cfg.MaxLineBytes < 2 {
		return fmt.Errorf("max_line_bytes must be at least 2, got %d", cfg.MaxLineBytes)
	}
	if cfg.Retry.Attempts < 0 {
		return fmt.Errorf("retry_attempts must not be negative")
	}
	if cfg.Retry.Multiplier < 1.0 {
		return fmt.Errorf("retry_multiplier must be >= 1.0, got %v", cfg.Retry.Multiplier)
	}
	return nil
}
