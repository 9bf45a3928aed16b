package config

import (
	"github.com/danmuck/tcpwire/internal/retry"
	"github.com/danmuck/tcpwire/internal/transport"
)

// TransportConfig projects cfg onto per-connection transport settings.
// Sinks are left for the caller to attach.
func TransportConfig(cfg Config) transport.Config {
	return transport.Config{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		BufSize:        cfg.BufSize,
		MaxLineBytes:   cfg.MaxLineBytes,
	}
}

// RetryPolicy projects cfg onto the connect retry policy.
func RetryPolicy(cfg Config) retry.Policy {
	return retry.Policy{
		MaxAttempts: cfg.Retry.Attempts,
		Backoff: retry.BackoffConfig{
			InitialDelay: cfg.Retry.InitialDelay,
			Multiplier:   cfg.Retry.Multiplier,
			MaxDelay:     cfg.Retry.MaxDelay,
			Jitter:       cfg.Retry.Jitter,
		},
	}
}
