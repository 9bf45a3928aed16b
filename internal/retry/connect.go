// Package retry is the resilience layer above transport: bounded connect
// retries with exponential backoff. Transports never retry on their own.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/danmuck/tcpwire/internal/transport"
	"github.com/rs/zerolog/log"
)

// Policy bounds connect attempts. MaxAttempts <= 0 retries until ctx ends.
type Policy struct {
	MaxAttempts int
	Backoff     BackoffConfig
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		Backoff:     DefaultBackoff(),
	}
}

// Retryable reports whether err is a runtime condition worth another attempt.
// Usage violations and cancellation are never retried.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, transport.ErrUsage) || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, transport.ErrConnection) || errors.Is(err, transport.ErrTimeout)
}

// Connect calls t.Connect until it succeeds, fails with a non-retryable
// error, or the policy runs out of attempts.
func Connect(ctx context.Context, t transport.Transport, p Policy) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	var attempt int
	for {
		attempt++
		err := t.Connect(ctx)
		if err == nil {
			return nil
		}
		log.Warn().Int("attempt", attempt).Str("addr", t.Target().Addr()).Err(err).Msg("retry.Connect attempt failed")
		if !Retryable(err) || !shouldRetry(p, attempt) {
			return err
		}
		if err := sleep(ctx, NextDelay(p.Backoff, attempt, rng)); err != nil {
			return err
		}
	}
}

// Reconnect closes t when connected and then applies Connect.
func Reconnect(ctx context.Context, t transport.Transport, p Policy) error {
	if t.State() == transport.StateConnected {
		if err := t.Close(); err != nil {
			log.Debug().Str("addr", t.Target().Addr()).Err(err).Msg("retry.Reconnect close failed")
		}
	}
	return Connect(ctx, t, p)
}

func shouldRetry(p Policy, attempt int) bool {
	if p.MaxAttempts <= 0 {
		return true
	}
	return attempt < p.MaxAttempts
}

func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
