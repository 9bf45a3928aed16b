package retry

import (
	"math"
	"math/rand"
	"time"
)

// BackoffConfig defines retry backoff behavior.
type BackoffConfig struct {
	InitialDelay time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	Jitter       bool
}

func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// NextDelay returns the wait before retrying after failed attempt N
// (1-based). Growth is exponential from InitialDelay. Jitter scales the delay
// by a factor in [0.5, 1.5), and the result never exceeds MaxDelay when set.
func NextDelay(cfg BackoffConfig, attempt int, rng *rand.Rand) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	attempt = max(attempt, 1)
	growth := max(cfg.Multiplier, 1.0)

	delay := float64(cfg.InitialDelay) * math.Pow(growth, float64(attempt-1))
	if cfg.Jitter {
		factor := 0.5
		if rng != nil {
			factor += rng.Float64()
		}
		delay *= factor
	}
	if limit := float64(cfg.MaxDelay); cfg.MaxDelay > 0 && delay > limit {
		delay = limit
	}
	return time.Duration(delay)
}
