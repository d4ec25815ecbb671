package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config controls exponential backoff behavior for remote calls.
type Config struct {
	MaxRetries int           `json:"max_retries"`
	BaseDelay  time.Duration `json:"base_delay"`
	MaxDelay   time.Duration `json:"max_delay"`
	Multiplier float64       `json:"multiplier"`
	Jitter     bool          `json:"jitter"` // randomize delays to avoid thundering herd
	LogRetries bool          `json:"log_retries"`
}

// Result describes how a retried operation went.
type Result struct {
	Attempts      int           `json:"attempts"`
	TotalDuration time.Duration `json:"total_duration"`
	LastError     error         `json:"-"`
	Success       bool          `json:"success"`
}

// DefaultConfig returns sensible defaults for local operations.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// RemoteAPIConfig returns a configuration tuned for helpdesk API requests,
// which are rate limited and can stall for several seconds under load.
func RemoteAPIConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  2 * time.Second,
		MaxDelay:   60 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		LogRetries: true,
	}
}

// Retryable marks errors that carry their own transience verdict. Errors
// that do not implement it fall back to the IsRetryableError heuristics.
type Retryable interface {
	Retryable() bool
}

// Do executes op with exponential backoff. It stops early when op succeeds,
// when the error is not retryable, or when ctx is cancelled.
func Do(ctx context.Context, cfg Config, op func() error) Result {
	start := time.Now()
	result := Result{}

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		result.Attempts = attempt + 1

		err := op()
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(start)
			return result
		}
		result.LastError = err

		if !isRetryable(err) || attempt >= cfg.MaxRetries {
			result.TotalDuration = time.Since(start)
			if cfg.LogRetries {
				log.Debug().Err(err).Int("attempts", result.Attempts).
					Msg("operation failed, not retrying")
			}
			return result
		}

		delay := backoffDelay(cfg, attempt)
		if cfg.LogRetries {
			log.Debug().Err(err).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("operation failed, retrying after backoff")
		}

		select {
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(start)
			return result
		case <-time.After(delay):
		}
	}

	result.TotalDuration = time.Since(start)
	return result
}

// backoffDelay computes baseDelay * multiplier^attempt, capped at MaxDelay,
// with up to 10% jitter either way.
func backoffDelay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter {
		jitterRange := delay * 0.1
		delay += (rand.Float64() - 0.5) * 2 * jitterRange
		if delay < 0 {
			delay = float64(cfg.BaseDelay)
		}
	}

	return time.Duration(delay)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var r Retryable
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return IsRetryableError(err)
}

// IsRetryableError reports whether an error looks like a transient network
// or server-side failure worth retrying.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	retryable := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"service unavailable",
		"too many requests",
		"429",
		"502",
		"503",
		"504",
		"no such host",
		"network unreachable",
		"broken pipe",
		"context deadline exceeded",
	}

	for _, s := range retryable {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
