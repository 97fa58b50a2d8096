// Package retry runs an operation again after transient failures, waiting an
// exponentially growing backoff between attempts.
//
//	err := retry.Do(ctx, cfg, func() error {
//	    return page()
//	}, timestream.IsThrottled)
//
// The wait before attempt n (1-based, first retry) is InitialBackoff * 2^(n-1),
// capped at MaxBackoff, plus a jitter that grows with the attempt number.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Config defines the retry behavior.
//
// The zero value is not usable; MaxRetries and InitialBackoff must be set.
type Config struct {
	// MaxRetries is the number of times fn is called at most.
	MaxRetries int `yaml:"max_retries" env:"RETRY_MAX_RETRIES"`

	// InitialBackoff is the wait before the first retry.
	InitialBackoff time.Duration `yaml:"initial_backoff" env:"RETRY_INITIAL_BACKOFF"`

	// MaxBackoff caps the wait. Zero means uncapped.
	MaxBackoff time.Duration `yaml:"max_backoff" env:"RETRY_MAX_BACKOFF"`

	// Jitter adds up to Jitter*backoff (0.0 to 1.0), growing linearly with the attempt.
	Jitter float64 `yaml:"jitter" env:"RETRY_JITTER"`

	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration) `yaml:"-"`
}

// ShouldRetryFunc decides whether err is transient. A nil ShouldRetryFunc
// retries every error.
type ShouldRetryFunc func(error) bool

// Do calls fn until it succeeds, returns a permanent error, the context is
// done, or MaxRetries attempts were made. The exhausted error wraps the last
// error from fn.
func Do(ctx context.Context, cfg Config, fn func() error, shouldRetry ShouldRetryFunc) error {
	var lastErr error

	for attempt := 0; attempt < cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := Backoff(cfg, attempt)
			if cfg.OnRetry != nil {
				cfg.OnRetry(attempt, lastErr, wait)
			}
			if err := sleep(ctx, wait); err != nil {
				return err
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		if shouldRetry != nil && !shouldRetry(err) {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("failed after %d retries: %w", cfg.MaxRetries, lastErr)
}

// Backoff returns the wait before the given retry attempt (1-based).
func Backoff(cfg Config, attempt int) time.Duration {
	backoff := time.Duration(math.Pow(2, float64(attempt-1)) * float64(cfg.InitialBackoff))

	if cfg.MaxBackoff > 0 && backoff > cfg.MaxBackoff {
		backoff = cfg.MaxBackoff
	}

	if cfg.Jitter > 0 && cfg.MaxRetries > 0 {
		backoff += time.Duration(float64(backoff) * cfg.Jitter * float64(attempt) / float64(cfg.MaxRetries))
	}

	return backoff
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
