package explorer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/Fantasim/tronxfer/internal/config"
)

// BackoffFunc returns the delay after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff waits attempt*unit: 1, 2, 3, ... units.
func LinearBackoff(unit time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * unit
	}
}

// RetryPolicy bounds how a single operation is retried. Only errors marked
// with config.NewTransientError are retried; anything else returns at once.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     BackoffFunc
}

// Delay returns the wait after failed attempt n given its error. A
// Retry-After hint longer than the policy's own delay wins.
func (p RetryPolicy) Delay(attempt int, err error) time.Duration {
	var d time.Duration
	if p.Backoff != nil {
		d = p.Backoff(attempt)
	}
	if ra := config.GetRetryAfter(err); ra > d {
		d = ra
	}
	return d
}

// Do runs op until it succeeds, returns a non-transient error, or
// MaxAttempts attempts have failed. It reports how many attempts ran.
// When attempts are exhausted the last transient error is returned.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := 0
	var lastErr error

	backoff := retry.BackoffFunc(func() (time.Duration, bool) {
		if attempt >= maxAttempts {
			return 0, true
		}
		return p.Delay(attempt, lastErr), false
	})

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := op(ctx, attempt)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !config.IsTransient(err) {
			return err
		}

		if attempt < maxAttempts {
			slog.Warn("attempt failed, retrying",
				"attempt", attempt,
				"maxAttempts", maxAttempts,
				"delay", p.Delay(attempt, err),
				"error", err,
			)
		}
		return retry.RetryableError(err)
	})

	return attempt, err
}
