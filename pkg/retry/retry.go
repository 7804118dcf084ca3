package retry

import (
	"context"
	"errors"
	"time"
)

// Config bounds a retry loop.
type Config struct {
	MaxAttempts int
	Backoff     time.Duration
}

func (c Config) normalize() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.Backoff < 0 {
		c.Backoff = 0
	}
	return c
}

// Permanent marks an error as non-retryable; Do stops immediately when the
// callback returns one.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string {
	if p.Err == nil {
		return "permanent failure"
	}
	return p.Err.Error()
}

func (p *Permanent) Unwrap() error {
	return p.Err
}

// Stop wraps err so that Do gives up without further attempts.
func Stop(err error) error {
	return &Permanent{Err: err}
}

// Do runs fn up to cfg.MaxAttempts times, sleeping cfg.Backoff between
// attempts. It returns nil on the first success, the last error otherwise.
// Context cancellation aborts the loop between attempts.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context, attempt int) error) error {
	cfg = cfg.normalize()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return perm.Err
		}

		if attempt == cfg.MaxAttempts || cfg.Backoff == 0 {
			continue
		}

		timer := time.NewTimer(cfg.Backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}

// DoValue is Do for callbacks that produce a value. On exhaustion it returns
// the provided fallback together with the last error.
func DoValue[T any](ctx context.Context, cfg Config, fallback T, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var value T
	err := Do(ctx, cfg, func(ctx context.Context, attempt int) error {
		var innerErr error
		value, innerErr = fn(ctx, attempt)
		return innerErr
	})
	if err != nil {
		return fallback, err
	}
	return value, nil
}
