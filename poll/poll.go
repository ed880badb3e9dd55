// Package poll provides a bounded wait-until-ready primitive for external
// resources that become usable asynchronously.
package poll

import (
	"context"
	"fmt"
	"time"
)

// Config holds polling configuration.
type Config struct {
	// Interval between readiness checks.
	Interval time.Duration
	// AttemptTimeout bounds each individual readiness check.
	AttemptTimeout time.Duration
	// Deadline bounds the whole wait.
	Deadline time.Duration
	// OnProgress, if set, receives min(elapsed/deadline, 0.95) once per cycle
	// so callers can report motion during long waits.
	OnProgress func(fraction float64)
}

// Option is a functional option for polling configuration.
type Option func(*Config)

// WithInterval sets the delay between readiness checks.
func WithInterval(d time.Duration) Option {
	return func(c *Config) { c.Interval = d }
}

// WithAttemptTimeout sets the timeout applied to each readiness check call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Config) { c.AttemptTimeout = d }
}

// WithDeadline sets the overall deadline for the wait.
func WithDeadline(d time.Duration) Option {
	return func(c *Config) { c.Deadline = d }
}

// WithProgress sets the per-cycle progress callback.
func WithProgress(fn func(fraction float64)) Option {
	return func(c *Config) { c.OnProgress = fn }
}

// progressCap keeps long waits from reporting completion before readiness is
// actually observed.
const progressCap = 0.95

// Until repeatedly invokes check until it reports ready or the deadline
// elapses. Each check call runs under its own timeout. A deadline with no
// readiness observed returns (false, nil) rather than an error: callers
// decide whether an unready dependency is fatal. An error is returned only
// when the surrounding context is cancelled; errors from check itself are
// treated as "not ready yet" and retried on the next cycle.
func Until(ctx context.Context, check func(ctx context.Context) (bool, error), opts ...Option) (bool, error) {
	cfg := &Config{
		Interval:       5 * time.Second,
		AttemptTimeout: 10 * time.Second,
		Deadline:       5 * time.Minute,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	start := time.Now()
	deadline := start.Add(cfg.Deadline)

	for {
		attemptCtx, cancel := context.WithTimeout(ctx, cfg.AttemptTimeout)
		ready, err := check(attemptCtx)
		cancel()

		if err != nil && ctx.Err() != nil {
			return false, fmt.Errorf("readiness wait cancelled: %w", ctx.Err())
		}
		if ready {
			return true, nil
		}

		if cfg.OnProgress != nil {
			fraction := time.Since(start).Seconds() / cfg.Deadline.Seconds()
			if fraction > progressCap {
				fraction = progressCap
			}
			cfg.OnProgress(fraction)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, nil
		}

		// The final sleep is truncated so the wait concludes at the deadline,
		// not one interval past it.
		wait := cfg.Interval
		if wait > remaining {
			wait = remaining
		}
		select {
		case <-ctx.Done():
			return false, fmt.Errorf("readiness wait cancelled: %w", ctx.Err())
		case <-time.After(wait):
		}
	}
}
