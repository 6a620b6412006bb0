package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/fivetwenty-io/arium-client/internal/constants"
	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryOptions configures WithRetry.
type RetryOptions struct {
	// MaxAttempts is the number of guarded attempts. One more unguarded
	// attempt follows once they are exhausted.
	MaxAttempts int
	// BaseDelay is the first delay; it doubles after every failure.
	BaseDelay time.Duration
	Sleep     SleepFunc
	Logger    arium.Logger
	// Name identifies the operation in log messages.
	Name string
}

// DefaultRetryOptions returns ten attempts starting at one second.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts: constants.ConnectRetryAttempts,
		BaseDelay:   constants.ConnectRetryDelay,
	}
}

// WithRetry wraps op so that connection failures are retried with
// exponential backoff. Any other error is returned at once. When every
// guarded attempt failed, op runs one last time and its result is returned
// as is.
func WithRetry[T any](op func(ctx context.Context) (T, error), opts RetryOptions) func(ctx context.Context) (T, error) {
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	logger := opts.Logger
	if logger == nil {
		logger = arium.NoopLogger{}
	}

	return func(ctx context.Context) (T, error) {
		schedule := newBackOff(opts.BaseDelay, opts.MaxAttempts)

		for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
			result, err := op(ctx)
			if err == nil || !errors.Is(err, arium.ErrConnection) {
				return result, err
			}

			delay := schedule.NextBackOff()

			logger.Warn("Connection error, retrying", map[string]interface{}{
				"operation": opts.Name,
				"attempt":   attempt,
				"of":        opts.MaxAttempts,
				"delay":     delay.String(),
				"error":     err.Error(),
			})

			err = sleep(ctx, delay)
			if err != nil {
				var zero T

				return zero, err
			}
		}

		return op(ctx)
	}
}

// newBackOff returns a jitter-free schedule of base, 2*base, 4*base, ...
// that never gives up on its own; the attempt bound is enforced by the
// caller.
func newBackOff(base time.Duration, attempts int) *backoff.ExponentialBackOff {
	if base <= 0 {
		base = constants.ConnectRetryDelay
	}

	maxInterval := base
	for i := 0; i < attempts; i++ {
		maxInterval *= constants.ExponentialBackoffBase
	}

	schedule := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          constants.ExponentialBackoffBase,
		MaxInterval:         maxInterval,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	schedule.Reset()

	return schedule
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
