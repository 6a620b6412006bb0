package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fivetwenty-io/arium-client/pkg/arium"
)

// Poller drives an asynchronous workflow to its terminal state: it checks,
// and while the result is pending it sleeps Interval and checks again. Any
// value Pending rejects is terminal; no failure state is distinguished.
type Poller[T any] struct {
	// Name identifies the workflow in log messages.
	Name     string
	Check    func(ctx context.Context) (T, error)
	Pending  func(T) bool
	Interval time.Duration
	// Timeout bounds the whole run. Zero waits as long as ctx allows.
	Timeout time.Duration
	Sleep   SleepFunc
	Logger  arium.Logger
	// OnDone is called with the terminal result.
	OnDone func(ctx context.Context, result T)
}

// Run polls until the workflow leaves its pending states and returns the
// last observed result. On timeout or cancellation the last result is
// returned together with the error.
func (p *Poller[T]) Run(ctx context.Context) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	logger := p.Logger
	if logger == nil {
		logger = arium.NoopLogger{}
	}

	parent := ctx

	if p.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	result, err := p.Check(ctx)
	if err != nil {
		return result, p.wrap(parent, err)
	}

	checks := 1

	for p.Pending(result) {
		logger.Debug("Polling...", map[string]interface{}{
			"workflow": p.Name,
			"checks":   checks,
		})

		err = sleep(ctx, p.Interval)
		if err != nil {
			return result, p.wrap(parent, err)
		}

		result, err = p.Check(ctx)
		if err != nil {
			return result, p.wrap(parent, err)
		}

		checks++
	}

	logger.Info("Finished.", map[string]interface{}{
		"workflow": p.Name,
		"checks":   checks,
	})

	if p.OnDone != nil {
		p.OnDone(ctx, result)
	}

	return result, nil
}

// wrap marks deadline errors caused by Timeout rather than by the caller.
func (p *Poller[T]) wrap(parent context.Context, err error) error {
	if p.Timeout > 0 && parent.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s after %s: %w", arium.ErrPollTimeout, p.Name, p.Timeout, err)
	}

	return err
}
