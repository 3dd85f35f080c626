// Package retry runs fallible operations with bounded exponential backoff.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Policy controls how many times an operation is attempted and how long to
// wait between attempts. After failed attempt n the wait is BaseDelay*2^(n-1).
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Logger      *zap.SugaredLogger

	// Timer is used to wait between attempts; nil means a real timer.
	Timer backoff.Timer
}

// DefaultPolicy retries three times with 2s and 4s waits
func DefaultPolicy(logger *zap.SugaredLogger) Policy {
	return Policy{
		MaxAttempts: 3,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	}
}

func (p Policy) backOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.BaseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Duration(1<<62 - 1)
	b.MaxElapsedTime = 0
	b.Reset()

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}

// Do runs op until it succeeds or the policy's attempts are exhausted, in
// which case the last error is returned wrapped with the label.
func Do[T any](ctx context.Context, p Policy, label string, op func(ctx context.Context) (T, error)) (T, error) {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		result  T
		attempt int
	)
	operation := func() error {
		attempt++
		logger.Debugw("attempting operation", "operation", label, "attempt", attempt, "max_attempts", maxAttempts)

		res, err := op(ctx)
		if err != nil {
			logger.Warnw("operation attempt failed",
				"operation", label,
				"attempt", attempt,
				"max_attempts", maxAttempts,
				"error", err,
			)
			return err
		}
		result = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logger.Infow("retrying operation", "operation", label, "wait", wait)
	}

	err := backoff.RetryNotifyWithTimer(operation, backoff.WithContext(p.backOff(), ctx), notify, p.Timer)
	if err != nil {
		logger.Errorw("operation failed", "operation", label, "attempts", attempt, "error", err)
		var zero T
		return zero, fmt.Errorf("%s failed after %d attempt(s): %w", label, attempt, err)
	}
	return result, nil
}
