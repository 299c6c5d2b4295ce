package retry

import (
	"context"
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/marketdash/marketdash/pkg/errors"
)

// RetryConfig holds retry configuration. MaxAttempts of 1 disables retries
// entirely, which is the service default: transient upstream failures are
// surfaced to the caller unless a retry budget is configured.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
	Logger        *zap.Logger
}

// DefaultRetryConfig returns a single-attempt configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:   1,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
		Logger:        zap.NewNop(),
	}
}

// RetryWithResult is a function that returns a result and can be retried
type RetryWithResult func() (interface{}, error)

// RetryWithResultFunc executes fn with exponential backoff. Errors that are
// not retryable per pkg/errors stop the loop immediately.
func RetryWithResultFunc(ctx context.Context, config RetryConfig, fn RetryWithResult) (interface{}, error) {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := fn()
		if err == nil {
			if attempt > 1 {
				config.Logger.Info("operation succeeded after retry",
					zap.Int("attempt", attempt),
					zap.Int("max_attempts", config.MaxAttempts))
			}
			return result, nil
		}

		lastErr = err

		if !apperrors.IsRetryable(err) {
			if attempt > 1 {
				config.Logger.Warn("non-retryable error encountered",
					zap.Error(err),
					zap.Int("attempt", attempt))
			}
			return nil, err
		}

		if attempt == config.MaxAttempts {
			break
		}

		delay := calculateDelay(attempt, config)
		config.Logger.Warn("operation failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", config.MaxAttempts),
			zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	if config.MaxAttempts == 1 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("operation failed after %d attempts: %w", config.MaxAttempts, lastErr)
}

// calculateDelay calculates the delay for the next retry attempt
func calculateDelay(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1))

	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		randomBig, err := rand.Int(rand.Reader, big.NewInt(200))
		if err == nil {
			randomFloat := (float64(randomBig.Int64()) / 100.0) - 1.0
			jitter := delay * 0.1 * randomFloat // ±10% jitter
			delay += jitter
		}
	}

	return time.Duration(delay)
}
