package gateway

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

const (
	rateLimitBackoffFactor = 2.0
	transientBackoffFactor = 1.5
)

// callWithRetry runs fn up to maxRetries+1 times with exponential
// backoff. Rate-limited failures back off harder than plain transient
// ones; a spent daily quota aborts immediately since waiting minutes
// cannot revive a quota that resets daily.
func callWithRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, sleep func(context.Context, time.Duration) error, log *zap.Logger, fn func() error) error {
	attempts := maxRetries + 1
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if isQuotaExhausted(err) {
			return fmt.Errorf("%w: %v", ErrQuotaExhausted, err)
		}
		if attempt >= attempts {
			return fmt.Errorf("exhausted %d attempts: %w", attempts, err)
		}

		factor := transientBackoffFactor
		if isRateLimited(err) {
			factor = rateLimitBackoffFactor
		}
		delay := time.Duration(float64(baseDelay) * math.Pow(factor, float64(attempt)))
		log.Warn("inference call failed, backing off",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
