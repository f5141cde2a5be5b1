package billing

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/runwaylabs/runway/pkg/engine"
)

const (
	defaultMaxRetries = 3

	transientBaseDelay = 1 * time.Second
	maxBackoff         = time.Minute
)

// retrier retries transient and throttled failures with exponential
// backoff. Permanent failures return immediately.
type retrier struct {
	maxRetries int
	baseDelay  time.Duration
	sleep      func(context.Context, time.Duration) error
}

func newRetrier(maxRetries int, baseDelay time.Duration) retrier {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if baseDelay <= 0 {
		baseDelay = transientBaseDelay
	}
	return retrier{maxRetries: maxRetries, baseDelay: baseDelay, sleep: sleepCtx}
}

func (r retrier) do(ctx context.Context, logger zerolog.Logger, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !engine.IsRetryable(err) || attempt == r.maxRetries {
			return err
		}

		delay := backoff(r.baseDelay, attempt, err)
		logger.Warn().
			Err(err).
			Str("operation", op).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Msg("retrying transient failure")

		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

// backoff computes the delay before the next attempt: the base delay for
// the error class doubled per attempt, capped at one minute. Throttled
// failures wait five times longer than transient ones.
func backoff(base time.Duration, attempt int, err error) time.Duration {
	if engine.IsThrottled(err) {
		base *= 5
	}

	delay := time.Duration(float64(base) * math.Pow(2, float64(attempt)))
	if delay > maxBackoff {
		delay = maxBackoff
	}
	return delay
}

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
