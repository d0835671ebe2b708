package recognition

import (
	"context"
	"time"

	"jellyzam/internal/sampler"
	"jellyzam/internal/services"
)

const maxBackoff = 30 * time.Second

type retryingRecognizer struct {
	next       Recognizer
	maxRetries int
	backoff    time.Duration
	sleep      func(context.Context, time.Duration) error
}

// WithRetry wraps next so ErrTransient failures are retried up to maxRetries
// times with exponential backoff starting at backoff. Every other error, and
// cancellation, is returned immediately.
func WithRetry(next Recognizer, maxRetries int, backoff time.Duration) Recognizer {
	if next == nil || maxRetries <= 0 {
		return next
	}
	return &retryingRecognizer{
		next:       next,
		maxRetries: maxRetries,
		backoff:    backoff,
		sleep:      sleepContext,
	}
}

func (r *retryingRecognizer) Identify(ctx context.Context, sample sampler.Sample, creds Credentials) ([]Match, error) {
	delay := r.backoff
	for attempt := 0; ; attempt++ {
		matches, err := r.next.Identify(ctx, sample, creds)
		if err == nil || attempt >= r.maxRetries || !services.IsRetryable(err) {
			return matches, err
		}
		if sleepErr := r.sleep(ctx, delay); sleepErr != nil {
			return nil, sleepErr
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
