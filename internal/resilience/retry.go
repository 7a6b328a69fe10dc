package resilience

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Policy defines retry behavior for a single invocation. Immutable once built.
type Policy struct {
	MaxRetries    int           // retries after the first attempt; 0 means exactly one attempt
	InitialDelay  time.Duration // delay before the first retry
	BackoffFactor float64       // multiplier applied per retry, must be > 1
	Jitter        time.Duration // upper bound of the random delay component
}

// DefaultPolicy is the per-step policy used by the job runner
var DefaultPolicy = Policy{
	MaxRetries:    3,
	InitialDelay:  500 * time.Millisecond,
	BackoffFactor: 2.0,
	Jitter:        100 * time.Millisecond,
}

// RetryHook observes each retry attempt. Called after a transient failure,
// before the backoff sleep. Must not block.
type RetryHook func(attempt int, err error, delay time.Duration)

// Do runs op, retrying on transient failures with exponential backoff.
// Attempt numbering is 1-indexed; attempt 1 always runs. Terminal failures
// return immediately. When the budget is exhausted the last observed error
// is returned. The backoff sleep is cancelled by ctx.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error, onRetry RetryHook) error {
	var lastErr error

	for attempt := 1; attempt <= policy.MaxRetries+1; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		classified := Classify(lastErr)
		if !classified.Retryable() {
			return lastErr
		}

		if attempt > policy.MaxRetries {
			break
		}

		// The context governs the whole invocation; once it is done there
		// is no point waiting out the backoff.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		delay := backoffDelay(policy, attempt-1)
		if onRetry != nil {
			onRetry(attempt, lastErr, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// DoValue is Do for operations producing a result value
func DoValue[T any](ctx context.Context, policy Policy, op func(ctx context.Context) (T, error), onRetry RetryHook) (T, error) {
	var result T
	err := Do(ctx, policy, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	}, onRetry)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// backoffDelay computes the delay before the n-th retry (n starting at 0):
// InitialDelay * BackoffFactor^n plus a uniform jitter in [0, Jitter).
func backoffDelay(policy Policy, retry int) time.Duration {
	delay := time.Duration(float64(policy.InitialDelay) * math.Pow(policy.BackoffFactor, float64(retry)))
	if policy.Jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(policy.Jitter)))
	}
	return delay
}
