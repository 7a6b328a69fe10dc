package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimedOut marks an operation that did not settle within its time budget.
// Distinct from the operation's own failures; check with errors.Is.
var ErrTimedOut = errors.New("operation timed out")

// RunWithTimeout bounds op's duration. The context passed to op is canceled
// when the timeout fires, so context-aware operations stop; operations that
// ignore their context are abandoned, not killed. Best-effort only.
func RunWithTimeout(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()

	select {
	case err := <-done:
		return err
	case <-opCtx.Done():
		if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s", ErrTimedOut, timeout)
		}
		return opCtx.Err()
	}
}

// RunWithTimeoutValue is RunWithTimeout for operations producing a result
func RunWithTimeoutValue[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := RunWithTimeout(ctx, timeout, func(ctx context.Context) error {
		var opErr error
		result, opErr = op(ctx)
		return opErr
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
