package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Kind is the retryability class of a failure
type Kind int

const (
	// KindTransient marks failures likely to succeed on retry (network, 5xx, timeouts upstream)
	KindTransient Kind = iota
	// KindTerminal marks failures retrying cannot fix (validation, 4xx, malformed data)
	KindTerminal
)

func (k Kind) String() string {
	if k == KindTransient {
		return "transient"
	}
	return "terminal"
}

// transientPatterns are matched case-insensitively against error messages.
// Upstream services report network-level failures as free-form text, so
// message matching is the only signal available for most of them.
var transientPatterns = []string{
	"failed to fetch",
	"network",
	"timeout",
	"aborted",
	"connection refused",
}

// StatusError carries an HTTP-like status code from a remote call
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("remote call failed with status %d: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("remote call failed with status %d", e.Code)
}

// ClassifiedError is the classification verdict for a single failure.
// It wraps the original error and, when known, its status code.
type ClassifiedError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s error: %s", e.Kind, e.Err.Error())
}

func (e *ClassifiedError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the classified failure should be retried
func (e *ClassifiedError) Retryable() bool {
	return e.Kind == KindTransient
}

// Classify decides whether a failure is transient or terminal.
// Pure function of its input; no side effects.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	statusCode := 0
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		statusCode = statusErr.Code
		if statusCode >= 500 && statusCode <= 599 {
			return &ClassifiedError{Kind: KindTransient, StatusCode: statusCode, Err: err}
		}
	}

	// Operation aborted by deadline or cancellation
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ClassifiedError{Kind: KindTransient, StatusCode: statusCode, Err: err}
	}

	// Transport-level failures from the net stack
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &ClassifiedError{Kind: KindTransient, StatusCode: statusCode, Err: err}
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return &ClassifiedError{Kind: KindTransient, StatusCode: statusCode, Err: err}
		}
	}

	return &ClassifiedError{Kind: KindTerminal, StatusCode: statusCode, Err: err}
}
