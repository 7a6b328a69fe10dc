package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind Kind
		wantCode int
	}{
		{
			name:     "server error status is transient",
			err:      &StatusError{Code: 503, Msg: "service unavailable"},
			wantKind: KindTransient,
			wantCode: 503,
		},
		{
			name:     "wrapped server error status is transient",
			err:      fmt.Errorf("download: %w", &StatusError{Code: 500}),
			wantKind: KindTransient,
			wantCode: 500,
		},
		{
			name:     "client error status is terminal",
			err:      &StatusError{Code: 404, Msg: "not found"},
			wantKind: KindTerminal,
			wantCode: 404,
		},
		{
			name:     "deadline exceeded is transient",
			err:      context.DeadlineExceeded,
			wantKind: KindTransient,
		},
		{
			name:     "cancellation is transient",
			err:      fmt.Errorf("fetch: %w", context.Canceled),
			wantKind: KindTransient,
		},
		{
			name:     "net error is transient",
			err:      &net.DNSError{Err: "no such host", Name: "storage.invalid"},
			wantKind: KindTransient,
		},
		{
			name:     "failed to fetch message is transient",
			err:      errors.New("Failed to Fetch resource"),
			wantKind: KindTransient,
		},
		{
			name:     "connection refused message is transient",
			err:      errors.New("dial tcp: connection refused"),
			wantKind: KindTransient,
		},
		{
			name:     "aborted message is transient",
			err:      errors.New("request aborted by peer"),
			wantKind: KindTransient,
		},
		{
			name:     "plain validation error is terminal",
			err:      errors.New("payload is missing a title"),
			wantKind: KindTerminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			require.NotNil(t, got)

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantCode, got.StatusCode)
			assert.Equal(t, tt.wantKind == KindTransient, got.Retryable())
			assert.True(t, errors.Is(got, tt.err) || errors.Is(got.Err, tt.err))
		})
	}
}

func TestClassifyNil(t *testing.T) {
	assert.Nil(t, Classify(nil))
}

func TestClassifiedErrorUnwrap(t *testing.T) {
	cause := &StatusError{Code: 502}
	classified := Classify(cause)

	var statusErr *StatusError
	require.True(t, errors.As(classified, &statusErr))
	assert.Equal(t, 502, statusErr.Code)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "terminal", KindTerminal.String())
}

func TestStatusErrorMessage(t *testing.T) {
	assert.Equal(t, "remote call failed with status 404: not found",
		(&StatusError{Code: 404, Msg: "not found"}).Error())
	assert.Equal(t, "remote call failed with status 500",
		(&StatusError{Code: 500}).Error())
}
