package worker

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/eduhub/processing-be/internal/worker/domain"
	"github.com/stretchr/testify/assert"
)

func TestShouldRequeueJob(t *testing.T) {
	w := &Worker{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "claim conflict never requeues",
			err:  domain.ErrJobAlreadyClaimed,
			want: false,
		},
		{
			name: "settled job failure never requeues",
			err: &domain.JobFailedError{
				JobID: "abc",
				Step:  "download",
				Err:   errors.New("connection refused"),
			},
			want: false,
		},
		{
			name: "wrapped settled failure never requeues",
			err: fmt.Errorf("processing: %w", &domain.JobFailedError{
				JobID: "abc",
				Step:  "store",
				Err:   errors.New("disk full"),
			}),
			want: false,
		},
		{
			name: "transient pre-claim failure requeues",
			err:  errors.New("dial tcp: connection refused"),
			want: true,
		},
		{
			name: "terminal pre-claim failure does not requeue",
			err:  domain.ErrJobNotFound,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.shouldRequeueJob(tt.err))
		})
	}
}
