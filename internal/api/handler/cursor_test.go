package handler

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/eduhub/processing-be/internal/api/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)
	original := &storage.JobCursor{
		CreatedAt: createdAt,
		JobID:     "3db1f6a2-1111-4222-8333-944444444444",
	}

	encoded := EncodeJobCursor(original)
	decoded, err := DecodeJobCursor(encoded)

	require.NoError(t, err)
	require.NotNil(t, decoded)
	assert.True(t, decoded.CreatedAt.Equal(createdAt))
	assert.Equal(t, original.JobID, decoded.JobID)
}

func TestDecodeJobCursor(t *testing.T) {
	tests := []struct {
		name    string
		cursor  string
		wantErr bool
	}{
		{
			name:   "empty cursor means first page",
			cursor: "",
		},
		{
			name:    "not base64",
			cursor:  "!!!not-base64!!!",
			wantErr: true,
		},
		{
			name:    "missing separator",
			cursor:  base64.StdEncoding.EncodeToString([]byte("1234567890")),
			wantErr: true,
		},
		{
			name:    "non-numeric timestamp",
			cursor:  base64.StdEncoding.EncodeToString([]byte("abc|job-1")),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoded, err := DecodeJobCursor(tt.cursor)

			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Nil(t, decoded)
			}
		})
	}
}
