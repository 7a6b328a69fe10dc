package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text passes through",
			input: "Lesson 1\nIntroduction to Go",
			want:  "Lesson 1\nIntroduction to Go",
		},
		{
			name:  "windows line endings are normalized",
			input: "Lesson 1\r\nIntroduction\r\n",
			want:  "Lesson 1\nIntroduction",
		},
		{
			name:  "old mac line endings are normalized",
			input: "Lesson 1\rIntroduction",
			want:  "Lesson 1\nIntroduction",
		},
		{
			name:  "control characters are dropped",
			input: "Lesson\x00 1\x07\nIntro",
			want:  "Lesson 1\nIntro",
		},
		{
			name:  "tabs survive",
			input: "term\tdefinition",
			want:  "term\tdefinition",
		},
		{
			name:  "trailing whitespace is trimmed per line",
			input: "Lesson 1   \nIntroduction\t\n",
			want:  "Lesson 1\nIntroduction",
		},
		{
			name:  "surrounding blank lines are trimmed",
			input: "\n\nLesson 1\n\n",
			want:  "Lesson 1",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractTextRejectsBinary(t *testing.T) {
	_, err := ExtractText([]byte{0xff, 0xfe, 0x00, 0x41})
	require.ErrorIs(t, err, ErrNotText)
}
