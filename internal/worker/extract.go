package worker

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNotText is returned for source blobs that are not decodable text.
// Terminal: retrying does not fix malformed input.
var ErrNotText = errors.New("document is not valid UTF-8 text")

// ExtractText normalizes a downloaded document blob into the plain text
// stored as derived content: line endings unified, control characters
// dropped, trailing whitespace trimmed per line.
func ExtractText(blob []byte) (string, error) {
	if !utf8.Valid(blob) {
		return "", ErrNotText
	}

	text := strings.ReplaceAll(string(blob), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || !unicode.IsControl(r) {
			b.WriteRune(r)
		}
	}

	lines := strings.Split(b.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
