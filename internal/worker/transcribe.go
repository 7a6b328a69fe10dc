package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/eduhub/processing-be/internal/resilience"
	"github.com/eduhub/processing-be/internal/worker/domain"
)

// HTTPTranscriber calls the external transcription service. The service
// may hang on long media, so callers wrap it in a step timeout; the
// client itself carries no timeout and relies on ctx.
type HTTPTranscriber struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTranscriber creates a transcriber client for the given endpoint
func NewHTTPTranscriber(endpoint string) *HTTPTranscriber {
	return &HTTPTranscriber{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

type transcribeResponse struct {
	Segments []domain.TranscriptSegment `json:"segments"`
}

// Transcribe posts the media and returns the timed segments
func (t *HTTPTranscriber) Transcribe(ctx context.Context, media []byte) ([]domain.TranscriptSegment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(media))
	if err != nil {
		return nil, fmt.Errorf("failed to build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call transcription service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &resilience.StatusError{
			Code: resp.StatusCode,
			Msg:  "transcription service",
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription response: %w", err)
	}

	var parsed transcribeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed transcription response: %w", err)
	}

	return parsed.Segments, nil
}
