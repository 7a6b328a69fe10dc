package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/eduhub/processing-be/internal/resilience"
)

// BlobFetcher downloads stored source blobs over HTTP. Non-2xx responses
// become status-coded errors so the classifier can tell a flaky storage
// backend (5xx, retryable) from a missing or forbidden object (4xx, not).
type BlobFetcher struct {
	client  *http.Client
	maxSize int64
}

// NewBlobFetcher creates a fetcher. maxSize bounds the accepted blob size
// in bytes; 0 applies the default of 512 MiB.
func NewBlobFetcher(timeout time.Duration, maxSize int64) *BlobFetcher {
	if maxSize <= 0 {
		maxSize = 512 << 20
	}
	return &BlobFetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		maxSize: maxSize,
	}
}

// Fetch downloads the blob at url. The request is canceled with ctx.
func (f *BlobFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build blob request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &resilience.StatusError{
			Code: resp.StatusCode,
			Msg:  fmt.Sprintf("blob fetch from %s", url),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read blob body: %w", err)
	}
	if int64(len(body)) > f.maxSize {
		return nil, fmt.Errorf("blob exceeds size limit of %d bytes", f.maxSize)
	}

	return body, nil
}
