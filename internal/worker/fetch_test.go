package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/eduhub/processing-be/internal/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobFetcherFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte("course material"))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/flaky":
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	fetcher := NewBlobFetcher(5*time.Second, 0)

	t.Run("returns body on success", func(t *testing.T) {
		body, err := fetcher.Fetch(context.Background(), srv.URL+"/ok")
		require.NoError(t, err)
		assert.Equal(t, []byte("course material"), body)
	})

	t.Run("missing blob is terminal", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), srv.URL+"/missing")

		var statusErr *resilience.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
		assert.False(t, resilience.Classify(err).Retryable())
	})

	t.Run("flaky backend is transient", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), srv.URL+"/flaky")

		var statusErr *resilience.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusServiceUnavailable, statusErr.Code)
		assert.True(t, resilience.Classify(err).Retryable())
	})

	t.Run("unreachable host is transient", func(t *testing.T) {
		_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1:1/blob")
		require.Error(t, err)
		assert.True(t, resilience.Classify(err).Retryable())
	})
}

func TestBlobFetcherSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	fetcher := NewBlobFetcher(5*time.Second, 1024)

	_, err := fetcher.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "size limit")
}

func TestBlobFetcherContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewBlobFetcher(5*time.Second, 0)
	_, err := fetcher.Fetch(ctx, srv.URL)

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
