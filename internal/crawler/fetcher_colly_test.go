package crawler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFetcher(t *testing.T, captchaMarker string) *CollyFetcher {
	t.Helper()
	fetcher, err := NewCollyFetcher(FetcherConfig{
		UserAgent:      "crawler-test",
		RequestTimeout: 5 * time.Second,
		Parallelism:    2,
		CaptchaMarker:  captchaMarker,
	}, NewExponentialRetryPolicy(3, time.Millisecond, 5*time.Millisecond), zap.NewNop())
	require.NoError(t, err)
	return fetcher
}

func TestCollyFetcherSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, "")
	page, err := fetcher.Fetch(context.Background(), server.URL+"/recipes/")
	require.NoError(t, err)

	assert.Equal(t, 200, page.StatusCode)
	assert.Contains(t, string(page.Body), "ok")
	assert.Equal(t, int64(1), fetcher.Requests())
}

func TestCollyFetcherRetriesServerError(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, "")
	page, err := fetcher.Fetch(context.Background(), server.URL+"/flaky")
	require.NoError(t, err)

	assert.Equal(t, int64(3), hits.Load())
	assert.Contains(t, string(page.Body), "recovered")
}

func TestCollyFetcherDoesNotRetryNotFound(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, "")
	_, err := fetcher.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 404, statusErr.Code)
	assert.Equal(t, int64(1), hits.Load())
}

func TestCollyFetcherGivesUpAfterBudget(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, "")
	_, err := fetcher.Fetch(context.Background(), server.URL+"/down")
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, 503, statusErr.Code)
	// Initial attempt plus three retries.
	assert.Equal(t, int64(4), hits.Load())
}

func TestCollyFetcherDetectsCaptcha(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("<html><body>showcaptcha please</body></html>"))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, "showcaptcha")
	_, err := fetcher.Fetch(context.Background(), server.URL+"/walled")
	require.ErrorIs(t, err, ErrCaptchaDetected)
	assert.Equal(t, int64(1), hits.Load())
}

func TestCollyFetcherRespectsCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected after cancellation")
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := newTestFetcher(t, "")
	_, err := fetcher.Fetch(ctx, server.URL+"/any")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int64(0), fetcher.Requests())
}
