package edgar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrFetchFailed marks per-entry fetch failures after retry exhaustion.
// It never aborts the cycle; the entry is dropped and logged.
var ErrFetchFailed = errors.New("document fetch failed")

const maxRetryDelay = 30 * time.Second

// Fetcher retrieves raw filing documents with a bounded timeout and retry
// policy. The identifying User-Agent is mandatory on every request: EDGAR
// throttles or blocks anonymous clients.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	retries    int
}

func NewFetcher(httpClient *http.Client, userAgent string, timeout time.Duration, retries int) *Fetcher {
	return &Fetcher{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		retries:    retries,
	}
}

// Fetch issues a GET against url, retrying transient failures with
// exponential backoff. Non-transient HTTP errors fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<uint(attempt-1)) * time.Second
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, ctx.Err())
			}
		}

		data, retryable, err := f.attempt(ctx, url)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
		}
	}

	return nil, fmt.Errorf("%w: %s after %d attempts: %v", ErrFetchFailed, url, f.retries+1, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, url string) (data []byte, retryable bool, err error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection resets are worth another attempt
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
	default:
		return nil, false, fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, false, nil
}
