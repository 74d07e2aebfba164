package edgar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetcherFetch(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Write([]byte("document body"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "Test Operator test@example.com", 5*time.Second, 2)
	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if string(data) != "document body" {
		t.Errorf("Unexpected body: %s", data)
	}
	if gotUserAgent != "Test Operator test@example.com" {
		t.Errorf("Expected identifying user agent, got '%s'", gotUserAgent)
	}
}

func TestFetcherFetch_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test agent", 5*time.Second, 2)
	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected retry to recover, got: %v", err)
	}
	if string(data) != "recovered" {
		t.Errorf("Unexpected body: %s", data)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 attempts, got %d", calls.Load())
	}
}

func TestFetcherFetch_Exhaustion(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test agent", 5*time.Second, 1)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Expected 2 attempts (1 retry), got %d", calls.Load())
	}
}

func TestFetcherFetch_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher(server.Client(), "test agent", 5*time.Second, 3)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("Expected ErrFetchFailed, got: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single attempt for 404, got %d", calls.Load())
	}
}

func TestFetcherFetch_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := NewFetcher(server.Client(), "test agent", 5*time.Second, 3)
	_, err := fetcher.Fetch(ctx, server.URL)
	if !errors.Is(err, ErrFetchFailed) {
		t.Errorf("Expected ErrFetchFailed on canceled context, got: %v", err)
	}
}
