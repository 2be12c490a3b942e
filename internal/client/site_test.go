package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"artworks/crawler/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.CrawlerConfig {
	return config.CrawlerConfig{Timeout: 5, MaxRetries: 0}
}

func TestFetchPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><div id="body"><h1>Category: Summertime</h1></div></body></html>`)
	}))
	defer server.Close()

	client := NewSiteClient(testConfig(), nil)
	page, err := client.FetchPage(context.Background(), server.URL+"/browse/summertime")
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/browse/summertime", page.URL)
	assert.Equal(t, "Category: Summertime", page.Doc.Find("div#body > h1").Text())
}

func TestFetchPageHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewSiteClient(testConfig(), nil)
	_, err := client.FetchPage(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchPageTripsCircuitBreaker(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewSiteClient(testConfig(), nil)

	_, err := client.FetchPage(context.Background(), server.URL+"/a")
	require.Error(t, err)

	_, err = client.FetchPage(context.Background(), server.URL+"/b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(1), hits.Load())

	var blocked *BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Greater(t, blocked.RetryAfter(), 4*time.Minute)
	assert.LessOrEqual(t, blocked.RetryAfter(), 5*time.Minute)
}
