package base

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/blocked" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`<html><head><title>Listing</title></head></html>`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher("test-agent", 5*time.Second)

	doc, err := f.Fetch(context.Background(), srv.URL+"/item")
	require.NoError(t, err)
	assert.Equal(t, "Listing", doc.Find("title").Text())

	_, err = f.Fetch(context.Background(), srv.URL+"/blocked")
	var ne *models.NetworkError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, http.StatusForbidden, ne.StatusCode)
}

type stubBackend struct {
	html  string
	err   error
	calls int
}

func (s *stubBackend) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	doc, _, err := s.Snapshot(ctx, url)
	return doc, err
}

func (s *stubBackend) Snapshot(_ context.Context, _ string) (*goquery.Document, []byte, error) {
	s.calls++
	if s.err != nil {
		return nil, nil, s.err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.html))
	return doc, []byte("shot"), err
}

func TestBrowserFetcherFallsBackToNextBackend(t *testing.T) {
	primary := &stubBackend{err: errors.New("chrome crashed")}
	backup := &stubBackend{html: `<p>rendered</p>`}
	b := &BrowserFetcher{Backends: []Snapshotter{primary, backup}}

	doc, shot, err := b.Snapshot(context.Background(), "https://shop.example.com/item")
	require.NoError(t, err)
	assert.Equal(t, "rendered", doc.Find("p").Text())
	assert.Equal(t, []byte("shot"), shot)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, backup.calls)
}

func TestBrowserFetcherReportsNetworkErrorWhenAllFail(t *testing.T) {
	b := &BrowserFetcher{Backends: []Snapshotter{
		&stubBackend{err: errors.New("chrome crashed")},
		&stubBackend{err: errors.New("no chromedriver")},
	}}

	_, err := b.Fetch(context.Background(), "https://shop.example.com/item")
	require.Error(t, err)
	assert.True(t, models.IsNetworkError(err))
	assert.Contains(t, err.Error(), "no chromedriver")
}
