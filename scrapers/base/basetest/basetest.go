// Package basetest provides in-memory page fetchers and an image server for strategy tests.
package basetest

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
)

// Fetcher serves canned HTML by URL. Unknown URLs fail with a 404 NetworkError.
type Fetcher struct {
	Pages map[string]string
	Shot  []byte
	Err   error

	mu    sync.Mutex
	calls []string
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	doc, _, err := f.Snapshot(ctx, url)
	return doc, err
}

func (f *Fetcher) Snapshot(_ context.Context, url string) (*goquery.Document, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, nil, f.Err
	}
	page, ok := f.Pages[url]
	if !ok {
		return nil, nil, &models.NetworkError{URL: url, StatusCode: http.StatusNotFound}
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	return doc, f.Shot, err
}

// Calls lists the URLs fetched so far.
func (f *Fetcher) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Solid returns a w×h image filled with c.
func Solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// PNG encodes img for serving or writing to disk.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var b strings.Builder
	if err := png.Encode(&b, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return []byte(b.String())
}

// ImageServer serves a 40×30 PNG at every path except those containing
// "missing", which return 404.
func ImageServer(t testing.TB) *httptest.Server {
	t.Helper()
	body := PNG(t, Solid(40, 30, color.RGBA{R: 200, G: 40, B: 40, A: 255}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// NewBaseScraper wires fakes in place of the network-facing fetchers.
func NewBaseScraper(static, browser *Fetcher, images *httptest.Server) *base.BaseScraper {
	if static == nil {
		static = &Fetcher{}
	}
	if browser == nil {
		browser = &Fetcher{}
	}
	b := &base.BaseScraper{
		HTTP:      static,
		Browser:   browser,
		UserAgent: "listing-poster-test",
	}
	if images != nil {
		b.ImageClient = images.Client()
	} else {
		b.ImageClient = http.DefaultClient
	}
	return b
}
