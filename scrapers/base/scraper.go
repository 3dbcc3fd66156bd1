package base

import (
	"context"
	"crypto/tls"
	"image"
	"log/slog"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/utils"
)

// PageFetcher loads a page and hands back its parsed DOM.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// Snapshotter is a PageFetcher that can also capture what the rendered page looks like.
type Snapshotter interface {
	PageFetcher
	Snapshot(ctx context.Context, url string) (*goquery.Document, []byte, error)
}

// BaseScraper holds what every site strategy needs: a direct fetcher, a
// rendering fetcher and an image client.
type BaseScraper struct {
	HTTP        PageFetcher
	Browser     Snapshotter
	ImageClient *http.Client
	UserAgent   string
	Logger      *slog.Logger
}

// NewBaseScraper wires the direct HTTP fetcher and the ChromeDP/Selenium browser fetcher.
func NewBaseScraper(cfg *config.Config) *BaseScraper {
	return &BaseScraper{
		HTTP:        NewHTTPFetcher(cfg.UserAgent, cfg.HTTPTimeout),
		Browser:     NewBrowserFetcher(cfg),
		ImageClient: &http.Client{Timeout: cfg.ImageTimeout},
		UserAgent:   cfg.UserAgent,
		Logger:      slog.Default().With("component", "scraper"),
	}
}

// FetchDocument loads url with a plain HTTP request.
func (b *BaseScraper) FetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	doc, err := b.HTTP.Fetch(ctx, url)
	if err != nil {
		b.Log().Warn("direct fetch failed", "url", url, "error", err)
		return nil, err
	}
	b.Log().Debug("direct fetch succeeded", "url", url)
	return doc, nil
}

// RenderDocument loads url in a headless browser.
func (b *BaseScraper) RenderDocument(ctx context.Context, url string) (*goquery.Document, error) {
	doc, err := b.Browser.Fetch(ctx, url)
	if err != nil {
		b.Log().Warn("browser fetch failed", "url", url, "error", err)
		return nil, err
	}
	b.Log().Debug("browser fetch succeeded", "url", url)
	return doc, nil
}

// DownloadPhoto fetches and decodes the listing photo.
func (b *BaseScraper) DownloadPhoto(ctx context.Context, photoURL string) (image.Image, error) {
	return utils.DownloadImage(ctx, b.ImageClient, photoURL, b.UserAgent)
}

// Finish downloads the chosen photo and normalizes the raw price into the
// result every strategy returns. A missing photo is a NotFoundError; a price
// that cannot be normalized is dropped.
func (b *BaseScraper) Finish(ctx context.Context, source, pageURL, photoURL, rawPrice string) (*models.ExtractionResult, error) {
	if photoURL == "" {
		return nil, &models.NotFoundError{URL: pageURL, What: "product image"}
	}
	photoURL = ResolveReference(pageURL, photoURL)

	img, err := b.DownloadPhoto(ctx, photoURL)
	if err != nil {
		return nil, err
	}

	price, ok := utils.NormalizePrice(rawPrice)
	if !ok && rawPrice != "" {
		b.Log().Info("dropping price that cannot be shown", "source", source, "raw", rawPrice)
	}

	return &models.ExtractionResult{
		Photo:    img,
		Price:    price,
		PhotoURL: photoURL,
		Source:   source,
	}, nil
}

// HTTPFetcher is the direct, non-rendering PageFetcher.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher creates a fetcher with a short fixed timeout.
func NewHTTPFetcher(userAgent string, timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		UserAgent: userAgent,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				ForceAttemptHTTP2:     false,
				TLSNextProto:          make(map[string]func(string, *tls.Conn) http.RoundTripper),
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

// Fetch fetches the URL and returns a goquery document. Transport errors and
// non-200 statuses are reported as *models.NetworkError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.InvalidInputError{Input: url, Reason: err.Error()}
	}

	// Common headers to mimic a real browser
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("DNT", "1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "none")
	req.Header.Set("Cache-Control", "max-age=0")

	res, err := f.Client.Do(req)
	if err != nil {
		return nil, &models.NetworkError{URL: url, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, &models.NetworkError{URL: url, StatusCode: res.StatusCode}
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, &models.NetworkError{URL: url, Err: err}
	}
	return doc, nil
}

// Log returns the scraper logger, or the default one when none was set.
func (b *BaseScraper) Log() *slog.Logger {
	if b.Logger == nil {
		return slog.Default()
	}
	return b.Logger
}
