package scrapers

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/scrapers/depop"
	"github.com/raushankrgupta/listing-poster/scrapers/ebay"
	"github.com/raushankrgupta/listing-poster/scrapers/etsy"
	"github.com/raushankrgupta/listing-poster/scrapers/fallback"
	"github.com/raushankrgupta/listing-poster/scrapers/generic"
	"github.com/raushankrgupta/listing-poster/scrapers/mercari"
	"github.com/raushankrgupta/listing-poster/scrapers/pinterest"
	"github.com/raushankrgupta/listing-poster/scrapers/poshmark"
)

// Dispatcher routes a listing URL to the first registered scraper that
// claims its host. Hosts nobody claims go to the generic scraper. A
// NetworkError from the chosen scraper is escalated to the browser scraper
// exactly once; every other error is final.
type Dispatcher struct {
	scrapers []Scraper
	generic  Scraper
	browser  Scraper
	logger   *slog.Logger
}

// NewDispatcher registers the built-in marketplaces in priority order.
func NewDispatcher(b *base.BaseScraper) *Dispatcher {
	d := &Dispatcher{
		generic: generic.NewGenericScraper(b),
		browser: fallback.NewBrowserScraper(b),
		logger:  slog.Default().With("component", "dispatcher"),
	}

	// Register scrapers here
	d.Register(
		depop.NewDepopScraper(b),
		ebay.NewEbayScraper(b),
		poshmark.NewPoshmarkScraper(b),
		etsy.NewEtsyScraper(),
		pinterest.NewPinterestScraper(b, d.lookupPrice),
		mercari.NewMercariScraper(b),
	)
	return d
}

// Register appends scrapers after those already registered.
func (d *Dispatcher) Register(s ...Scraper) {
	d.scrapers = append(d.scrapers, s...)
}

// ScraperFor returns the scraper that will handle host.
func (d *Dispatcher) ScraperFor(host string) Scraper {
	host = strings.ToLower(host)
	for _, s := range d.scrapers {
		if s.CanScrape(host) {
			return s
		}
	}
	return d.generic
}

// Extract picks a scraper for rawURL and runs it.
func (d *Dispatcher) Extract(ctx context.Context, rawURL string) (*models.ExtractionResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return nil, &models.InvalidInputError{Input: rawURL, Reason: "not an absolute URL"}
	}

	s := d.ScraperFor(parsed.Host)
	d.logger.Info("extracting listing", "url", rawURL, "scraper", s.Name())

	result, err := s.Extract(ctx, rawURL)
	if err == nil {
		return result, nil
	}
	if !models.IsNetworkError(err) {
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}

	d.logger.Warn("direct extraction failed, falling back to browser", "url", rawURL, "scraper", s.Name(), "error", err)
	result, ferr := d.browser.Extract(ctx, rawURL)
	if ferr != nil {
		return nil, fmt.Errorf("%s failed (%v), then browser fallback: %w", s.Name(), err, ferr)
	}
	return result, nil
}

func (d *Dispatcher) lookupPrice(ctx context.Context, rawURL string) (string, error) {
	result, err := d.Extract(ctx, rawURL)
	if err != nil {
		return "", err
	}
	return result.Price, nil
}
