package scrapers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base/basetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScraperFor(t *testing.T) {
	d := NewDispatcher(basetest.NewBaseScraper(nil, nil, nil))

	tests := map[string]string{
		"www.depop.com":        "depop",
		"www.ebay.com":         "ebay",
		"poshmark.com":         "poshmark",
		"www.etsy.com":         "etsy",
		"www.pinterest.com":    "pinterest",
		"pin.it":               "pinterest",
		"www.mercari.com":      "mercari",
		"WWW.DEPOP.COM":        "depop",
		"boutique.example.org": "generic",
	}
	for host, expected := range tests {
		t.Run(host, func(t *testing.T) {
			assert.Equal(t, expected, d.ScraperFor(host).Name())
		})
	}
}

type stubScraper struct{ name, host string }

func (s stubScraper) Name() string               { return s.name }
func (s stubScraper) CanScrape(host string) bool { return strings.Contains(host, s.host) }
func (s stubScraper) Extract(context.Context, string) (*models.ExtractionResult, error) {
	return &models.ExtractionResult{Source: s.name}, nil
}

func TestRegisterAddsMarketplace(t *testing.T) {
	d := NewDispatcher(basetest.NewBaseScraper(nil, nil, nil))
	d.Register(stubScraper{name: "vinted", host: "vinted.com"})

	result, err := d.Extract(context.Background(), "https://www.vinted.com/items/1")
	require.NoError(t, err)
	assert.Equal(t, "vinted", result.Source)
}

func TestNetworkErrorEscalatesToBrowserOnce(t *testing.T) {
	images := basetest.ImageServer(t)
	url := "https://www.depop.com/products/blocked/"

	static := &basetest.Fetcher{}
	browser := &basetest.Fetcher{Pages: map[string]string{
		url: fmt.Sprintf(`<meta property="og:image" content="%s/p.jpg"><span class="price">$12.00</span>`, images.URL),
	}}
	d := NewDispatcher(basetest.NewBaseScraper(static, browser, images))

	result, err := d.Extract(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "browser", result.Source)
	assert.Equal(t, "$12.00", result.Price)
	assert.Equal(t, []string{url}, static.Calls())
	assert.Equal(t, []string{url}, browser.Calls())
}

func TestEscalationHappensOnlyOnce(t *testing.T) {
	url := "https://www.mercari.com/us/item/m1/"
	browser := &basetest.Fetcher{}
	d := NewDispatcher(basetest.NewBaseScraper(nil, browser, nil))

	_, err := d.Extract(context.Background(), url)
	require.Error(t, err)
	assert.True(t, models.IsNetworkError(err))
	// once by the mercari scraper, once by the escalation
	assert.Len(t, browser.Calls(), 2)
}

func TestNotFoundIsNotEscalated(t *testing.T) {
	url := "https://www.depop.com/products/empty/"
	static := &basetest.Fetcher{Pages: map[string]string{url: `<p>nothing here</p>`}}
	browser := &basetest.Fetcher{}
	d := NewDispatcher(basetest.NewBaseScraper(static, browser, nil))

	_, err := d.Extract(context.Background(), url)
	var nf *models.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Empty(t, browser.Calls())
}

func TestBlockedSiteFailsWithoutNetwork(t *testing.T) {
	static := &basetest.Fetcher{}
	browser := &basetest.Fetcher{}
	d := NewDispatcher(basetest.NewBaseScraper(static, browser, nil))

	_, err := d.Extract(context.Background(), "https://etsy.com/listing/1/ring")
	var be *models.BlockedError
	require.True(t, errors.As(err, &be))
	assert.Empty(t, static.Calls())
	assert.Empty(t, browser.Calls())
}

func TestPinBorrowsPriceFromDestination(t *testing.T) {
	images := basetest.ImageServer(t)
	pin := "https://www.pinterest.com/pin/42/"
	dest := "https://boutique.example.com/products/lamp"

	static := &basetest.Fetcher{Pages: map[string]string{
		pin:  fmt.Sprintf(`<meta property="og:image" content="%s/736x/lamp.jpg"><meta property="og:see_also" content="%s">`, images.URL, dest),
		dest: fmt.Sprintf(`<meta property="og:image" content="%s/lamp.jpg"><meta property="product:price:amount" content="49.99">`, images.URL),
	}}
	d := NewDispatcher(basetest.NewBaseScraper(static, nil, images))

	result, err := d.Extract(context.Background(), pin)
	require.NoError(t, err)
	assert.Equal(t, "$49.99", result.Price)
	assert.Equal(t, dest, result.EffectiveURL)
	assert.Equal(t, "pinterest", result.Source)
}

func TestExtractRejectsRelativeURL(t *testing.T) {
	d := NewDispatcher(basetest.NewBaseScraper(nil, nil, nil))

	_, err := d.Extract(context.Background(), "/products/1")
	var ie *models.InvalidInputError
	assert.True(t, errors.As(err, &ie))
}
