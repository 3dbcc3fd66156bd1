package fallback

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

var (
	priceSelectors = []string{
		`[class*="price"]`,
		`[data-testid*="price"]`,
		`[itemprop="price"]`,
		`span[class*="Price"]`,
	}
	imageSelectors = []string{
		`img[class*="product"]`,
		`img[class*="Product"]`,
		`img[class*="item"]`,
		`img[class*="main"]`,
		`picture img`,
		`div[class*="image"] img`,
		`div[class*="Image"] img`,
	}
)

// BrowserScraper is where the dispatcher escalates after a network failure.
// It renders the page and, when no photo can be found, uses a screenshot of
// the page itself.
type BrowserScraper struct {
	*base.BaseScraper
}

func NewBrowserScraper(b *base.BaseScraper) *BrowserScraper {
	return &BrowserScraper{BaseScraper: b}
}

func (s *BrowserScraper) Name() string { return "browser" }

// CanScrape is false for every host; the browser strategy is only reached by escalation.
func (s *BrowserScraper) CanScrape(string) bool { return false }

func (s *BrowserScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, shot, err := s.Browser.Snapshot(ctx, url)
	if err != nil {
		return nil, err
	}

	price := FindPrice(doc)
	photo := FindImage(doc)
	if photo != "" {
		result, err := s.Finish(ctx, s.Name(), url, photo, price)
		if err == nil {
			return result, nil
		}
		s.Log().Warn("rendered page image failed to download, using screenshot", "url", photo, "error", err)
	}

	if len(shot) == 0 {
		return nil, &models.NotFoundError{URL: url, What: "product image"}
	}
	img, err := utils.DecodeImage(shot)
	if err != nil {
		return nil, &models.NotFoundError{URL: url, What: "usable screenshot"}
	}
	normalized, _ := utils.NormalizePrice(price)
	return &models.ExtractionResult{Photo: img, Price: normalized, Source: s.Name()}, nil
}

// FindPrice returns the first price-looking element text that carries a currency symbol.
func FindPrice(doc *goquery.Document) string {
	for _, sel := range priceSelectors {
		price := ""
		doc.Find(sel).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			if text := strings.TrimSpace(el.Text()); utils.HasCurrencySymbol(text) {
				price = text
			}
			return price == ""
		})
		if price != "" {
			return price
		}
	}
	return ""
}

// FindImage tries og:image, then common product image containers, skipping icons and logos.
func FindImage(doc *goquery.Document) string {
	if og := base.MetaContent(doc, "og:image"); og != "" {
		return og
	}
	for _, sel := range imageSelectors {
		src := ""
		doc.Find(sel).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			candidate := base.ImgSource(img)
			lower := strings.ToLower(candidate)
			if strings.HasPrefix(candidate, "data:") || strings.Contains(lower, "icon") || strings.Contains(lower, "logo") {
				return true
			}
			src = candidate
			return src == ""
		})
		if src != "" {
			return src
		}
	}
	return ""
}
