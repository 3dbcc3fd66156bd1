package ebay

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

var (
	labelledPriceRe = regexp.MustCompile(`[A-Z]{0,2}\s*\$\s*([\d,]+\.?\d*)`)
	priceOnlyLineRe = regexp.MustCompile(`^(?:[A-Z]{2}\s*)?\$([\d,]+\.\d{2})$`)
)

// EbayScraper handles the HTML parsing for eBay item pages
type EbayScraper struct {
	*base.BaseScraper
}

func NewEbayScraper(b *base.BaseScraper) *EbayScraper {
	return &EbayScraper{BaseScraper: b}
}

func (s *EbayScraper) Name() string { return "ebay" }

func (s *EbayScraper) CanScrape(host string) bool {
	return strings.Contains(host, "ebay.com")
}

func (s *EbayScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, err := s.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	product := base.JSONLDProduct(doc)

	price := ""
	if product != nil {
		price = base.JSONLDPrice(product)
	}
	if price == "" {
		price = base.MetaPrice(doc)
	}
	if price == "" {
		price = ParsePrice(base.PageLines(doc))
	}

	photo := ""
	if product != nil {
		photo = base.JSONLDImage(product)
	}
	if photo == "" {
		photo = base.MetaContent(doc, "og:image")
	}
	if photo == "" {
		doc.Find(`div[class*="image"] img, div[class*="Image"] img`).EachWithBreak(func(_ int, img *goquery.Selection) bool {
			photo = base.ImgSource(img)
			return photo == ""
		})
	}

	return s.Finish(ctx, s.Name(), url, photo, price)
}

// ParsePrice reads eBay's price breakdown: the line after an "Item price"
// label wins, otherwise the first line that is nothing but a price
// ("US $58.74").
func ParsePrice(lines []string) string {
	for i, line := range lines {
		if !strings.EqualFold(line, "item price") || i+1 >= len(lines) {
			continue
		}
		if m := labelledPriceRe.FindStringSubmatch(lines[i+1]); m != nil {
			if amount, ok := utils.AnyToFloat(m[1]); ok && amount > 0 {
				return utils.FormatAmount(amount, "USD")
			}
		}
	}

	for _, line := range lines {
		if m := priceOnlyLineRe.FindStringSubmatch(line); m != nil {
			if amount, ok := utils.AnyToFloat(m[1]); ok && amount > 0 {
				return utils.FormatAmount(amount, "USD")
			}
		}
	}
	return ""
}
