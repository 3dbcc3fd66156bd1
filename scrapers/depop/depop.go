package depop

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

// DepopScraper handles the HTML parsing for Depop. Listing pages are
// server-rendered Next.js, so a plain fetch carries the product JSON.
type DepopScraper struct {
	*base.BaseScraper
}

func NewDepopScraper(b *base.BaseScraper) *DepopScraper {
	return &DepopScraper{BaseScraper: b}
}

func (s *DepopScraper) Name() string { return "depop" }

func (s *DepopScraper) CanScrape(host string) bool {
	return strings.Contains(host, "depop.com")
}

func (s *DepopScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, err := s.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	product := base.JSONLDProduct(doc)

	// 1. Price: embedded product state, structured data, meta, then DOM
	price := nextDataPrice(doc)
	if price == "" && product != nil {
		price = base.JSONLDPrice(product)
	}
	if price == "" {
		price = base.MetaPrice(doc)
	}
	if price == "" {
		price = base.DOMPrice(doc)
	}

	// 2. Photo
	photo := ""
	if product != nil {
		photo = base.JSONLDImage(product)
	}
	if photo == "" {
		photo = base.MetaContent(doc, "og:image")
	}
	if photo == "" {
		photo = base.ProductImage(doc)
	}

	return s.Finish(ctx, s.Name(), url, photo, price)
}

// nextDataPrice prefers the discounted price over the list price.
func nextDataPrice(doc *goquery.Document) string {
	product := base.DigMap(base.NextData(doc), "props", "pageProps", "productState", "product")
	if product == nil {
		return ""
	}

	if discounted := base.DigMap(product, "discountedPrice"); discounted != nil {
		if amount, ok := utils.AnyToFloat(discounted["priceAmount"]); ok && amount > 0 {
			return utils.FormatAmount(amount, base.DigString(discounted, "currencyCode"))
		}
	}

	amount, ok := utils.AnyToFloat(product["priceAmount"])
	if !ok {
		amount, ok = utils.AnyToFloat(base.Dig(product, "price", "priceAmount"))
	}
	if !ok || amount <= 0 {
		return ""
	}
	currency := base.DigString(product, "currencyCode")
	if currency == "" {
		currency = base.DigString(product, "price", "currencyCode")
	}
	return utils.FormatAmount(amount, currency)
}
