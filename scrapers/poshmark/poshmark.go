package poshmark

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

// PoshmarkScraper renders listings in the browser; a static fetch only
// returns an empty shell.
type PoshmarkScraper struct {
	*base.BaseScraper
}

func NewPoshmarkScraper(b *base.BaseScraper) *PoshmarkScraper {
	return &PoshmarkScraper{BaseScraper: b}
}

func (s *PoshmarkScraper) Name() string { return "poshmark" }

func (s *PoshmarkScraper) CanScrape(host string) bool {
	return strings.Contains(host, "poshmark.com")
}

func (s *PoshmarkScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, err := s.RenderDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	product := base.JSONLDProduct(doc)

	// Embedded listing state, structured data, meta, then DOM
	price, photo := fromListingData(doc)
	if price == "" && product != nil {
		price = base.JSONLDPrice(product)
	}
	if price == "" {
		price = base.MetaPrice(doc)
	}
	if price == "" {
		price = base.DOMPrice(doc)
	}

	if photo == "" && product != nil {
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

// fromListingData reads props.pageProps.listingData.listing. Prices there are cents.
func fromListingData(doc *goquery.Document) (price, photo string) {
	listing := base.DigMap(base.NextData(doc), "props", "pageProps", "listingData", "listing")
	if listing == nil {
		return "", ""
	}

	if cents, ok := utils.AnyToFloat(base.Dig(listing, "price_amount", "val")); ok {
		price = utils.FormatCents(cents, base.DigString(listing, "price_amount", "currency_code"))
	}

	if pic := base.FirstObject(listing["pictures"]); pic != nil {
		photo = base.DigString(pic, "url_fullsize")
		if photo == "" {
			photo = base.DigString(pic, "url")
		}
	}
	return price, photo
}
