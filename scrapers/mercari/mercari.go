package mercari

import (
	"context"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

// Only og:image URLs under this path are real listing photos; the rest are placeholders.
const photoPathMarker = "mercdn.net/photos/"

// MercariScraper renders listings in the browser; plain requests get a 403.
type MercariScraper struct {
	*base.BaseScraper
}

func NewMercariScraper(b *base.BaseScraper) *MercariScraper {
	return &MercariScraper{BaseScraper: b}
}

func (s *MercariScraper) Name() string { return "mercari" }

func (s *MercariScraper) CanScrape(host string) bool {
	return strings.Contains(host, "mercari.com")
}

func (s *MercariScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, err := s.RenderDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	product := base.JSONLDProduct(doc)

	price, photo := fromItemDetail(doc)
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
		for _, candidate := range base.MetaContents(doc, "og:image") {
			if strings.Contains(candidate, photoPathMarker) {
				photo = candidate
				break
			}
		}
	}
	if photo == "" {
		photo = base.ProductImage(doc)
	}

	return s.Finish(ctx, s.Name(), url, photo, price)
}

// fromItemDetail reads the "ItemDetail:<id>" entry of the server state. Price is in cents.
func fromItemDetail(doc *goquery.Document) (price, photo string) {
	state := base.DigMap(base.NextData(doc), "props", "pageProps", "serverState")
	if state == nil {
		return "", ""
	}

	keys := make([]string, 0, len(state))
	for k := range state {
		if strings.HasPrefix(k, "ItemDetail:") {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", ""
	}
	sort.Strings(keys)
	item, _ := state[keys[0]].(map[string]any)

	if cents, ok := utils.AnyToFloat(item["price"]); ok {
		price = utils.FormatCents(cents, "USD")
	}
	if p := base.FirstObject(item["photos"]); p != nil {
		photo = base.DigString(p, "imageUrl")
		if photo == "" {
			photo = base.DigString(p, "thumbnail")
		}
	}
	return price, photo
}
