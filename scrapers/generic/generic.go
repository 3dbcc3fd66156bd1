package generic

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
	"github.com/raushankrgupta/listing-poster/utils"
)

var priceHints = []string{"price", "discount", "sale"}

// GenericScraper handles any site without a dedicated strategy. Only the
// og:image is trusted for the photo.
type GenericScraper struct {
	*base.BaseScraper
}

func NewGenericScraper(b *base.BaseScraper) *GenericScraper {
	return &GenericScraper{BaseScraper: b}
}

func (s *GenericScraper) Name() string { return "generic" }

// CanScrape accepts every host; the generic strategy is always registered last.
func (s *GenericScraper) CanScrape(string) bool { return true }

func (s *GenericScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, err := s.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	price := ""
	if product := base.JSONLDProduct(doc); product != nil {
		price = base.JSONLDPrice(product)
	}
	if price == "" {
		price = base.MetaPrice(doc)
	}
	if price == "" {
		price = base.LowestPrice(PriceCandidates(doc))
	}

	return s.Finish(ctx, s.Name(), url, base.MetaContent(doc, "og:image"), price)
}

// PriceCandidates selects span, div and p elements whose class or aria-label
// hints at a price. LowestPrice then picks the minimum, which can be an
// unrelated small amount elsewhere on the page.
func PriceCandidates(doc *goquery.Document) *goquery.Selection {
	return doc.Find("span, div, p").FilterFunction(func(_ int, el *goquery.Selection) bool {
		hint := strings.ToLower(el.AttrOr("class", "") + " " + el.AttrOr("aria-label", ""))
		for _, h := range priceHints {
			if strings.Contains(hint, h) {
				return utils.HasCurrencySymbol(el.Text())
			}
		}
		return false
	})
}
