package pinterest

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raushankrgupta/listing-poster/models"
	"github.com/raushankrgupta/listing-poster/scrapers/base"
)

var (
	textPriceRe = regexp.MustCompile(`[$£€][\d,]+\.\d{2}`)
	thumbSizeRe = regexp.MustCompile(`/\d+x\d*/`)
)

// PriceLookup extracts the price of another listing. The dispatcher supplies
// it so a pin can borrow the price of the page it bookmarks.
type PriceLookup func(ctx context.Context, url string) (string, error)

// PinterestScraper treats a pin as a bookmark: the photo comes from the pin,
// the QR code points at the pinned page.
type PinterestScraper struct {
	*base.BaseScraper
	lookup PriceLookup
}

func NewPinterestScraper(b *base.BaseScraper, lookup PriceLookup) *PinterestScraper {
	return &PinterestScraper{BaseScraper: b, lookup: lookup}
}

func (s *PinterestScraper) Name() string { return "pinterest" }

func (s *PinterestScraper) CanScrape(host string) bool {
	return isPinterest(host)
}

func isPinterest(s string) bool {
	return strings.Contains(s, "pinterest.com") || strings.Contains(s, "pin.it")
}

func (s *PinterestScraper) Extract(ctx context.Context, url string) (*models.ExtractionResult, error) {
	doc, err := s.FetchDocument(ctx, url)
	if err != nil {
		return nil, err
	}

	destination := Destination(doc)
	if destination == "" {
		return nil, &models.NotFoundError{URL: url, What: "destination URL of the pin"}
	}
	s.Log().Info("pin destination", "pin", url, "destination", destination)

	price := textPriceRe.FindString(strings.Join(base.PageLines(doc), "\n"))
	if price == "" && s.lookup != nil && !isPinterest(destination) {
		s.Log().Info("no price on pin, asking destination", "destination", destination)
		if p, err := s.lookup(ctx, destination); err == nil {
			price = p
		} else {
			s.Log().Debug("destination price lookup failed", "error", err)
		}
	}

	original := base.MetaContent(doc, "og:image")
	if original == "" {
		return nil, &models.NotFoundError{URL: url, What: "image in the pin"}
	}

	upgraded := UpgradeImageURL(original)
	result, err := s.Finish(ctx, s.Name(), url, upgraded, price)
	if err != nil && upgraded != original && models.IsNetworkError(err) {
		s.Log().Debug("full-size pin image unavailable, using original", "url", original)
		result, err = s.Finish(ctx, s.Name(), url, original, price)
	}
	if err != nil {
		return nil, err
	}

	result.EffectiveURL = destination
	return result, nil
}

// Destination finds the page a pin links to: explicit meta tags first, then
// structured data, then the first off-site link.
func Destination(doc *goquery.Document) string {
	if dest := base.FirstMetaContent(doc, "og:see_also", "pinterest:source_url"); dest != "" {
		return dest
	}

	for _, obj := range base.JSONLDObjects(doc) {
		dest := base.DigString(obj, "url")
		if dest == "" {
			dest = base.DigString(obj, "mainEntityOfPage", "@id")
		}
		if dest != "" && !strings.Contains(dest, "pinterest.com") {
			return dest
		}
	}

	dest := ""
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if strings.HasPrefix(href, "http") && !strings.Contains(href, "pinterest.com") {
			dest = href
		}
		return dest == ""
	})
	return dest
}

// UpgradeImageURL swaps a sized pinimg path (/236x/, /736x/) for /originals/.
func UpgradeImageURL(imageURL string) string {
	return thumbSizeRe.ReplaceAllString(imageURL, "/originals/")
}
