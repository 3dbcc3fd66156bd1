package etsy

import (
	"context"
	"fmt"
	"strings"

	"github.com/raushankrgupta/listing-poster/models"
)

// EtsyScraper never touches the network. Etsy's bot protection rejects every
// automated browser, so the user is told how to supply the photo themselves.
type EtsyScraper struct{}

func NewEtsyScraper() *EtsyScraper {
	return &EtsyScraper{}
}

func (s *EtsyScraper) Name() string { return "etsy" }

func (s *EtsyScraper) CanScrape(host string) bool {
	return strings.Contains(host, "etsy.com")
}

func (s *EtsyScraper) Extract(_ context.Context, url string) (*models.ExtractionResult, error) {
	return nil, &models.BlockedError{
		Site: "Etsy",
		Message: fmt.Sprintf("save the photo yourself.\n\n"+
			"To use an Etsy listing:\n"+
			"  1. Open the listing in your browser\n"+
			"  2. Right-click the main product image and save it\n"+
			"  3. Run: listing-poster <saved_image.jpg> %q", url),
	}
}
