package scrapers

import (
	"context"

	"github.com/raushankrgupta/listing-poster/models"
)

// Scraper defines the interface for all listing extraction strategies
type Scraper interface {
	// Name identifies the strategy in logs and history records
	Name() string
	// CanScrape checks if the scraper handles the given lower-cased host
	CanScrape(host string) bool
	// Extract pulls the photo and price out of the listing at url
	Extract(ctx context.Context, url string) (*models.ExtractionResult, error)
}
