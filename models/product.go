package models

import (
	"fmt"
	"image"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ListingReference identifies one listing to turn into a post.
type ListingReference struct {
	URL            string
	Domain         string // lower-cased host, e.g. "www.depop.com"
	LocalPhotoPath string // when set, extraction is skipped
}

// NewListingReference validates a raw listing URL. It never touches the network.
func NewListingReference(rawURL, localPhotoPath string) (ListingReference, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ListingReference{}, &InvalidInputError{Input: rawURL, Reason: fmt.Sprintf("invalid URL: %v", err)}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return ListingReference{}, &InvalidInputError{Input: rawURL, Reason: "URL needs a scheme and a host"}
	}
	return ListingReference{
		URL:            rawURL,
		Domain:         strings.ToLower(parsed.Host),
		LocalPhotoPath: localPhotoPath,
	}, nil
}

// RegistrableDomain returns the eTLD+1 ("depop.com" for "www.depop.com"),
// falling back to the host itself for IPs and localhost.
func (r ListingReference) RegistrableDomain() string {
	host := r.Domain
	if h, _, ok := strings.Cut(host, ":"); ok {
		host = h
	}
	if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
		return d
	}
	return host
}

// ExtractionResult is what a strategy hands to the compositor.
type ExtractionResult struct {
	Photo        image.Image
	Price        string // "" or canonical, e.g. "$49.99"
	EffectiveURL string // set when the page points elsewhere (pins)
	PhotoURL     string
	Source       string // strategy name
}

// TargetURL is the listing the QR code should open.
func (r *ExtractionResult) TargetURL(original string) string {
	if r != nil && r.EffectiveURL != "" {
		return r.EffectiveURL
	}
	return original
}
