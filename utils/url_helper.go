package utils

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/raushankrgupta/listing-poster/config"
)

var (
	schemeRe    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+\-.]*://`)
	mobileSubRe = regexp.MustCompile(`^m\.`)
)

var trackingParams = map[string]bool{
	"utm_source": true, "utm_medium": true, "utm_campaign": true, "utm_content": true, "utm_term": true,
	"ref": true, "referrer": true, "source": true, "share": true, "shareable_code": true,
	"norover": true, "_trkparms": true, "_trksid": true, "ssPageName": true,
	"fbclid": true, "gclid": true, "msclkid": true,
}

// Canonicalizer turns listing links into the clean browser URL encoded in the QR badge.
type Canonicalizer struct {
	Client         *http.Client
	UserAgent      string
	AppLinkDomains []string
	Policies       []config.DomainPolicy
	logger         *slog.Logger
}

// NewCanonicalizer builds a Canonicalizer from the loaded configuration.
func NewCanonicalizer(cfg *config.Config) *Canonicalizer {
	return &Canonicalizer{
		Client:         &http.Client{Timeout: 10 * time.Second},
		UserAgent:      cfg.UserAgent,
		AppLinkDomains: cfg.AppLinkDomains,
		Policies:       cfg.DomainPolicies,
		logger:         slog.Default().With("component", "canonicalizer"),
	}
}

// IsAppLink reports whether host belongs to a known app-link redirector.
func (c *Canonicalizer) IsAppLink(host string) bool {
	host = strings.ToLower(host)
	for _, d := range c.AppLinkDomains {
		if strings.Contains(host, d) {
			return true
		}
	}
	return false
}

// Canonicalize resolves app links, forces https, drops the mobile subdomain and
// tracking parameters, then applies the marketplace's host policy.
func (c *Canonicalizer) Canonicalize(ctx context.Context, raw string) string {
	raw = strings.TrimSpace(raw)

	if parsed, err := url.Parse(raw); err == nil && c.IsAppLink(parsed.Host) {
		c.logger.Info("resolving app link", "url", raw)
		raw = c.ResolveAppLink(ctx, raw)
		c.logger.Info("app link resolved", "url", raw)
	}

	if !strings.HasPrefix(raw, "http") {
		raw = schemeRe.ReplaceAllString(raw, "https://")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	host := mobileSubRe.ReplaceAllString(parsed.Host, "")
	query := parsed.Query()
	for key := range query {
		if trackingParams[key] {
			query.Del(key)
		}
	}

	if policy, ok := c.policyFor(strings.ToLower(host)); ok {
		if policy.Host != "" {
			host = policy.Host
		}
		if policy.DropQuery {
			query = url.Values{}
		}
	}

	out := url.URL{
		Scheme:   "https",
		Host:     host,
		Path:     parsed.Path,
		RawPath:  parsed.RawPath,
		RawQuery: query.Encode(),
	}
	return out.String()
}

func (c *Canonicalizer) policyFor(host string) (config.DomainPolicy, bool) {
	for _, p := range c.Policies {
		for _, m := range p.Match {
			if strings.Contains(host, m) {
				return p, true
			}
		}
	}
	return config.DomainPolicy{}, false
}

// ResolveAppLink follows the redirect chain with a desktop user agent and returns
// the landing URL. It keeps the original when the request fails or lands on
// another app-link host.
func (c *Canonicalizer) ResolveAppLink(ctx context.Context, link string) string {
	final, err := ResolveShortenedURL(ctx, c.Client, link, c.UserAgent)
	if err != nil {
		c.logger.Warn("app link resolution failed", "url", link, "error", err)
		return link
	}
	if parsed, err := url.Parse(final); err != nil || c.IsAppLink(parsed.Host) {
		return link
	}
	return final
}

// ResolveShortenedURL follows redirects to find the final URL
func ResolveShortenedURL(ctx context.Context, client *http.Client, link, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return link, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return link, err
	}
	defer resp.Body.Close()

	return resp.Request.URL.String(), nil
}
