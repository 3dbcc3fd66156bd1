// Package compositor turns a listing photo into a square post with price,
// marketplace logo and QR badges.
package compositor

import (
	"errors"
	"image"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/raushankrgupta/listing-poster/config"
	"github.com/raushankrgupta/listing-poster/utils"
)

// LogoResolver maps a listing host to a logo file path.
type LogoResolver interface {
	LogoFor(host string) string
}

type Compositor struct {
	logos  LogoResolver
	qr     QREncoder
	fonts  *Fonts
	logger *slog.Logger

	// font faces keep per-glyph caches that must not be shared across goroutines
	mu sync.Mutex
}

// New builds a compositor from config, loading FONT_PATH when set.
func New(cfg *config.Config) (*Compositor, error) {
	fonts, err := LoadFonts(cfg.FontPath)
	if err != nil {
		return nil, err
	}
	return NewWith(cfg, HighRecoveryEncoder{}, fonts), nil
}

// NewWith builds a compositor from explicit parts.
func NewWith(logos LogoResolver, qr QREncoder, fonts *Fonts) *Compositor {
	return &Compositor{
		logos:  logos,
		qr:     qr,
		fonts:  fonts,
		logger: slog.Default().With("component", "compositor"),
	}
}

// Compose builds the 1080×1080 post. price must be "" or already
// normalized; an empty price means no price badge. qrURL is encoded as-is.
// logoURL picks the marketplace logo by host.
func (c *Compositor) Compose(photo image.Image, price, qrURL, logoURL string) (*image.RGBA, error) {
	if photo == nil || photo.Bounds().Empty() {
		return nil, errors.New("compose: empty photo")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	flat := FlattenOnWhite(photo)
	accent := DominantColor(flat)
	canvas := FormatForInstagram(flat, accent)

	if price != "" {
		c.DrawPriceBadge(canvas, price, accent)
	}

	if logo := c.loadLogo(logoURL); logo != nil {
		DrawLogo(canvas, logo)
	}

	c.DrawQRBadge(canvas, qrURL, accent)
	return canvas, nil
}

func (c *Compositor) loadLogo(listingURL string) image.Image {
	if c.logos == nil {
		return nil
	}
	host := listingURL
	if u, err := url.Parse(listingURL); err == nil && u.Host != "" {
		host = u.Host
	}
	path := c.logos.LogoFor(strings.ToLower(host))
	if path == "" {
		return nil
	}
	logo, err := utils.LoadImageFile(path)
	if err != nil {
		c.logger.Debug("no logo drawn", "path", path, "error", err)
		return nil
	}
	return logo
}
