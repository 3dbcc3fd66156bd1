package compositor

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func near(t *testing.T, want color.RGBA, got color.RGBA, tolerance int) {
	t.Helper()
	diff := func(a, b uint8) int {
		d := int(a) - int(b)
		if d < 0 {
			return -d
		}
		return d
	}
	assert.True(t,
		diff(want.R, got.R) <= tolerance && diff(want.G, got.G) <= tolerance && diff(want.B, got.B) <= tolerance,
		"want %v, got %v", want, got)
}

type staticLogos string

func (s staticLogos) LogoFor(string) string { return string(s) }

type fakeQR struct{ err error }

func (f fakeQR) Encode(_ string, size int) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return solid(size, size, color.Black), nil
}

func newTestCompositor(t *testing.T, logos LogoResolver, qr QREncoder) *Compositor {
	t.Helper()
	fonts, err := LoadFonts("")
	require.NoError(t, err)
	return NewWith(logos, qr, fonts)
}

func TestDominantColor(t *testing.T) {
	tests := []struct {
		name     string
		img      image.Image
		expected color.RGBA
	}{
		{
			name:     "all white falls back to gray",
			img:      solid(50, 50, color.White),
			expected: FallbackColor,
		},
		{
			name:     "all black falls back to gray",
			img:      solid(50, 50, color.Black),
			expected: FallbackColor,
		},
		{
			name:     "bright colour is bucketed",
			img:      solid(50, 50, color.RGBA{R: 200, G: 100, B: 50, A: 255}),
			expected: color.RGBA{R: 180, G: 90, B: 30, A: 255},
		},
		{
			name:     "dark colour is brightened",
			img:      solid(50, 50, color.RGBA{R: 35, G: 35, B: 65, A: 255}),
			expected: color.RGBA{R: 71, G: 71, B: 143, A: 255},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DominantColor(tt.img))
		})
	}
}

func TestDominantColorIgnoresWhiteBackground(t *testing.T) {
	img := solid(100, 100, color.White)
	for y := 40; y < 60; y++ {
		for x := 40; x < 60; x++ {
			img.Set(x, y, color.RGBA{R: 0, G: 150, B: 200, A: 255})
		}
	}
	assert.Equal(t, color.RGBA{R: 0, G: 150, B: 180, A: 255}, DominantColor(img))
}

func TestFormatForInstagramNeverCrops(t *testing.T) {
	red := color.RGBA{R: 220, A: 255}
	bg := color.RGBA{G: 200, A: 255}

	sizes := [][2]int{{400, 100}, {100, 400}, {300, 300}, {2000, 1500}}
	for _, s := range sizes {
		out := FormatForInstagram(solid(s[0], s[1], red), bg)
		require.Equal(t, image.Rect(0, 0, PostSize, PostSize), out.Bounds())

		// The photo always touches both ends of its long axis.
		if s[0] >= s[1] {
			near(t, red, out.RGBAAt(2, PostSize/2), 2)
			near(t, red, out.RGBAAt(PostSize-3, PostSize/2), 2)
		} else {
			near(t, red, out.RGBAAt(PostSize/2, 2), 2)
			near(t, red, out.RGBAAt(PostSize/2, PostSize-3), 2)
		}
	}

	tall := FormatForInstagram(solid(100, 400, red), bg)
	near(t, bg, tall.RGBAAt(10, PostSize/2), 2)
	near(t, bg, tall.RGBAAt(PostSize-10, PostSize/2), 2)
}

func TestFlattenOnWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(10, 10, 20, 20))
	out := FlattenOnWhite(img)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, out.RGBAAt(5, 5))
}

func TestComposeWithPriceBadge(t *testing.T) {
	blue := color.RGBA{B: 200, A: 255}
	c := newTestCompositor(t, nil, fakeQR{})

	post, err := c.Compose(solid(300, 300, blue), "$49.99", "https://www.depop.com/products/x/", "https://www.depop.com/products/x/")
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, PostSize, PostSize), post.Bounds())

	// inside the price badge's left padding
	near(t, color.RGBA{R: 245, G: 245, B: 250, A: 255}, post.RGBAAt(48, 1000), 8)
	// QR module area
	near(t, color.RGBA{A: 255}, post.RGBAAt(PostSize-margin-qrBadgeWidth/2, PostSize-margin-qrBorder-qrInnerPadding-qrSize/2), 10)
	// untouched photo area
	near(t, blue, post.RGBAAt(PostSize/2, PostSize/2), 2)
}

func TestComposeWithoutPriceHasLogoAndQR(t *testing.T) {
	blue := color.RGBA{B: 200, A: 255}
	green := color.RGBA{G: 180, A: 255}

	logoPath := filepath.Join(t.TempDir(), "logo.png")
	f, err := os.Create(logoPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(120, 60, green)))
	require.NoError(t, f.Close())

	c := newTestCompositor(t, staticLogos(logoPath), fakeQR{})

	post, err := c.Compose(solid(300, 300, blue), "", "https://shop.example.com/item", "https://shop.example.com/item")
	require.NoError(t, err)

	// no price badge
	near(t, blue, post.RGBAAt(48, 1000), 2)
	// logo centred along the bottom
	near(t, green, post.RGBAAt(PostSize/2, PostSize-margin-logoHeight/2), 4)
	// QR badge present
	near(t, color.RGBA{A: 255}, post.RGBAAt(PostSize-margin-qrBadgeWidth/2, PostSize-margin-qrBorder-qrInnerPadding-qrSize/2), 10)
}

func TestComposeDrawsPlaceholderWhenQRFails(t *testing.T) {
	blue := color.RGBA{B: 200, A: 255}
	c := newTestCompositor(t, staticLogos(filepath.Join(t.TempDir(), "missing.png")), fakeQR{err: errors.New("too long")})

	post, err := c.Compose(solid(300, 300, blue), "", "https://shop.example.com/item", "https://shop.example.com/item")
	require.NoError(t, err)

	// the placeholder is mostly white where the code would be
	near(t, color.RGBA{R: 255, G: 255, B: 255, A: 255}, post.RGBAAt(PostSize-margin-qrBadgeWidth/2, PostSize-margin-qrBorder-qrInnerPadding-qrSize/2+20), 12)
	// no logo
	near(t, blue, post.RGBAAt(PostSize/2, PostSize-margin-logoHeight/2), 2)
}

func TestComposeRejectsEmptyPhoto(t *testing.T) {
	c := newTestCompositor(t, nil, fakeQR{})
	_, err := c.Compose(image.NewRGBA(image.Rect(0, 0, 0, 0)), "", "https://x.example", "")
	assert.Error(t, err)
}

func TestHighRecoveryEncoder(t *testing.T) {
	img, err := HighRecoveryEncoder{}.Encode("https://www.depop.com/products/seller-item/", qrSize)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, qrSize, qrSize), img.Bounds())

	var dark, light int
	for y := 0; y < qrSize; y++ {
		for x := 0; x < qrSize; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r < 0x8000 {
				dark++
			} else {
				light++
			}
		}
	}
	assert.Positive(t, dark)
	assert.Positive(t, light)
}
