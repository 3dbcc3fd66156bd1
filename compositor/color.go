package compositor

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

const (
	sampleSize    = 150
	bucketWidth   = 30
	minBrightness = 80
)

// FallbackColor is used when every sampled pixel is near-white or near-black.
var FallbackColor = color.RGBA{R: 100, G: 100, B: 100, A: 255}

// DominantColor samples img at 150×150, ignores near-white and near-black
// pixels, and returns the most common 30-wide colour bucket. The earliest
// bucket seen wins a tie. Dark results are brightened to a luma of 80 so
// they stay readable on the white badges.
func DominantColor(img image.Image) color.RGBA {
	small := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	xdraw.ApproxBiLinear.Scale(small, small.Bounds(), img, img.Bounds(), draw.Src, nil)

	counts := make(map[color.RGBA]int)
	var order []color.RGBA
	for y := 0; y < sampleSize; y++ {
		for x := 0; x < sampleSize; x++ {
			px := small.RGBAAt(x, y)
			r, g, b := px.R, px.G, px.B
			if r > 240 && g > 240 && b > 240 {
				continue
			}
			if r < 15 && g < 15 && b < 15 {
				continue
			}
			key := color.RGBA{R: r / bucketWidth * bucketWidth, G: g / bucketWidth * bucketWidth, B: b / bucketWidth * bucketWidth, A: 255}
			if counts[key] == 0 {
				order = append(order, key)
			}
			counts[key]++
		}
	}

	if len(order) == 0 {
		return FallbackColor
	}

	dominant := order[0]
	for _, c := range order[1:] {
		if counts[c] > counts[dominant] {
			dominant = c
		}
	}
	return brighten(dominant)
}

func brighten(c color.RGBA) color.RGBA {
	luma := (float64(c.R)*299 + float64(c.G)*587 + float64(c.B)*114) / 1000
	if luma >= minBrightness {
		return c
	}
	factor := 2.0
	if luma > 0 {
		factor = minBrightness / luma
	}
	scale := func(v uint8) uint8 {
		s := int(float64(v) * factor)
		if s > 255 {
			s = 255
		}
		return uint8(s)
	}
	return color.RGBA{R: scale(c.R), G: scale(c.G), B: scale(c.B), A: 255}
}
