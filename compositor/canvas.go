package compositor

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// PostSize is the side of every generated post.
const PostSize = 1080

// FlattenOnWhite composites img over opaque white so transparent photos
// (PNG, WebP) never show through as black.
func FlattenOnWhite(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Over)
	return out
}

// FormatForInstagram pads img to a square with bg, centring it on the short
// axis, and resamples the square to PostSize×PostSize. Nothing is cropped.
func FormatForInstagram(img image.Image, bg color.Color) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, PostSize, PostSize))

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		draw.Draw(out, out.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
		return out
	}

	side := w
	offset := image.Point{Y: (w - h) / 2}
	if h > w {
		side = h
		offset = image.Point{X: (h - w) / 2}
	}

	square := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(square, square.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(square, image.Rectangle{Min: offset, Max: offset.Add(image.Pt(w, h))}, img, b.Min, draw.Over)

	xdraw.CatmullRom.Scale(out, out.Bounds(), square, square.Bounds(), draw.Src, nil)
	return out
}

// scaleToHeight resizes img so its height is h, keeping the aspect ratio.
func scaleToHeight(img image.Image, h int) *image.RGBA {
	b := img.Bounds()
	w := b.Dx() * h / b.Dy()
	if w < 1 {
		w = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Over, nil)
	return out
}
