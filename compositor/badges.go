package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/fogleman/gg"
)

const (
	margin = 35

	priceBadgePadX   = 30
	priceBadgePadY   = 20
	priceBadgeBorder = 4
	priceBadgeRadius = 15

	logoHeight = 60

	qrSize         = 200
	qrInnerPadding = 20
	qrTextSpace    = 50
	qrBorder       = 4
	qrRadius       = 20
	qrMaskRadius   = 12
	qrBadgeWidth   = qrSize + 2*qrInnerPadding + 2*qrBorder
	qrBadgeHeight  = qrSize + 2*qrInnerPadding + qrTextSpace + 2*qrBorder

	qrCaption = "Screenshot to visit"
)

var badgeFill = color.NRGBA{R: 255, G: 255, B: 255, A: 245}

// badge draws a rounded white box whose border stays inside w×h.
func badge(dc *gg.Context, x, y, w, h, radius, border float64, accent color.Color) {
	dc.DrawRoundedRectangle(x+border/2, y+border/2, w-border, h-border, radius)
	dc.SetColor(badgeFill)
	dc.FillPreserve()
	dc.SetColor(accent)
	dc.SetLineWidth(border)
	dc.Stroke()
}

// DrawPriceBadge puts price in a bordered box in the bottom-left corner.
func (c *Compositor) DrawPriceBadge(canvas *image.RGBA, price string, accent color.Color) {
	dc := gg.NewContextForRGBA(canvas)
	dc.SetFontFace(c.fonts.Price)

	textW, textH := dc.MeasureString(price)
	boxW := textW + 2*priceBadgePadX + 2*priceBadgeBorder
	boxH := textH + 2*priceBadgePadY + 2*priceBadgeBorder
	x := float64(margin)
	y := float64(canvas.Bounds().Dy()) - boxH - margin

	badge(dc, x, y, boxW, boxH, priceBadgeRadius, priceBadgeBorder, accent)

	dc.SetColor(accent)
	dc.DrawStringAnchored(price, x+boxW/2, y+priceBadgeBorder+priceBadgePadY, 0.5, 1)
}

// DrawLogo scales logo to a fixed height and centres it along the bottom edge.
func DrawLogo(canvas *image.RGBA, logo image.Image) {
	scaled := scaleToHeight(logo, logoHeight)
	b := canvas.Bounds()
	x := (b.Dx() - scaled.Bounds().Dx()) / 2
	y := b.Dy() - logoHeight - margin
	draw.Draw(canvas, scaled.Bounds().Add(image.Pt(x, y)), scaled, image.Point{}, draw.Over)
}

// DrawQRBadge renders a QR code for url, with a caption, in the bottom-right
// corner. If encoding fails a readable placeholder takes its place.
func (c *Compositor) DrawQRBadge(canvas *image.RGBA, url string, accent color.Color) {
	code, err := c.qr.Encode(url, qrSize)
	if err != nil {
		c.logger.Warn("qr encoding failed, drawing placeholder", "url", url, "error", err)
		code = c.qrPlaceholder(url)
	}

	dc := gg.NewContext(qrBadgeWidth, qrBadgeHeight)
	badge(dc, 0, 0, qrBadgeWidth, qrBadgeHeight, qrRadius, qrBorder, accent)

	qx := float64(qrBorder + qrInnerPadding)
	qy := float64(qrBorder + qrInnerPadding + qrTextSpace)
	dc.DrawRoundedRectangle(qx, qy, qrSize, qrSize, qrMaskRadius)
	dc.Clip()
	dc.DrawImage(code, int(qx), int(qy))
	dc.ResetClip()

	dc.SetFontFace(c.fonts.Caption)
	dc.SetColor(accent)
	dc.DrawStringAnchored(qrCaption, qrBadgeWidth/2, qrBorder+15, 0.5, 1)

	b := canvas.Bounds()
	at := image.Pt(b.Dx()-qrBadgeWidth-margin, b.Dy()-qrBadgeHeight-margin)
	draw.Draw(canvas, image.Rect(0, 0, qrBadgeWidth, qrBadgeHeight).Add(at), dc.Image(), image.Point{}, draw.Over)
}

func (c *Compositor) qrPlaceholder(url string) image.Image {
	dc := gg.NewContext(qrSize, qrSize)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetColor(color.Black)
	dc.SetFontFace(c.fonts.Placeholder)
	dc.DrawStringWrapped("QR code unavailable.\nOpen the listing at:", qrSize/2, 20, 0.5, 0, qrSize-20, 1.4, gg.AlignCenter)

	short := url
	if len(short) > 30 {
		short = short[:30] + "..."
	}
	dc.DrawStringWrapped(short, 10, qrSize-60, 0, 0, qrSize-20, 1.4, gg.AlignLeft)
	return dc.Image()
}
