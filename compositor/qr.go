package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	"github.com/yeqown/go-qrcode/v2"
	"github.com/yeqown/go-qrcode/writer/standard"
	xdraw "golang.org/x/image/draw"
)

// QREncoder renders content as a square QR image of the given side.
type QREncoder interface {
	Encode(content string, size int) (image.Image, error)
}

// HighRecoveryEncoder encodes with the highest error correction level so a
// QR code still scans from a compressed screenshot.
type HighRecoveryEncoder struct{}

type nopCloser struct {
	*bytes.Buffer
}

func (nopCloser) Close() error { return nil }

func (HighRecoveryEncoder) Encode(content string, size int) (image.Image, error) {
	qrc, err := qrcode.NewWith(content, qrcode.WithErrorCorrectionLevel(qrcode.ErrorCorrectionHighest))
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	buf := &bytes.Buffer{}
	w := standard.NewWithWriter(nopCloser{buf},
		standard.WithBuiltinImageEncoder(standard.PNG_FORMAT),
		standard.WithQRWidth(10),
		standard.WithBorderWidth(20),
	)
	if err := qrc.Save(w); err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	raw, err := png.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decode qr: %w", err)
	}

	// Nearest neighbour keeps module edges sharp.
	out := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), raw, raw.Bounds(), draw.Src, nil)
	return out, nil
}
