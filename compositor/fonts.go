package compositor

import (
	"fmt"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
)

const (
	priceFontSize       = 48
	captionFontSize     = 18
	placeholderFontSize = 14
)

// Fonts holds the faces used on a post. Faces are not safe for concurrent use.
type Fonts struct {
	Price       font.Face
	Caption     font.Face
	Placeholder font.Face
}

// LoadFonts loads the TrueType file at path, or the embedded Go Bold face when path is empty.
func LoadFonts(path string) (*Fonts, error) {
	if path != "" {
		return loadFontFile(path)
	}

	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	face := func(size float64) (font.Face, error) {
		return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	}

	fonts := &Fonts{}
	if fonts.Price, err = face(priceFontSize); err != nil {
		return nil, err
	}
	if fonts.Caption, err = face(captionFontSize); err != nil {
		return nil, err
	}
	if fonts.Placeholder, err = face(placeholderFontSize); err != nil {
		return nil, err
	}
	return fonts, nil
}

func loadFontFile(path string) (*Fonts, error) {
	price, err := gg.LoadFontFace(path, priceFontSize)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	caption, err := gg.LoadFontFace(path, captionFontSize)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	placeholder, err := gg.LoadFontFace(path, placeholderFontSize)
	if err != nil {
		return nil, fmt.Errorf("load font %s: %w", path, err)
	}
	return &Fonts{Price: price, Caption: caption, Placeholder: placeholder}, nil
}
