package poster

import (
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
)

const jpegQuality = 95

// OutputName is instagram_post.jpg for index 0 and instagram_post_<index>.jpg otherwise.
func OutputName(index int) string {
	if index <= 0 {
		return "instagram_post.jpg"
	}
	return fmt.Sprintf("instagram_post_%d.jpg", index)
}

// EncodeJPEG writes img at the quality every post is saved with.
func EncodeJPEG(w io.Writer, img image.Image) error {
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}

// Save encodes img as JPEG into a temporary file in the output directory and
// renames it into place, so a post file is either complete or absent.
func (p *Poster) Save(img image.Image, index int) (string, error) {
	if err := os.MkdirAll(p.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(p.outputDir, ".instagram_post-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	// CreateTemp makes the file owner-only
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("chmod temp file: %w", err)
	}
	if err := EncodeJPEG(tmp, img); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	final := filepath.Join(p.outputDir, OutputName(index))
	if err := os.Rename(tmpName, final); err != nil {
		return "", fmt.Errorf("move post into place: %w", err)
	}
	return final, nil
}
