package utils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"

	"github.com/raushankrgupta/listing-poster/models"
	_ "golang.org/x/image/webp"
)

const (
	maxImageBytes = 32 << 20

	// a compressed image can claim dimensions far beyond its byte size
	maxImagePixels = 64 << 20
)

// DownloadImage fetches and decodes a product photo. Transport failures and
// non-200 responses come back as *models.NetworkError so callers can tell a 404
// apart from an undecodable body.
func DownloadImage(ctx context.Context, client *http.Client, imageURL, userAgent string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, &models.InvalidInputError{Input: imageURL, Reason: err.Error()}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &models.NetworkError{URL: imageURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &models.NetworkError{URL: imageURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &models.NetworkError{URL: imageURL, Err: err}
	}

	img, err := decodeBounded(body)
	if err != nil {
		return nil, &models.NotFoundError{URL: imageURL, What: fmt.Sprintf("a decodable photo (%v)", err)}
	}
	return img, nil
}

// LoadImageFile decodes a locally saved photo.
func LoadImageFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.InvalidInputError{Input: path, Reason: err.Error()}
	}

	img, err := decodeBounded(data)
	if err != nil {
		return nil, &models.InvalidInputError{Input: path, Reason: fmt.Sprintf("not a supported image: %v", err)}
	}
	return img, nil
}

// DecodeImage decodes raw image bytes such as a browser screenshot.
func DecodeImage(data []byte) (image.Image, error) {
	img, err := decodeBounded(data)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// decodeBounded reads the header first and refuses images whose pixel
// count exceeds maxImagePixels before any pixel buffer is allocated.
func decodeBounded(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image dimensions %dx%d out of range", cfg.Width, cfg.Height)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}
