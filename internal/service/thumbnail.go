package service

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/disintegration/imaging"

	// Register decoders for the formats accepted on upload.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

const (
	// ThumbnailMaxDim bounds both thumbnail dimensions in pixels.
	ThumbnailMaxDim = 320

	// ThumbnailJPEGQuality balances size against visible artifacts for
	// small catalog images.
	ThumbnailJPEGQuality = 85
)

// ThumbnailProcessor generates thumbnails from uploaded images.
type ThumbnailProcessor interface {
	// GenerateThumbnail decodes the image and returns a JPEG thumbnail
	// that fits within maxWidth x maxHeight, preserving aspect ratio.
	GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, error)
}

type imagingProcessor struct{}

// NewImagingProcessor creates a ThumbnailProcessor backed by the imaging
// library.
func NewImagingProcessor() ThumbnailProcessor {
	return &imagingProcessor{}
}

var _ ThumbnailProcessor = (*imagingProcessor)(nil)

func (p *imagingProcessor) GenerateThumbnail(data io.Reader, maxWidth, maxHeight int) ([]byte, error) {
	img, _, err := image.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	thumbnail := imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG, imaging.JPEGQuality(ThumbnailJPEGQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}
