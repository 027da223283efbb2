package service

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testPNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateThumbnail_FitsWithinBounds(t *testing.T) {
	proc := NewImagingProcessor()

	data := testPNG(t, 640, 480)
	thumb, err := proc.GenerateThumbnail(bytes.NewReader(data), ThumbnailMaxDim, ThumbnailMaxDim)
	if err != nil {
		t.Fatalf("GenerateThumbnail: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail should be JPEG: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > ThumbnailMaxDim || bounds.Dy() > ThumbnailMaxDim {
		t.Errorf("thumbnail %dx%d exceeds %d px bound", bounds.Dx(), bounds.Dy(), ThumbnailMaxDim)
	}

	// 640x480 fit into a square keeps the 4:3 ratio.
	if bounds.Dx() != ThumbnailMaxDim {
		t.Errorf("landscape image should fill the width, got %d", bounds.Dx())
	}
}

func TestGenerateThumbnail_SmallImageNotUpscaled(t *testing.T) {
	proc := NewImagingProcessor()

	data := testPNG(t, 100, 80)
	thumb, err := proc.GenerateThumbnail(bytes.NewReader(data), ThumbnailMaxDim, ThumbnailMaxDim)
	if err != nil {
		t.Fatalf("GenerateThumbnail: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("thumbnail should be JPEG: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() > 100 || bounds.Dy() > 80 {
		t.Errorf("small image should not be upscaled, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestGenerateThumbnail_GarbageInput(t *testing.T) {
	proc := NewImagingProcessor()

	_, err := proc.GenerateThumbnail(bytes.NewReader([]byte("not an image")), ThumbnailMaxDim, ThumbnailMaxDim)
	if err == nil {
		t.Error("expected error for non-image input")
	}
}
