package storage

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
)

func TestDetectContentType_Priority(t *testing.T) {
	// Provided type wins over everything.
	if got := DetectContentType("image/webp", "photo.png", nil); got != "image/webp" {
		t.Errorf("provided type should win, got %q", got)
	}

	// Extension is used when no type is provided.
	if got := DetectContentType("", "photo.png", nil); got != "image/png" {
		t.Errorf("extension detection = %q, want image/png", got)
	}

	// Content sniffing as a last resort; this is a real PNG header.
	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}
	if got := DetectContentType("", "upload", bytes.NewReader(pngHeader)); got != "image/png" {
		t.Errorf("sniffed type = %q, want image/png", got)
	}

	// Nothing to go on.
	if got := DetectContentType("", "", nil); got != "application/octet-stream" {
		t.Errorf("fallback = %q, want application/octet-stream", got)
	}
}

func TestIsAllowedImageType(t *testing.T) {
	allowed := []string{"image/jpeg", "image/png", "image/webp", "IMAGE/JPEG", "image/png; charset=binary"}
	for _, ct := range allowed {
		if !IsAllowedImageType(ct) {
			t.Errorf("%q should be allowed", ct)
		}
	}

	refused := []string{"image/gif", "image/svg+xml", "application/pdf", "text/html", ""}
	for _, ct := range refused {
		if IsAllowedImageType(ct) {
			t.Errorf("%q should be refused", ct)
		}
	}
}

func TestExtensionForContentType(t *testing.T) {
	testCases := []struct {
		contentType string
		want        string
	}{
		{"image/jpeg", ".jpg"},
		{"image/jpg", ".jpg"},
		{"image/png", ".png"},
		{"image/webp", ".webp"},
		{"image/jpeg; charset=binary", ".jpg"},
		{"totally/unknown", ".bin"},
	}

	for _, tc := range testCases {
		if got := ExtensionForContentType(tc.contentType); got != tc.want {
			t.Errorf("ExtensionForContentType(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}
}

func TestProductImageKeys(t *testing.T) {
	id := uuid.MustParse("0b1f2b3c-0000-0000-0000-000000000000")

	if got := ProductImageKey(id, ".png"); got != "products/"+id.String()+"/image.png" {
		t.Errorf("ProductImageKey = %q", got)
	}
	if got := ProductThumbnailKey(id); got != "products/"+id.String()+"/thumb.jpg" {
		t.Errorf("ProductThumbnailKey = %q", got)
	}
}
