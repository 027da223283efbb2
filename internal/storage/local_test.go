package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func newTestLocal(t *testing.T) *LocalStorage {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	s, err := NewLocalStorage(LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, logger)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return s
}

func TestLocalStorage_PutGetRoundTrip(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	content := []byte("jpeg bytes would go here")
	key := "products/abc/image.jpg"

	if err := s.Put(ctx, key, bytes.NewReader(content), PutOptions{ContentType: "image/jpeg"}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	rc, info, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer rc.Close()

	got, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("reading object: %v", err)
	}
	if !bytes.Equal(got, content) {
		t.Error("stored content does not round-trip")
	}
	if info.Size != int64(len(content)) {
		t.Errorf("Size = %d, want %d", info.Size, len(content))
	}
}

func TestLocalStorage_GetMissingKey(t *testing.T) {
	s := newTestLocal(t)

	_, _, err := s.Get(context.Background(), "products/nope/image.jpg")
	if !IsNotFound(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestLocalStorage_PutWithoutOverwrite(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	key := "products/abc/image.jpg"

	if err := s.Put(ctx, key, strings.NewReader("first"), PutOptions{}); err != nil {
		t.Fatalf("first Put: %v", err)
	}

	err := s.Put(ctx, key, strings.NewReader("second"), PutOptions{})
	if !errors.Is(err, ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}

	if err := s.Put(ctx, key, strings.NewReader("second"), PutOptions{Overwrite: true}); err != nil {
		t.Errorf("Put with Overwrite should succeed: %v", err)
	}
}

func TestLocalStorage_PutTooLarge(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	err := s.Put(ctx, "big.bin", strings.NewReader("0123456789"), PutOptions{MaxSize: 5})
	if !IsTooLarge(err) {
		t.Errorf("expected too-large error, got %v", err)
	}

	// A rejected object must not linger on disk.
	exists, err := s.Exists(ctx, "big.bin")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("over-limit object should have been removed")
	}

	// Exactly at the limit is fine.
	if err := s.Put(ctx, "ok.bin", strings.NewReader("01234"), PutOptions{MaxSize: 5}); err != nil {
		t.Errorf("at-limit Put should succeed: %v", err)
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()
	key := "products/abc/thumb.jpg"

	if err := s.Put(ctx, key, strings.NewReader("thumb"), PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	exists, _ := s.Exists(ctx, key)
	if exists {
		t.Error("object should be gone after Delete")
	}

	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, key); err != nil {
		t.Errorf("second Delete should be a no-op: %v", err)
	}
}

func TestLocalStorage_PathTraversalBlocked(t *testing.T) {
	s := newTestLocal(t)
	ctx := context.Background()

	for _, key := range []string{"../escape.txt", "products/../../etc/passwd", ""} {
		err := s.Put(ctx, key, strings.NewReader("x"), PutOptions{})
		if !errors.Is(err, ErrInvalidKey) {
			t.Errorf("key %q should be rejected, got %v", key, err)
		}
	}
}

func TestLocalStorage_URL(t *testing.T) {
	s := newTestLocal(t)

	url, err := s.URL(context.Background(), "products/abc/image.jpg", 0)
	if err != nil {
		t.Fatalf("URL: %v", err)
	}
	want := "http://localhost:8080/files/products/abc/image.jpg"
	if url != want {
		t.Errorf("URL = %q, want %q", url, want)
	}
}
