package service

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/alamigestion/server/internal/storage"
)

func newTestStore(t *testing.T) storage.Storage {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store, err := storage.NewLocalStorage(storage.LocalConfig{
		BasePath: t.TempDir(),
		BaseURL:  "http://localhost:8080/files/",
	}, logger)
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	return store
}

// Re-uploading with a different content type changes the image key's
// extension; the object under the old key must not linger.
func TestRemoveReplacedImage_DeletesOldKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	oldKey := "products/abc/image.png"
	newKey := "products/abc/image.jpg"
	if err := store.Put(ctx, oldKey, strings.NewReader("png bytes"), storage.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	removeReplacedImage(ctx, store, oldKey, newKey, logger)

	exists, err := store.Exists(ctx, oldKey)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("replaced image should have been deleted")
	}
}

func TestRemoveReplacedImage_KeepsUnchangedKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	key := "products/abc/image.jpg"
	if err := store.Put(ctx, key, strings.NewReader("jpeg bytes"), storage.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	removeReplacedImage(ctx, store, key, key, logger)
	removeReplacedImage(ctx, store, "", key, logger)

	exists, err := store.Exists(ctx, key)
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Error("image stored under the current key should survive")
	}
}
