package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreSaveURLDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}

	if err := store.Save(ctx, "a.png", "image/png", strings.NewReader("png-bytes")); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("saved content = %q", data)
	}

	url, err := store.URL(ctx, "a.png")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if url != "/uploads/a.png" {
		t.Fatalf("url = %q", url)
	}

	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.png")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected file to be gone, stat err = %v", err)
	}
	if err := store.Delete(ctx, "a.png"); err != nil {
		t.Fatalf("deleting a missing photo should be a no-op, got %v", err)
	}
}

func TestDiskStoreClear(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	for _, name := range []string{"a.jpg", "b.png"} {
		if err := store.Save(ctx, name, "image/jpeg", strings.NewReader(name)); err != nil {
			t.Fatalf("save %s: %v", name, err)
		}
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(store.Dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries", len(entries))
	}
}

func TestDiskStoreRejectsPathNames(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}
	for _, name := range []string{"", "..", "../escape.png", "nested/a.png", `win\a.png`} {
		if err := store.Save(ctx, name, "image/png", strings.NewReader("x")); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Save(%q) err = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Save(ctx, "a.png", "image/png", strings.NewReader("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if names := store.Names(); len(names) != 1 || names[0] != "a.png" {
		t.Fatalf("names = %v", names)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if names := store.Names(); len(names) != 0 {
		t.Fatalf("names after clear = %v", names)
	}
}
