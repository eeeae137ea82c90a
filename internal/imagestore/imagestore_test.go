package imagestore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestImportCopiesAndReads(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "shot.PNG")
	content := []byte("fake image bytes")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	store, err := New(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatal(err)
	}
	ref, data, err := store.Import(src)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if string(data) != string(content) {
		t.Fatalf("unexpected data %q", data)
	}
	if !strings.HasSuffix(ref, ".png") {
		t.Fatalf("expected lowercased extension, got %q", ref)
	}

	if err := os.Remove(src); err != nil {
		t.Fatal(err)
	}
	got, err := store.Read(ref)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestPutUsesDistinctRefs(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ids := []string{"a", "b"}
	store.newID = func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
	first, err := store.Put([]byte("1"), "jpg")
	if err != nil {
		t.Fatal(err)
	}
	second, err := store.Put([]byte("2"), "")
	if err != nil {
		t.Fatal(err)
	}
	if first != "a.jpg" || second != "b" {
		t.Fatalf("unexpected refs %q %q", first, second)
	}
}

func TestPutRefusesToOverwrite(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	store.newID = func() string { return "same" }
	if _, err := store.Put([]byte("1"), ""); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Put([]byte("2"), ""); err == nil {
		t.Fatal("expected collision to fail")
	}
	data, err := store.Read("same")
	if err != nil || string(data) != "1" {
		t.Fatalf("expected original content kept, got %q (%v)", data, err)
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []string{"", "../etc/passwd", "a/b", ".hidden"} {
		if _, err := store.Path(ref); !errors.Is(err, ErrInvalidRef) {
			t.Fatalf("expected ErrInvalidRef for %q, got %v", ref, err)
		}
	}
}

func TestNewRequiresDir(t *testing.T) {
	if _, err := New(" "); err == nil {
		t.Fatal("expected error for empty dir")
	}
}

func TestRemoveDeletesStoredFile(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ref, err := store.Put([]byte("shot"), "png")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Remove(ref); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := store.Read(ref); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected removed image to be gone, got %v", err)
	}
	if err := store.Remove(ref); err != nil {
		t.Fatalf("second Remove should be a no-op, got %v", err)
	}
	if err := store.Remove("../escape.png"); !errors.Is(err, ErrInvalidRef) {
		t.Fatalf("expected ErrInvalidRef, got %v", err)
	}
}
