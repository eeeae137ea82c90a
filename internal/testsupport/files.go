package testsupport

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

// PNG returns a small solid-colour PNG image.
func PNG(t testing.TB, width, height int) []byte {
	t.Helper()

	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	img := imaging.New(width, height, color.NRGBA{R: 0xf0, G: 0xf0, B: 0xf0, A: 0xff})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WriteImage writes a PNG screenshot stand-in to dir and returns its path.
func WriteImage(t testing.TB, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, PNG(t, 8, 8), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
