// Package tesseract provides the Tesseract-backed text recognizer used by the
// local extraction pass.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// DefaultPageSegMode treats the image as a single uniform block of text.
const DefaultPageSegMode = int(gosseract.PSM_SINGLE_BLOCK)

// Recognizer runs Tesseract through gosseract. A fresh client is created per
// call since gosseract clients are not safe for concurrent use.
type Recognizer struct {
	language    string
	pageSegMode int
}

// New returns a recognizer for the given language and page segmentation mode.
func New(language string, pageSegMode int) *Recognizer {
	language = strings.TrimSpace(language)
	if language == "" {
		language = "eng"
	}
	if pageSegMode <= 0 {
		pageSegMode = DefaultPageSegMode
	}
	return &Recognizer{language: language, pageSegMode: pageSegMode}
}

// Recognize returns the text Tesseract finds in png.
func (r *Recognizer) Recognize(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("tesseract language %q: %w", r.language, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(r.pageSegMode)); err != nil {
		return "", fmt.Errorf("tesseract page seg mode %d: %w", r.pageSegMode, err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("tesseract load image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract recognize: %w", err)
	}
	return text, nil
}

// Version reports the linked Tesseract version for diagnostics.
func Version() string {
	return gosseract.Version()
}
