package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// contrastBoost is a percentage for imaging.AdjustContrast; +60 is a 1.6x stretch.
	contrastBoost = 60
	sharpenSigma  = 1.2
	// upscaleBelow is the larger-dimension threshold under which images are doubled.
	upscaleBelow = 1200
)

// Preprocess decodes image bytes and returns a PNG tuned for text recognition.
func Preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	processed := imaging.Grayscale(img)
	processed = imaging.AdjustContrast(processed, contrastBoost)
	processed = imaging.Sharpen(processed, sharpenSigma)

	bounds := processed.Bounds()
	if max(bounds.Dx(), bounds.Dy()) < upscaleBelow {
		processed = imaging.Resize(processed, bounds.Dx()*2, bounds.Dy()*2, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
