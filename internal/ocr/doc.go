// Package ocr implements the local extraction pass over screenshot bytes.
//
// Images are decoded and preprocessed with imaging (grayscale, contrast,
// sharpen, upscale when small), handed to a Recognizer for raw text, and the
// text is scanned with identity and follower heuristics. The tesseract
// subpackage supplies the production Recognizer; tests use stubs so the
// heuristics run without cgo.
package ocr
