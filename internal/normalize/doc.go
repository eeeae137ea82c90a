// Package normalize converts raw OCR text into canonical identity strings and
// canonical follower counts.
//
// All functions are pure and never panic. An empty return value means the
// input could not be normalized.
package normalize
