// Package notifications pushes ingestion events to ntfy.
//
// When no topic is configured NewService returns a no-op implementation, so
// callers never need to check whether notifications are enabled. Events cover
// the moments a person has to act: a long remote queue, an image that needs a
// manual correction, a missing remote credential, and the end of a batch.
package notifications
