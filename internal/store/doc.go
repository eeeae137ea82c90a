// Package store persists sessions, per-actor order lists, and extracted items
// in SQLite.
//
// Each actor has at most one open session. Items belong to a session and are
// created once per processed image, even when extraction produced nothing, so
// the image reference is never lost. Corrections update the latest item in
// place and undo removes it; ending or cancelling a session only changes its
// status.
//
// The schema is embedded and versioned. A database written by a different
// schema version is rejected with ErrSchemaMismatch rather than migrated.
package store
