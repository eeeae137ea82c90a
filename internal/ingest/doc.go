// Package ingest turns one screenshot into one persisted item.
//
// Pipeline.Process runs the local extractor, normalizes its output, asks the
// escalation policy whether the remote extractor is warranted, consults the
// shared scheduler's wait estimate, merges any remote result, matches the
// identity against the actor's current order list, and stores the item. An
// item is stored for every image, including a stub with empty fields when
// nothing could be extracted or the remote queue is too long, so the image is
// never lost and can be fixed with a correction.
//
// Pipeline.Correct and Pipeline.Undo operate on the latest item of the actor's
// open session. Report builds the per-position view used by the status and
// review commands.
package ingest
