// Package escalation decides when the remote extractor is worth calling,
// whether a queued call should be advised, attempted, or abandoned, and how a
// remote result is folded into the local one.
//
// Modes:
//   - local: remote only as a safety net when local extraction missed and a
//     credential exists.
//   - hybrid: remote whenever local extraction did not produce both an
//     identity and a normalizable follower count.
//   - remote (alias openai): remote for every image when a credential exists;
//     the local pass still runs first and backs up a failed remote call.
//   - manual: no automatic extraction; the caller supplies a correction.
package escalation
