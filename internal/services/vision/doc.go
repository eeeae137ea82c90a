// Package vision implements the remote extractor: an OpenAI-compatible chat
// completions client that reads a username and follower count from a
// screenshot.
//
// Every attempt waits on the shared rate scheduler first. Rate-limit replies
// are retried with a delay taken from the reply (message text, Retry-After,
// or reset headers) or an exponential fallback, and that delay is pushed to
// the scheduler so other callers back off too. Any other failure ends the
// extraction with an empty result.
package vision
