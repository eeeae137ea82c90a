// Package services defines shared utilities consumed by the extraction
// pipeline and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session IDs, item IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (rate limited, unparseable, unavailable) with errors.Is.
//
// The vision subpackage holds the remote extractor client.
package services
