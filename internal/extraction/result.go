// Package extraction defines the result shared by the local and remote
// extractors.
package extraction

import "igreport/internal/services"

// Source identifies which extractor produced a result.
type Source string

const (
	SourceLocal  Source = "local"
	SourceRemote Source = "remote"
)

// Confidence thresholds reported by the local heuristics.
const (
	ConfidenceBoth = 0.85
	ConfidenceOne  = 0.60
	ConfidenceNone = 0.0
)

// Result is the immutable output of one extraction attempt. Empty strings
// stand for absent fields; Confidence is nil when the extractor supplied none.
type Result struct {
	Identity     string
	FollowersRaw string
	Confidence   *float64
	Source       Source
	// Err records why the result is degraded. It wraps one of the services
	// sentinels and is nil for a clean extraction.
	Err error
}

// Empty reports whether neither field was extracted.
func (r Result) Empty() bool {
	return r.Identity == "" && r.FollowersRaw == ""
}

// ConfidenceValue returns the confidence or 0 when none was supplied.
func (r Result) ConfidenceValue() float64 {
	if r.Confidence == nil {
		return 0
	}
	return *r.Confidence
}

// FailureKind returns the short classification of Err.
func (r Result) FailureKind() string {
	return services.FailureKind(r.Err)
}

// Float returns a pointer to v for populating Result.Confidence.
func Float(v float64) *float64 {
	return &v
}
