// Package matching assigns extracted identities to positions in an ordered
// target list using a fuzzy similarity ratio.
package matching

import (
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// DefaultThreshold is the minimum ratio a candidate must reach to be matched.
const DefaultThreshold = 75

// NoMatch is the Result.Index value used when no target cleared the threshold.
const NoMatch = -1

// Result reports the best target position and its similarity score.
type Result struct {
	// Index is the 0-based position in the target list, or NoMatch.
	Index int
	// Score is the best ratio seen, kept even when Index is NoMatch.
	Score int
}

// Matched reports whether a target cleared the threshold.
func (r Result) Matched() bool {
	return r.Index != NoMatch
}

// OrderIndex converts the match into the 1-based position stored with items.
// Zero means unmatched.
func (r Result) OrderIndex() int {
	if !r.Matched() {
		return 0
	}
	return r.Index + 1
}

// Ratio returns a 0-100 similarity score between a and b based on the
// normalized insertion/deletion distance: 200*LCS/(len(a)+len(b)), floored.
func Ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	return 200 * edlib.LCS(a, b) / total
}

// BestMatch scores candidate against every target and keeps the first entry
// with the strictly highest score. The index is reported only when that score
// is at least threshold.
func BestMatch(candidate string, targets []string, threshold int) Result {
	if len(targets) == 0 {
		return Result{Index: NoMatch, Score: 0}
	}

	bestIndex, bestScore := NoMatch, -1
	for i, target := range targets {
		score := Ratio(candidate, target)
		if score > bestScore {
			bestIndex, bestScore = i, score
		}
	}

	if bestScore >= threshold {
		return Result{Index: bestIndex, Score: bestScore}
	}
	return Result{Index: NoMatch, Score: bestScore}
}
