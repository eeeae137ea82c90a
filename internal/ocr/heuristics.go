package ocr

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"igreport/internal/extraction"
)

var (
	identityPattern = regexp.MustCompile(`@?([a-z0-9._]{3,30})`)

	followersLabelPattern  = regexp.MustCompile(`(\d[\d,.\s]*[km]?)\s*(?:followers|follower|folowers|folowrs)`)
	followersSuffixPattern = regexp.MustCompile(`(\d[\d,.\s]*[km])`)
	followersDigitsPattern = regexp.MustCompile(`\d[\d,.\s]{2,}`)
)

// CleanText applies NFKC folding and lowercases recognized text so
// full-width digits and ligatures compare like their ASCII forms.
func CleanText(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// FindIdentity returns the longest handle-like token containing a letter,
// ties broken lexicographically, with trailing dots trimmed.
func FindIdentity(text string) string {
	matches := identityPattern.FindAllStringSubmatch(CleanText(text), -1)
	if len(matches) == 0 {
		return ""
	}

	seen := make(map[string]struct{}, len(matches))
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		candidates = append(candidates, m[1])
	}
	sort.Slice(candidates, func(i, j int) bool {
		if len(candidates[i]) != len(candidates[j]) {
			return len(candidates[i]) > len(candidates[j])
		}
		return candidates[i] < candidates[j]
	})

	for _, candidate := range candidates {
		if strings.ContainsFunc(candidate, isLetter) {
			return strings.TrimRight(candidate, ".")
		}
	}
	return ""
}

// FindFollowers returns the raw follower token. A number right before a
// "followers" label wins, then any k/m-suffixed number, then the longest run
// of at least three digits and separators.
func FindFollowers(text string) string {
	cleaned := CleanText(text)
	if m := followersLabelPattern.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := followersSuffixPattern.FindStringSubmatch(cleaned); m != nil {
		return strings.TrimSpace(m[1])
	}
	// Runs may swallow trailing blanks and line breaks; measure what is left.
	var longest string
	for _, m := range followersDigitsPattern.FindAllString(cleaned, -1) {
		m = strings.TrimRight(m, " \t\r\n")
		if len(m) >= 3 && len(m) > len(longest) {
			longest = m
		}
	}
	return longest
}

// Confidence scores a local result by how many fields were found.
func Confidence(identity, followers string) float64 {
	switch {
	case identity != "" && followers != "":
		return extraction.ConfidenceBoth
	case identity != "" || followers != "":
		return extraction.ConfidenceOne
	default:
		return extraction.ConfidenceNone
	}
}

func isLetter(r rune) bool {
	return r >= 'a' && r <= 'z'
}
