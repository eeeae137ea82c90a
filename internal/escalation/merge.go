package escalation

import (
	"igreport/internal/extraction"
	"igreport/internal/normalize"
)

// Fields is the merged, normalized view of an image that the record builder
// persists.
type Fields struct {
	Identity           string
	FollowersRaw       string
	FollowersCanonical string
	Confidence         float64
	Source             extraction.Source
}

// Complete reports whether both canonical fields are present.
func (f Fields) Complete() bool {
	return f.Identity != "" && f.FollowersCanonical != ""
}

// Normalize derives Fields from a single extraction result.
func Normalize(result extraction.Result) Fields {
	return Fields{
		Identity:           normalize.CleanIdentity(result.Identity),
		FollowersRaw:       result.FollowersRaw,
		FollowersCanonical: normalize.NormalizeFollowers(result.FollowersRaw),
		Confidence:         result.ConfidenceValue(),
		Source:             result.Source,
	}
}

// Merge overlays the remote result on the local one. Non-empty remote fields
// win; confidence is replaced only when the remote result carries one.
// Followers are re-normalized from whichever raw value survives.
func Merge(local, remote extraction.Result) Fields {
	merged := Normalize(local)
	overwritten := false

	if identity := normalize.CleanIdentity(remote.Identity); identity != "" {
		merged.Identity = identity
		overwritten = true
	}
	if remote.FollowersRaw != "" {
		merged.FollowersRaw = remote.FollowersRaw
		overwritten = true
	}
	if remote.Confidence != nil {
		merged.Confidence = *remote.Confidence
		overwritten = true
	}
	if overwritten {
		merged.Source = extraction.SourceRemote
	}
	merged.FollowersCanonical = normalize.NormalizeFollowers(merged.FollowersRaw)
	return merged
}
