package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrConfiguration     = errors.New("configuration error")
	ErrNotFound          = errors.New("not found")
	ErrTransient         = errors.New("transient failure")
	ErrLocalDecode       = errors.New("image decode failed")
	ErrLocalMiss         = errors.New("nothing recognized")
	ErrRateLimited       = errors.New("rate limited")
	ErrRemoteUnavailable = errors.New("remote extractor unavailable")
	ErrRemoteParse       = errors.New("remote response unparseable")
	ErrRemoteFatal       = errors.New("remote request failed")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// FailureKind maps an extraction error to the short label stored with items
// and shown in logs. Unknown errors map to "transient".
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, ErrRemoteParse):
		return "parse"
	case errors.Is(err, ErrRemoteFatal):
		return "fatal"
	case errors.Is(err, ErrLocalDecode):
		return "decode"
	case errors.Is(err, ErrLocalMiss):
		return "local_miss"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration), errors.Is(err, ErrNotFound):
		return "review"
	default:
		return "transient"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
