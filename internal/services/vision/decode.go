package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"igreport/internal/extraction"
)

// ParseResult decodes the model reply into an extraction result. The reply
// must be a JSON object, optionally wrapped in a code fence. Missing or null
// keys yield empty fields; a confidence that is not a number is dropped.
func ParseResult(content string) (extraction.Result, error) {
	trimmed := StripCodeFence(content)
	if trimmed == "" {
		return extraction.Result{}, errors.New("empty payload")
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return extraction.Result{}, fmt.Errorf("decode json object: %w", err)
	}
	if payload == nil {
		return extraction.Result{}, errors.New("payload is not a json object")
	}

	result := extraction.Result{
		Identity:     stringField(payload["username"]),
		FollowersRaw: stringField(payload["followers"]),
		Source:       extraction.SourceRemote,
	}
	if conf, ok := floatField(payload["confidence"]); ok {
		result.Confidence = extraction.Float(math.Min(math.Max(conf, 0), 1))
	}
	return result, nil
}

// StripCodeFence removes a surrounding ``` or ```json fence.
func StripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	body := trimmed[3:]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}
	body = strings.TrimSpace(body)
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}

func stringField(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func floatField(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func summarizePayloadSnippet(content string) string {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "<empty>"
	}
	clean := strings.Join(strings.Fields(trimmed), " ")
	const limit = 160
	runes := []rune(clean)
	if len(runes) > limit {
		clean = string(runes[:limit]) + "..."
	}
	return clean
}
