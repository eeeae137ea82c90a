package ingest

import (
	"fmt"

	"igreport/internal/escalation"
)

const correctionHint = "username=handle followers=1234 (or 1.2k / 1.2m)"

func queuedMessage(eta string) string {
	return fmt.Sprintf("Queued, processing in ~%s.", eta)
}

func queuedTooLongMessage(eta string) string {
	return fmt.Sprintf("Remote extraction is in a long cooldown (~%s). The image was saved; reply with: %s", eta, correctionHint)
}

func remoteUnavailableMessage() string {
	return "Local OCR could not read this and remote fallback is disabled (missing OPENAI_API_KEY). Send a correction: " + correctionHint
}

func manualMessage() string {
	return "Manual mode: the image was saved; reply with: " + correctionHint
}

func detectedMessage(identity, followers string, orderIndex, score int) string {
	position := "?"
	if orderIndex > 0 {
		position = fmt.Sprintf("%d", orderIndex)
	}
	return fmt.Sprintf("Detected %s - %s (order #%s, match %d)", identity, followers, position, score)
}

func unmatchedMessage(identity, followers string) string {
	return fmt.Sprintf("Got %s - %s, but it does not match any name in the order list. Fix it with: username=correct_name", identity, followers)
}

func needsCorrectionMessage(fields escalation.Fields) string {
	return fmt.Sprintf("Could not confidently detect username/followers (saw username=%q followers=%q). Reply like: %s",
		fields.Identity, fields.FollowersRaw, correctionHint)
}

func correctedMessage(identity, followers string) string {
	if identity == "" {
		identity = "-"
	}
	if followers == "" {
		followers = "-"
	}
	return fmt.Sprintf("Updated %s - %s", identity, followers)
}
