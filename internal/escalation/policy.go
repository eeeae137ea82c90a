package escalation

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects the extraction strategy.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeHybrid Mode = "hybrid"
	ModeRemote Mode = "remote"
	ModeManual Mode = "manual"
)

// ParseMode maps a configured mode name to a Mode. "openai" is accepted as an
// alias for remote.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "local":
		return ModeLocal, nil
	case "", "hybrid":
		return ModeHybrid, nil
	case "remote", "openai":
		return ModeRemote, nil
	case "manual":
		return ModeManual, nil
	default:
		return "", fmt.Errorf("unknown extraction mode %q", value)
	}
}

// Decision is the policy verdict for one image.
type Decision struct {
	// Extract is false only in manual mode.
	Extract bool
	// CallRemote requests the remote extractor.
	CallRemote bool
	// RemoteUnavailable is set when the mode wanted a remote call but no
	// credential is configured.
	RemoteUnavailable bool
	Reason            string
}

// GateAction is the verdict on a queued remote call.
type GateAction int

const (
	GateProceed GateAction = iota
	GateAdvise
	GateBail
)

func (a GateAction) String() string {
	switch a {
	case GateAdvise:
		return "advise"
	case GateBail:
		return "bail"
	default:
		return "proceed"
	}
}

// Gate pairs the action with the wait estimate it was based on.
type Gate struct {
	Action GateAction
	Wait   time.Duration
}

// Policy holds the mode and queue thresholds.
type Policy struct {
	Mode Mode
	// NotifyThreshold triggers an advisory at or above this wait. Zero disables it.
	NotifyThreshold time.Duration
	// MaxStartWait abandons the remote call at or above this wait. Zero disables it.
	MaxStartWait time.Duration
}

// Decide applies the mode to the local outcome. localOK means the local pass
// produced a clean identity and a normalizable follower count.
func (p Policy) Decide(localOK, hasCredential bool) Decision {
	switch p.Mode {
	case ModeManual:
		return Decision{Reason: "manual mode"}
	case ModeLocal:
		if localOK {
			return Decision{Extract: true, Reason: "local result complete"}
		}
		if hasCredential {
			return Decision{Extract: true, CallRemote: true, Reason: "local missed, escalating"}
		}
		return Decision{Extract: true, Reason: "local missed, no credential"}
	case ModeRemote:
		if hasCredential {
			return Decision{Extract: true, CallRemote: true, Reason: "remote preferred"}
		}
		return Decision{Extract: true, RemoteUnavailable: true, Reason: "remote preferred but no credential"}
	default:
		if localOK {
			return Decision{Extract: true, Reason: "local result complete"}
		}
		if hasCredential {
			return Decision{Extract: true, CallRemote: true, Reason: "local missed, escalating"}
		}
		return Decision{Extract: true, RemoteUnavailable: true, Reason: "local missed, no credential"}
	}
}

// Gate classifies an estimated wait. The ceiling is checked first so a wait
// at or above both thresholds bails instead of advising.
func (p Policy) Gate(wait time.Duration) Gate {
	switch {
	case p.MaxStartWait > 0 && wait >= p.MaxStartWait:
		return Gate{Action: GateBail, Wait: wait}
	case p.NotifyThreshold > 0 && wait >= p.NotifyThreshold:
		return Gate{Action: GateAdvise, Wait: wait}
	default:
		return Gate{Action: GateProceed, Wait: wait}
	}
}

// FormatETA renders a wait as "1h05m", "2m03s", or "7s".
func FormatETA(wait time.Duration) string {
	total := max(int(wait/time.Second), 0)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
