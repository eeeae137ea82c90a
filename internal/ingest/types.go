package ingest

import (
	"context"
	"time"

	"igreport/internal/escalation"
	"igreport/internal/extraction"
	"igreport/internal/matching"
	"igreport/internal/store"
)

// LocalExtractor is the offline OCR pass.
type LocalExtractor interface {
	Extract(ctx context.Context, image []byte) extraction.Result
}

// RemoteExtractor is the rate-limited vision pass.
type RemoteExtractor interface {
	Available() bool
	Extract(ctx context.Context, image []byte) extraction.Result
}

// WaitEstimator reports how long a remote call issued now would wait before
// dispatch.
type WaitEstimator interface {
	EstimateWait() time.Duration
}

// Store is the persistence the pipeline needs.
type Store interface {
	OpenSession(ctx context.Context, actor string) (*store.Session, error)
	GetOrder(ctx context.Context, actor string) ([]string, error)
	InsertItem(ctx context.Context, item *store.Item) (*store.Item, error)
	LatestItem(ctx context.Context, sessionID int64) (*store.Item, error)
	ListItems(ctx context.Context, sessionID int64) ([]*store.Item, error)
	UpdateItem(ctx context.Context, item *store.Item) error
	DeleteItem(ctx context.Context, id int64) error
}

// Request is one image to process.
type Request struct {
	Actor string
	Image []byte
	// ImageRef is the opaque handle persisted with the item.
	ImageRef string
}

// OutcomeKind classifies a processed image.
type OutcomeKind string

const (
	// OutcomeDetected means both fields were extracted and, when an order list
	// exists, the identity matched a position.
	OutcomeDetected OutcomeKind = "detected"
	// OutcomeUnmatched means both fields were extracted but the identity did
	// not clear the match threshold.
	OutcomeUnmatched OutcomeKind = "unmatched"
	// OutcomeNeedsCorrection means identity or followers are missing.
	OutcomeNeedsCorrection OutcomeKind = "needs_correction"
	// OutcomeManualRequested is returned in manual mode.
	OutcomeManualRequested OutcomeKind = "manual_requested"
	// OutcomeQueuedTooLong means the remote wait reached the ceiling and the
	// item was stored as a stub.
	OutcomeQueuedTooLong OutcomeKind = "queued_too_long"
)

// NeedsCorrection reports whether the user has to supply a correction.
func (k OutcomeKind) NeedsCorrection() bool {
	switch k {
	case OutcomeNeedsCorrection, OutcomeManualRequested, OutcomeQueuedTooLong:
		return true
	default:
		return false
	}
}

// Outcome describes what happened to one image.
type Outcome struct {
	Kind         OutcomeKind
	Item         *store.Item
	Match        matching.Result
	Decision     escalation.Decision
	Gate         escalation.Gate
	RemoteCalled bool
	// Failure is the short failure label stored with the item.
	Failure string
	// Message is the user-facing feedback line.
	Message string
}

// NoticeKind classifies messages surfaced while an image is still in flight.
type NoticeKind string

const (
	// NoticeQueued is sent before waiting on a remote call whose estimated
	// wait reached the advisory threshold.
	NoticeQueued NoticeKind = "queued"
	// NoticeQueuedTooLong is sent when the remote call is skipped.
	NoticeQueuedTooLong NoticeKind = "queued_too_long"
	// NoticeRemoteUnavailable is sent when the mode wanted a remote call but
	// no credential is configured.
	NoticeRemoteUnavailable NoticeKind = "remote_unavailable"
)

// Notice is an in-flight message for the user.
type Notice struct {
	Kind     NoticeKind
	Actor    string
	ImageRef string
	Wait     time.Duration
	Message  string
}

// Observer receives notices. Implementations must be safe for concurrent use.
type Observer interface {
	Notice(ctx context.Context, notice Notice)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, notice Notice)

// Notice calls f.
func (f ObserverFunc) Notice(ctx context.Context, notice Notice) {
	f(ctx, notice)
}

type nopObserver struct{}

func (nopObserver) Notice(context.Context, Notice) {}
