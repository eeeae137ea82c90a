package store

import "time"

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
	SessionCancelled SessionStatus = "cancelled"
)

// Session groups the screenshots of one report date.
type Session struct {
	ID    int64
	Actor string
	// DateStr is the report date as DD/MM/YYYY.
	DateStr   string
	Status    SessionStatus
	CreatedAt time.Time
	ClosedAt  *time.Time
}

// Item is one processed image.
type Item struct {
	ID        int64
	SessionID int64
	// OrderIndex is the 1-based position in the actor's order list; 0 means
	// unmatched.
	OrderIndex         int
	Identity           string
	FollowersRaw       string
	FollowersCanonical string
	Confidence         float64
	Corrected          bool
	ImageRef           string
	Source             string
	Outcome            string
	Failure            string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Matched reports whether the item was assigned an order position.
func (i *Item) Matched() bool {
	return i != nil && i.OrderIndex > 0
}

// Followers returns the canonical count, falling back to the raw token.
func (i *Item) Followers() string {
	if i == nil {
		return ""
	}
	if i.FollowersCanonical != "" {
		return i.FollowersCanonical
	}
	return i.FollowersRaw
}
