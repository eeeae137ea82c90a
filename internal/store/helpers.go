package store

import (
	"database/sql"
	"errors"
	"time"
)

const sessionColumns = "id, actor, date_str, status, created_at, closed_at"

const itemColumns = "id, session_id, order_index, identity, followers_raw, followers_canonical, confidence, corrected, image_ref, source, outcome, failure, created_at, updated_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanSession(scanner rowScanner) (*Session, error) {
	var (
		id         int64
		actor      string
		dateStr    string
		status     string
		createdRaw sql.NullString
		closedRaw  sql.NullString
	)
	if err := scanner.Scan(&id, &actor, &dateStr, &status, &createdRaw, &closedRaw); err != nil {
		return nil, err
	}
	session := &Session{
		ID:      id,
		Actor:   actor,
		DateStr: dateStr,
		Status:  SessionStatus(status),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		session.CreatedAt = created
	}
	if closedRaw.Valid {
		if closed, err := parseTimeString(closedRaw.String); err == nil {
			session.ClosedAt = &closed
		}
	}
	return session, nil
}

func scanItem(scanner rowScanner) (*Item, error) {
	var (
		id                 int64
		sessionID          int64
		orderIndex         sql.NullInt64
		identity           sql.NullString
		followersRaw       sql.NullString
		followersCanonical sql.NullString
		confidence         sql.NullFloat64
		corrected          sql.NullInt64
		imageRef           string
		source             sql.NullString
		outcome            sql.NullString
		failure            sql.NullString
		createdRaw         sql.NullString
		updatedRaw         sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sessionID,
		&orderIndex,
		&identity,
		&followersRaw,
		&followersCanonical,
		&confidence,
		&corrected,
		&imageRef,
		&source,
		&outcome,
		&failure,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:                 id,
		SessionID:          sessionID,
		OrderIndex:         int(orderIndex.Int64),
		Identity:           identity.String,
		FollowersRaw:       followersRaw.String,
		FollowersCanonical: followersCanonical.String,
		Confidence:         confidence.Float64,
		Corrected:          corrected.Valid && corrected.Int64 != 0,
		ImageRef:           imageRef,
		Source:             source.String,
		Outcome:            outcome.String,
		Failure:            failure.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableIndex(value int) any {
	if value <= 0 {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
