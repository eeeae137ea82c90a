package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// StartSession opens a new session for actor. Any session the actor still has
// open is closed first.
func (s *Store) StartSession(ctx context.Context, actor, dateStr string) (*Session, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, errors.New("actor is required")
	}
	if strings.TrimSpace(dateStr) == "" {
		return nil, errors.New("report date is required")
	}

	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		now := s.timestamp()
		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET status = ?, closed_at = ? WHERE actor = ? AND status = ?`,
			SessionClosed, now, actor, SessionOpen,
		); err != nil {
			return fmt.Errorf("close previous session: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO sessions (actor, date_str, status, created_at) VALUES (?, ?, ?, ?)`,
			actor, dateStr, SessionOpen, now,
		)
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier. A missing session yields nil, nil.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// OpenSession returns the actor's open session or ErrNoOpenSession.
func (s *Store) OpenSession(ctx context.Context, actor string) (*Session, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+sessionColumns+` FROM sessions WHERE actor = ? AND status = ? ORDER BY id DESC LIMIT 1`,
		actor, SessionOpen,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoOpenSession
	}
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return session, nil
}

// EndSession marks the actor's open session closed.
func (s *Store) EndSession(ctx context.Context, actor string) (*Session, error) {
	return s.finishSession(ctx, actor, SessionClosed)
}

// CancelSession marks the actor's open session cancelled. Items are kept.
func (s *Store) CancelSession(ctx context.Context, actor string) (*Session, error) {
	return s.finishSession(ctx, actor, SessionCancelled)
}

func (s *Store) finishSession(ctx context.Context, actor string, status SessionStatus) (*Session, error) {
	session, err := s.OpenSession(ctx, actor)
	if err != nil {
		return nil, err
	}
	if _, err := s.execWithRetry(ctx,
		`UPDATE sessions SET status = ?, closed_at = ? WHERE id = ? AND status = ?`,
		status, s.timestamp(), session.ID, SessionOpen,
	); err != nil {
		return nil, fmt.Errorf("update session status: %w", err)
	}
	return s.GetSession(ctx, session.ID)
}
