package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParseOrder splits pasted order text into names. Names may be separated by
// newlines or commas; they are lowercased and lose one leading "@". Blank
// entries are dropped.
func ParseOrder(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(field)), "@")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// SetOrder replaces the actor's order list.
func (s *Store) SetOrder(ctx context.Context, actor string, names []string) error {
	if strings.TrimSpace(actor) == "" {
		return errors.New("actor is required")
	}
	if len(names) == 0 {
		return errors.New("order list is empty")
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO orders (actor, names_json, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(actor) DO UPDATE SET names_json = excluded.names_json, updated_at = excluded.updated_at`,
		actor, string(payload), s.timestamp(),
	); err != nil {
		return fmt.Errorf("upsert order: %w", err)
	}
	return nil
}

// GetOrder returns the actor's current order list. An actor without one gets
// an empty slice.
func (s *Store) GetOrder(ctx context.Context, actor string) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ensureContext(ctx), `SELECT names_json FROM orders WHERE actor = ?`, actor).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}
