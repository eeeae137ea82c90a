package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrItemNotFound is returned when an item update or delete matched no row.
var ErrItemNotFound = errors.New("item not found")

// InsertItem persists a new item and returns the stored copy.
func (s *Store) InsertItem(ctx context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, errors.New("item is nil")
	}
	if item.SessionID == 0 {
		return nil, errors.New("item session is required")
	}
	if strings.TrimSpace(item.ImageRef) == "" {
		return nil, errors.New("item image reference is required")
	}
	now := s.timestamp()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO items (
            session_id, order_index, identity, followers_raw, followers_canonical,
            confidence, corrected, image_ref, source, outcome, failure, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.SessionID,
		nullableIndex(item.OrderIndex),
		nullableString(item.Identity),
		nullableString(item.FollowersRaw),
		nullableString(item.FollowersCanonical),
		item.Confidence,
		boolToInt(item.Corrected),
		item.ImageRef,
		nullableString(item.Source),
		nullableString(item.Outcome),
		nullableString(item.Failure),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetItem(ctx, id)
}

// GetItem fetches an item by identifier. A missing item yields nil, nil.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// LatestItem returns the most recently inserted item of a session, or nil.
func (s *Store) LatestItem(ctx context.Context, sessionID int64) (*Item, error) {
	row := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM items WHERE session_id = ? ORDER BY id DESC LIMIT 1`,
		sessionID,
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest item: %w", err)
	}
	return item, nil
}

// ListItems returns a session's items in insertion order.
func (s *Store) ListItems(ctx context.Context, sessionID int64) ([]*Item, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+itemColumns+` FROM items WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// UpdateItem overwrites the mutable fields of an existing item.
func (s *Store) UpdateItem(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = s.now()
	res, err := s.execWithRetry(ctx,
		`UPDATE items
         SET order_index = ?, identity = ?, followers_raw = ?, followers_canonical = ?,
             confidence = ?, corrected = ?, source = ?, outcome = ?, failure = ?, updated_at = ?
         WHERE id = ?`,
		nullableIndex(item.OrderIndex),
		nullableString(item.Identity),
		nullableString(item.FollowersRaw),
		nullableString(item.FollowersCanonical),
		item.Confidence,
		boolToInt(item.Corrected),
		nullableString(item.Source),
		nullableString(item.Outcome),
		nullableString(item.Failure),
		item.UpdatedAt.UTC().Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update item %d: %w", item.ID, ErrItemNotFound)
	}
	return nil
}

// DeleteItem removes an item.
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete item %d: %w", id, ErrItemNotFound)
	}
	return nil
}
