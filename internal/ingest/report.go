package ingest

import (
	"context"
	"fmt"

	"igreport/internal/caption"
	"igreport/internal/store"
)

// Position is one entry of the actor's order list and the item captured for
// it, if any. When several items map to the same position the latest wins.
type Position struct {
	Index int
	Name  string
	Item  *store.Item
}

// Captured reports whether an item was matched to the position.
func (p Position) Captured() bool {
	return p.Item != nil
}

// Report is the per-position view of an open session.
type Report struct {
	Session   *store.Session
	Order     []string
	Positions []Position
	// Missing lists order names with no captured item.
	Missing []string
	// Pending lists items without a position, in insertion order.
	Pending []*store.Item
	Items   int
}

// BuildReport assembles the report for the actor's open session.
func BuildReport(ctx context.Context, st Store, actor string) (*Report, error) {
	session, err := st.OpenSession(ctx, actor)
	if err != nil {
		return nil, err
	}
	order, err := st.GetOrder(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	items, err := st.ListItems(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int]*store.Item, len(items))
	report := &Report{Session: session, Order: order, Items: len(items)}
	for _, item := range items {
		if item.OrderIndex > 0 && item.OrderIndex <= len(order) {
			byIndex[item.OrderIndex] = item
			continue
		}
		report.Pending = append(report.Pending, item)
	}
	for i, name := range order {
		pos := Position{Index: i + 1, Name: name, Item: byIndex[i+1]}
		if !pos.Captured() {
			report.Missing = append(report.Missing, name)
		}
		report.Positions = append(report.Positions, pos)
	}
	return report, nil
}

// Caption returns the full caption for a captured position, or "" when the
// position is missing.
func (r *Report) Caption(pos Position) string {
	if r == nil || !pos.Captured() {
		return ""
	}
	identity := pos.Item.Identity
	if identity == "" {
		identity = pos.Name
	}
	return caption.Format(r.Session.DateStr, identity, pos.Index, pos.Item.Followers())
}

// Preview returns the first caption line for a captured position.
func (r *Report) Preview(pos Position) string {
	if r == nil || !pos.Captured() {
		return ""
	}
	identity := pos.Item.Identity
	if identity == "" {
		identity = pos.Name
	}
	return caption.Headline(r.Session.DateStr, identity, pos.Index, pos.Item.Followers())
}
