package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"igreport/internal/store"
	"igreport/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if st.Path() != filepath.Join(cfg.Paths.DataDir, "igreport.db") {
		t.Fatalf("unexpected path %q", st.Path())
	}
	if _, err := st.StartSession(context.Background(), "sakura", "08/08/2025"); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	session, err := reopened.OpenSession(context.Background(), "sakura")
	if err != nil {
		t.Fatalf("expected session to survive reopen: %v", err)
	}
	if session.DateStr != "08/08/2025" {
		t.Fatalf("unexpected date %q", session.DateStr)
	}
}

func TestSessionLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := st.OpenSession(ctx, "sakura"); !errors.Is(err, store.ErrNoOpenSession) {
		t.Fatalf("expected ErrNoOpenSession, got %v", err)
	}

	first := testsupport.StartSession(t, st, "sakura")
	if first.Status != store.SessionOpen || first.CreatedAt.IsZero() {
		t.Fatalf("unexpected session %+v", first)
	}

	second, err := st.StartSession(ctx, "sakura", "09/08/2025")
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}
	prior, err := st.GetSession(ctx, first.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if prior.Status != store.SessionClosed || prior.ClosedAt == nil {
		t.Fatalf("expected previous session closed, got %+v", prior)
	}

	open, err := st.OpenSession(ctx, "sakura")
	if err != nil || open.ID != second.ID {
		t.Fatalf("expected second session open, got %+v (%v)", open, err)
	}

	other := testsupport.StartSession(t, st, "other")
	if other.ID == second.ID {
		t.Fatal("expected distinct sessions per actor")
	}

	cancelled, err := st.CancelSession(ctx, "sakura")
	if err != nil {
		t.Fatalf("CancelSession failed: %v", err)
	}
	if cancelled.Status != store.SessionCancelled {
		t.Fatalf("expected cancelled status, got %s", cancelled.Status)
	}
	if _, err := st.EndSession(ctx, "sakura"); !errors.Is(err, store.ErrNoOpenSession) {
		t.Fatalf("expected no open session after cancel, got %v", err)
	}

	ended, err := st.EndSession(ctx, "other")
	if err != nil || ended.Status != store.SessionClosed {
		t.Fatalf("expected other session closed, got %+v (%v)", ended, err)
	}
}

func TestStartSessionValidates(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	if _, err := st.StartSession(context.Background(), " ", "08/08/2025"); err == nil {
		t.Fatal("expected error for empty actor")
	}
	if _, err := st.StartSession(context.Background(), "sakura", ""); err == nil {
		t.Fatal("expected error for empty date")
	}
}

func TestOrderRoundTrip(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	names, err := st.GetOrder(ctx, "sakura")
	if err != nil || len(names) != 0 {
		t.Fatalf("expected empty order, got %v (%v)", names, err)
	}

	testsupport.SetOrder(t, st, "sakura", "sakura9neko", "otheruser")
	testsupport.SetOrder(t, st, "sakura", "otheruser", "third")

	names, err = st.GetOrder(ctx, "sakura")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"otheruser", "third"}) {
		t.Fatalf("expected replaced order, got %v", names)
	}

	if err := st.SetOrder(ctx, "sakura", nil); err == nil {
		t.Fatal("expected error for empty order")
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"@Sakura9Neko\notherUser\n\n", []string{"sakura9neko", "otheruser"}},
		{"a, @B ,c", []string{"a", "b", "c"}},
		{"one\r\ntwo", []string{"one", "two"}},
		{"  ", []string{}},
	}
	for _, tt := range tests {
		if got := store.ParseOrder(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("ParseOrder(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestItemLifecycle(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	session := testsupport.StartSession(t, st, "sakura")

	stub, err := st.InsertItem(ctx, &store.Item{SessionID: session.ID, ImageRef: "img-1", Outcome: "queued_too_long"})
	if err != nil {
		t.Fatalf("InsertItem stub failed: %v", err)
	}
	if stub.Identity != "" || stub.FollowersCanonical != "" || stub.Confidence != 0 || stub.Matched() {
		t.Fatalf("expected empty stub, got %+v", stub)
	}
	if stub.ImageRef != "img-1" || stub.CreatedAt.IsZero() {
		t.Fatalf("expected image ref and timestamp, got %+v", stub)
	}

	item, err := st.InsertItem(ctx, &store.Item{
		SessionID:          session.ID,
		OrderIndex:         1,
		Identity:           "sakura9neko",
		FollowersRaw:       "80.2k",
		FollowersCanonical: "80,200",
		Confidence:         0.85,
		ImageRef:           "img-2",
		Source:             "local",
		Outcome:            "detected",
	})
	if err != nil {
		t.Fatalf("InsertItem failed: %v", err)
	}

	latest, err := st.LatestItem(ctx, session.ID)
	if err != nil || latest.ID != item.ID {
		t.Fatalf("expected latest item %d, got %+v (%v)", item.ID, latest, err)
	}
	if latest.OrderIndex != 1 || latest.Followers() != "80,200" {
		t.Fatalf("unexpected latest %+v", latest)
	}

	latest.FollowersRaw = "1,2k"
	latest.FollowersCanonical = "1,200"
	latest.Corrected = true
	if err := st.UpdateItem(ctx, latest); err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	updated, err := st.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if !updated.Corrected || updated.FollowersCanonical != "1,200" || updated.Identity != "sakura9neko" {
		t.Fatalf("unexpected updated item %+v", updated)
	}

	items, err := st.ListItems(ctx, session.ID)
	if err != nil || len(items) != 2 {
		t.Fatalf("expected two items, got %d (%v)", len(items), err)
	}
	if items[0].ID != stub.ID || items[1].ID != item.ID {
		t.Fatal("expected insertion order")
	}

	if err := st.DeleteItem(ctx, item.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if err := st.DeleteItem(ctx, item.ID); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
	latest, err = st.LatestItem(ctx, session.ID)
	if err != nil || latest.ID != stub.ID {
		t.Fatalf("expected stub to be latest after delete, got %+v (%v)", latest, err)
	}

	missing, err := st.GetItem(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing item, got %+v (%v)", missing, err)
	}
	if err := st.UpdateItem(ctx, &store.Item{ID: 9999}); !errors.Is(err, store.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound on update, got %v", err)
	}
}

func TestInsertItemValidates(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if _, err := st.InsertItem(ctx, nil); err == nil {
		t.Fatal("expected error for nil item")
	}
	if _, err := st.InsertItem(ctx, &store.Item{ImageRef: "x"}); err == nil {
		t.Fatal("expected error for missing session")
	}
	session := testsupport.StartSession(t, st, "sakura")
	if _, err := st.InsertItem(ctx, &store.Item{SessionID: session.ID}); err == nil {
		t.Fatal("expected error for missing image ref")
	}
}

func TestLatestItemEmptySession(t *testing.T) {
	st := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	session := testsupport.StartSession(t, st, "sakura")
	item, err := st.LatestItem(context.Background(), session.ID)
	if err != nil || item != nil {
		t.Fatalf("expected nil, got %+v (%v)", item, err)
	}
}
