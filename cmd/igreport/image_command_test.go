package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"igreport/internal/imagestore"
	"igreport/internal/logging"
	"igreport/internal/store"
	"igreport/internal/testsupport"
)

func TestImageCommandWritesArchivedScreenshot(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "session", "start")

	first := env.screenshot(t, "first.png")
	env.mustRun(t, "ingest", "--jobs", "1", first, env.screenshot(t, "second.png"))

	want, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	out := env.mustRun(t, "image", "1")
	if !bytes.Equal([]byte(out), want) {
		t.Fatalf("image 1 returned %d bytes, want %d", len(out), len(want))
	}

	path := strings.TrimSpace(env.mustRun(t, "image", "--path"))
	if !strings.HasPrefix(path, env.cfg.Paths.ImageDir) {
		t.Fatalf("expected latest image under %s, got %q", env.cfg.Paths.ImageDir, path)
	}

	if _, _, err := env.run(t, "image", "99"); err == nil {
		t.Fatal("expected unknown item to fail")
	}
	if _, _, err := env.run(t, "image", "abc"); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}

func TestUndoRemovesArchivedImage(t *testing.T) {
	env := setupCLITestEnv(t)
	env.mustRun(t, "session", "start")
	env.mustRun(t, "ingest", env.screenshot(t, "shot.png"))

	path := strings.TrimSpace(env.mustRun(t, "image", "--path"))
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("archived image missing before undo: %v", err)
	}

	out := env.mustRun(t, "review")
	requireContains(t, out, "Images to check:")
	requireContains(t, out, path)

	env.mustRun(t, "undo")
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected undo to remove %s, got %v", path, err)
	}
}

type failingInsertStore struct {
	*store.Store
}

func (failingInsertStore) InsertItem(context.Context, *store.Item) (*store.Item, error) {
	return nil, errors.New("disk full")
}

func TestIngestOneRemovesArchiveWhenStoreFails(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMode("manual"))
	st := testsupport.MustOpenStore(t, cfg)
	testsupport.StartSession(t, st, "sakura")

	parts, err := buildPipeline(cfg, failingInsertStore{st}, logging.NewNop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	images, err := imagestore.New(cfg.Paths.ImageDir)
	if err != nil {
		t.Fatal(err)
	}
	shot := testsupport.WriteImage(t, t.TempDir(), "shot.png")

	res := ingestOne(context.Background(), parts.pipeline, images, "sakura", shot, logging.NewNop())
	if res.err == nil || !strings.Contains(res.err.Error(), "disk full") {
		t.Fatalf("expected store failure, got %v", res.err)
	}
	entries, err := os.ReadDir(images.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no archived images after failure, found %d", len(entries))
	}
}
