package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"igreport/internal/config"
)

func TestLoadDefaultConfigUsesEnvKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OCR_MODE", "")
	t.Setenv("IGREPORT_ACTOR", "")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "igreport")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Remote.APIKey != "sk-test" {
		t.Fatalf("expected api key from env, got %q", cfg.Remote.APIKey)
	}
	if !cfg.HasRemoteCredential() {
		t.Fatal("expected remote credential to be reported")
	}
	if cfg.Extraction.Mode != "hybrid" {
		t.Fatalf("expected hybrid default mode, got %q", cfg.Extraction.Mode)
	}
	if cfg.Matching.Threshold != 75 {
		t.Fatalf("expected default threshold 75, got %d", cfg.Matching.Threshold)
	}
	if cfg.MaxStartWait().Seconds() != 300 {
		t.Fatalf("unexpected max start wait %s", cfg.MaxStartWait())
	}
	if cfg.CLI.DefaultActor != "local" {
		t.Fatalf("unexpected default actor %q", cfg.CLI.DefaultActor)
	}
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OCR_MODE", "")
	t.Setenv("IGREPORT_ACTOR", "")
	dir := t.TempDir()
	path := filepath.Join(dir, "igreport.toml")

	payload := map[string]any{
		"paths": map[string]any{
			"data_dir": filepath.Join(dir, "data"),
		},
		"extraction": map[string]any{
			"mode": "LOCAL",
		},
		"queue": map[string]any{
			"notify_threshold_seconds": 10,
			"max_start_wait_seconds":   120,
		},
		"cli": map[string]any{
			"default_actor": "sakura",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal toml: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %s to exist, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Extraction.Mode != "local" {
		t.Fatalf("expected mode to be lowercased, got %q", cfg.Extraction.Mode)
	}
	if cfg.Queue.MaxStartWaitSeconds != 120 {
		t.Fatalf("unexpected ceiling %d", cfg.Queue.MaxStartWaitSeconds)
	}
	if cfg.CLI.DefaultActor != "sakura" {
		t.Fatalf("unexpected actor %q", cfg.CLI.DefaultActor)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "igreport.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.HasRemoteCredential() {
		t.Fatal("expected no remote credential")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown mode", func(c *config.Config) { c.Extraction.Mode = "cloud" }, "extraction.mode"},
		{"negative rpm", func(c *config.Config) { c.Remote.MaxRequestsPerMinute = -1 }, "remote.max_requests_per_minute"},
		{"zero ceiling", func(c *config.Config) { c.Queue.MaxStartWaitSeconds = 0 }, "queue.max_start_wait_seconds"},
		{"notify above ceiling", func(c *config.Config) { c.Queue.NotifyThresholdSeconds = 400 }, "notify_threshold_seconds"},
		{"threshold range", func(c *config.Config) { c.Matching.Threshold = 101 }, "matching.threshold"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OCR_MODE", "")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}
