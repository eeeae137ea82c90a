package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"igreport/internal/config"
	"igreport/internal/logging"
	"igreport/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello file")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "igreport.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello file") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.NewComponentLogger(logger, "ingest").Info("message without caller", logging.Int("jobs", 2))

	line := buf.String()
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", line)
	}
	if !strings.Contains(line, "INFO ingest: message without caller jobs=2") {
		t.Fatalf("unexpected console layout %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestConsoleQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := logging.New(logging.Options{Format: "console", Writer: &buf})
	logger.Info("quoted", logging.String("reason", "two words"))
	if !strings.Contains(buf.String(), `reason="two words"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestNewJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("json message", logging.String("k", "v"))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if payload["msg"] != "json message" || payload["k"] != "v" || payload["level"] != "info" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithActor(ctx, "sakura")
	ctx = services.WithSessionID(ctx, 9)
	ctx = services.WithItemID(ctx, 123)
	ctx = services.WithStage(ctx, "remote")
	ctx = services.WithRequestID(ctx, "req-xyz")

	var buf bytes.Buffer
	logger, _ := logging.New(logging.Options{Format: "console", Writer: &buf})
	logging.WithContext(ctx, logger).Info("contextual log")

	line := buf.String()
	for _, fragment := range []string{"actor=sakura", "session_id=9", "item_id=123", "stage=remote", "correlation_id=req-xyz"} {
		if !strings.Contains(line, fragment) {
			t.Fatalf("expected %q in %q", fragment, line)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := logging.New(logging.Options{Format: "console", Writer: &buf})
	logging.WarnWithContext(logger, "remote skipped", "remote_skipped", logging.String(logging.FieldErrorHint, "set OPENAI_API_KEY"))

	line := buf.String()
	if !strings.Contains(line, "event_type=remote_skipped") {
		t.Fatalf("expected event type, got %q", line)
	}
	if !strings.Contains(line, `error_hint="set OPENAI_API_KEY"`) {
		t.Fatalf("expected caller hint preserved, got %q", line)
	}
	if !strings.Contains(line, "impact=") {
		t.Fatalf("expected default impact, got %q", line)
	}
}
