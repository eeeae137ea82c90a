package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	ImageDir string `toml:"image_dir"`
}

// Extraction controls the local OCR pass and when the remote pass is used.
type Extraction struct {
	// Mode is one of local, hybrid, remote (alias openai), or manual.
	Mode              string `toml:"mode"`
	TesseractLanguage string `toml:"tesseract_language"`
	TesseractPSM      int    `toml:"tesseract_psm"`
}

// Remote contains the vision model connection and its rate budget.
type Remote struct {
	APIKey                 string  `toml:"api_key"`
	BaseURL                string  `toml:"base_url"`
	Model                  string  `toml:"model"`
	TimeoutSeconds         int     `toml:"timeout_seconds"`
	MaxRequestsPerMinute   float64 `toml:"max_requests_per_minute"`
	MaxTokensPerMinute     float64 `toml:"max_tokens_per_minute"`
	EstimatedTokensPerCall float64 `toml:"estimated_tokens_per_call"`
	MaxAttempts            int     `toml:"max_attempts"`
}

// Queue contains the thresholds applied to the estimated remote wait.
type Queue struct {
	NotifyThresholdSeconds int `toml:"notify_threshold_seconds"`
	MaxStartWaitSeconds    int `toml:"max_start_wait_seconds"`
}

// Matching contains fuzzy-match tuning.
type Matching struct {
	Threshold int `toml:"threshold"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// CLI contains defaults for command-line invocations.
type CLI struct {
	DefaultActor string `toml:"default_actor"`
	Jobs         int    `toml:"jobs"`
}

// Config encapsulates all configuration values for igreport.
//
// Configuration sections by subsystem:
//   - Paths: database, log, and image archive directories
//   - Extraction: OCR mode and Tesseract tuning
//   - Remote: vision model credential, endpoint, and rate budget
//   - Queue: advisory and bail-out thresholds for remote waits
//   - Matching: fuzzy-match threshold against order lists
//   - Notifications: ntfy push for pipeline advisories
//   - Logging: log format and level
//   - CLI: default actor and ingestion parallelism
type Config struct {
	Paths         Paths         `toml:"paths"`
	Extraction    Extraction    `toml:"extraction"`
	Remote        Remote        `toml:"remote"`
	Queue         Queue         `toml:"queue"`
	Matching      Matching      `toml:"matching"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	CLI           CLI           `toml:"cli"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/igreport/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("igreport.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data, log, and image directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir, c.Paths.ImageDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "igreport.db")
}

// RemoteLockPath returns the lock file that keeps one process in charge of the remote budget.
func (c *Config) RemoteLockPath() string {
	return filepath.Join(c.Paths.DataDir, "remote.lock")
}

// HasRemoteCredential reports whether a remote API key is configured.
func (c *Config) HasRemoteCredential() bool {
	return strings.TrimSpace(c.Remote.APIKey) != ""
}

// NotifyThreshold returns the advisory wait threshold.
func (c *Config) NotifyThreshold() time.Duration {
	return time.Duration(c.Queue.NotifyThresholdSeconds) * time.Second
}

// MaxStartWait returns the hard ceiling above which remote calls are skipped.
func (c *Config) MaxStartWait() time.Duration {
	return time.Duration(c.Queue.MaxStartWaitSeconds) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
