package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeExtraction()
	c.normalizeRemote()
	c.normalizeNotifications()
	c.normalizeLogging()
	c.normalizeCLI()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImageDir) == "" {
		c.Paths.ImageDir = defaultImageDir
	}
	if c.Paths.ImageDir, err = expandPath(c.Paths.ImageDir); err != nil {
		return fmt.Errorf("paths.image_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeExtraction() {
	mode := strings.ToLower(strings.TrimSpace(c.Extraction.Mode))
	if value, ok := os.LookupEnv("OCR_MODE"); ok && strings.TrimSpace(value) != "" {
		mode = strings.ToLower(strings.TrimSpace(value))
	}
	if mode == "" {
		mode = defaultExtractionMode
	}
	c.Extraction.Mode = mode
	c.Extraction.TesseractLanguage = strings.TrimSpace(c.Extraction.TesseractLanguage)
	if c.Extraction.TesseractLanguage == "" {
		c.Extraction.TesseractLanguage = defaultTesseractLanguage
	}
	if c.Extraction.TesseractPSM <= 0 {
		c.Extraction.TesseractPSM = defaultTesseractPSM
	}
}

func (c *Config) normalizeRemote() {
	c.Remote.APIKey = strings.TrimSpace(c.Remote.APIKey)
	if c.Remote.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Remote.APIKey = strings.TrimSpace(value)
		}
	}
	c.Remote.BaseURL = strings.TrimSpace(c.Remote.BaseURL)
	if c.Remote.BaseURL == "" {
		c.Remote.BaseURL = defaultRemoteBaseURL
	}
	c.Remote.Model = strings.TrimSpace(c.Remote.Model)
	if value, ok := os.LookupEnv("OPENAI_MODEL"); ok && strings.TrimSpace(value) != "" && c.Remote.Model == "" {
		c.Remote.Model = strings.TrimSpace(value)
	}
	if c.Remote.Model == "" {
		c.Remote.Model = defaultRemoteModel
	}
	if c.Remote.MaxAttempts <= 0 {
		c.Remote.MaxAttempts = defaultRemoteMaxAttempts
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeCLI() {
	c.CLI.DefaultActor = strings.TrimSpace(c.CLI.DefaultActor)
	if value, ok := os.LookupEnv("IGREPORT_ACTOR"); ok && strings.TrimSpace(value) != "" {
		c.CLI.DefaultActor = strings.TrimSpace(value)
	}
	if c.CLI.DefaultActor == "" {
		c.CLI.DefaultActor = defaultActor
	}
	if c.CLI.Jobs <= 0 {
		c.CLI.Jobs = defaultJobs
	}
}
