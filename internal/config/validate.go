package config

import (
	"errors"
	"fmt"
	"strings"
)

var validModes = map[string]struct{}{
	"local":  {},
	"hybrid": {},
	"remote": {},
	"openai": {},
	"manual": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateExtraction(); err != nil {
		return err
	}
	if err := c.validateRemote(); err != nil {
		return err
	}
	if err := c.validateQueue(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if _, ok := validModes[c.Extraction.Mode]; !ok {
		return fmt.Errorf("extraction.mode %q is not supported (use local, hybrid, remote, or manual)", c.Extraction.Mode)
	}
	if c.Extraction.TesseractPSM > 13 {
		return errors.New("extraction.tesseract_psm must be between 0 and 13")
	}
	return nil
}

func (c *Config) validateRemote() error {
	if err := ensureNonNegativeMap(map[string]float64{
		"remote.max_requests_per_minute":   c.Remote.MaxRequestsPerMinute,
		"remote.max_tokens_per_minute":     c.Remote.MaxTokensPerMinute,
		"remote.estimated_tokens_per_call": c.Remote.EstimatedTokensPerCall,
	}); err != nil {
		return err
	}
	if c.Remote.TimeoutSeconds < 0 {
		return errors.New("remote.timeout_seconds must not be negative")
	}
	if strings.TrimSpace(c.Remote.Model) == "" {
		return errors.New("remote.model must be set")
	}
	return nil
}

func (c *Config) validateQueue() error {
	if c.Queue.NotifyThresholdSeconds < 0 {
		return errors.New("queue.notify_threshold_seconds must not be negative")
	}
	if c.Queue.MaxStartWaitSeconds <= 0 {
		return errors.New("queue.max_start_wait_seconds must be positive")
	}
	if c.Queue.NotifyThresholdSeconds > c.Queue.MaxStartWaitSeconds {
		return errors.New("queue.notify_threshold_seconds must not exceed queue.max_start_wait_seconds")
	}
	return nil
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold < 0 || c.Matching.Threshold > 100 {
		return errors.New("matching.threshold must be between 0 and 100")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
	return nil
}

func ensureNonNegativeMap(values map[string]float64) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}
