package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateWatcher(); err != nil {
		return err
	}
	if err := c.validateTriage(); err != nil {
		return err
	}
	if err := c.validateStructuring(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	required := map[string]string{
		"paths.inbox_dir":   c.Paths.InboxDir,
		"paths.staging_dir": c.Paths.StagingDir,
		"paths.holding_dir": c.Paths.HoldingDir,
		"paths.archive_dir": c.Paths.ArchiveDir,
		"paths.data_dir":    c.Paths.DataDir,
	}
	for key, value := range required {
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	// The watcher relocates out of the inbox; sharing a directory with the
	// staging queue would let it claim files it just staged.
	if c.Paths.InboxDir == c.Paths.StagingDir {
		return errors.New("paths.inbox_dir and paths.staging_dir must differ")
	}
	return nil
}

func (c *Config) validateWatcher() error {
	if err := ensurePositiveMap(map[string]int{
		"watcher.rescan_interval":             c.Watcher.RescanInterval,
		"watcher.stability_checks":            c.Watcher.StabilityChecks,
		"watcher.stability_probe_interval_ms": c.Watcher.StabilityProbeInterval,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTriage() error {
	return ensurePositiveMap(map[string]int{
		"triage.sweep_interval":       c.Triage.SweepInterval,
		"triage.error_retry_interval": c.Triage.ErrorRetryInterval,
		"triage.max_attempts":         c.Triage.MaxAttempts,
	})
}

func (c *Config) validateStructuring() error {
	if c.Structuring.ReviewThreshold < 0 || c.Structuring.ReviewThreshold > 1 {
		return errors.New("structuring.review_threshold must be between 0 and 1")
	}
	if !c.Structuring.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Structuring.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/docket/config.toml"
		}
		return fmt.Errorf("structuring.api_key is required when structuring.enabled is true. Edit %s (create with 'docket config init')", defaultPath)
	}
	if strings.TrimSpace(c.Structuring.BaseURL) == "" {
		return errors.New("structuring.base_url must be set when structuring.enabled is true")
	}
	if strings.TrimSpace(c.Structuring.Model) == "" {
		return errors.New("structuring.model must be set when structuring.enabled is true")
	}
	if c.Structuring.TimeoutSeconds <= 0 {
		return errors.New("structuring.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateOCR() error {
	if strings.TrimSpace(c.OCR.Binary) == "" {
		return errors.New("ocr.binary must be set")
	}
	if c.OCR.TimeoutSeconds <= 0 {
		return errors.New("ocr.timeout_seconds must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
