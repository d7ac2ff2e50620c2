package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the directory layout the pipeline operates on.
type Paths struct {
	InboxDir   string `toml:"inbox_dir"`
	StagingDir string `toml:"staging_dir"`
	HoldingDir string `toml:"holding_dir"`
	ArchiveDir string `toml:"archive_dir"`
	ReportDir  string `toml:"report_dir"`
	DataDir    string `toml:"data_dir"`
}

// Watcher contains settings for the drop directory watcher.
type Watcher struct {
	// RescanInterval is the fallback directory poll cadence in seconds.
	// Filesystem events are used when available; the rescan covers
	// environments where event delivery is unreliable.
	RescanInterval int `toml:"rescan_interval"`
	// StabilityChecks is the number of consecutive unchanged size/mtime
	// observations required before a file counts as fully written.
	StabilityChecks int `toml:"stability_checks"`
	// StabilityProbeInterval is the delay between stability observations
	// in milliseconds.
	StabilityProbeInterval int `toml:"stability_probe_interval_ms"`
	// IgnoreSuffixes lists transient filename suffixes the producer uses
	// for files still being written.
	IgnoreSuffixes []string `toml:"ignore_suffixes"`
}

// Triage contains settings for the staging queue sweep loop.
type Triage struct {
	// SweepInterval is the fixed sweep cadence in seconds. A sweep that
	// runs long delays the next tick; sweeps never overlap.
	SweepInterval int `toml:"sweep_interval"`
	// ErrorRetryInterval is the wait after a queue access failure in seconds.
	ErrorRetryInterval int `toml:"error_retry_interval"`
	// MaxAttempts caps processing attempts per item before it is routed to
	// holding without re-entering the pipeline.
	MaxAttempts int `toml:"max_attempts"`
}

// Structuring contains settings for the external structuring service.
type Structuring struct {
	Enabled        bool    `toml:"enabled"`
	APIKey         string  `toml:"api_key"`
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	// ReviewThreshold is the classification confidence below which a
	// record is flagged for human review rather than filed as final.
	ReviewThreshold float64 `toml:"review_threshold"`
}

// OCR contains settings for scanned-content extraction.
type OCR struct {
	Binary         string   `toml:"binary"`
	Languages      []string `toml:"languages"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
}

// Notifications contains settings for operator alerts.
type Notifications struct {
	// NtfyTopic is the full ntfy topic URL. Empty disables notifications.
	NtfyTopic string `toml:"ntfy_topic"`
	// RequestTimeout bounds each notification request in seconds.
	RequestTimeout int `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for docket.
//
// Configuration sections by subsystem:
//   - Paths: inbox, staging, holding, archive, report, and data directories
//   - Watcher: drop directory observation and stability checks
//   - Triage: sweep cadence and attempt limits
//   - Structuring: external structuring service connection
//   - OCR: scanned-content extraction tool
//   - Notifications: ntfy operator alerts
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Watcher       Watcher       `toml:"watcher"`
	Triage        Triage        `toml:"triage"`
	Structuring   Structuring   `toml:"structuring"`
	OCR           OCR           `toml:"ocr"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/docket/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
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

	projectPath, err := filepath.Abs("docket.toml")
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

func (c *Config) normalize() error {
	paths := []*string{
		&c.Paths.InboxDir,
		&c.Paths.StagingDir,
		&c.Paths.HoldingDir,
		&c.Paths.ArchiveDir,
		&c.Paths.ReportDir,
		&c.Paths.DataDir,
	}
	for _, path := range paths {
		if strings.TrimSpace(*path) == "" {
			continue
		}
		expanded, err := expandPath(*path)
		if err != nil {
			return err
		}
		*path = expanded
	}
	return nil
}

// EnsureDirectories creates the directories the pipeline operates on.
// The archive directory is created on a best-effort basis so the daemon can
// start when archival storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InboxDir, c.Paths.StagingDir, c.Paths.HoldingDir, c.Paths.DataDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) != "" {
		_ = os.MkdirAll(c.Paths.ArchiveDir, 0o755)
	}
	if strings.TrimSpace(c.Paths.ReportDir) != "" {
		_ = os.MkdirAll(c.Paths.ReportDir, 0o755)
	}
	return nil
}

// WriteSample writes the embedded sample configuration to the target path.
// It refuses to overwrite an existing file.
func WriteSample(path string) error {
	expanded, err := expandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
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
