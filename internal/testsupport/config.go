package testsupport

import (
	"path/filepath"
	"testing"

	"docket/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields, creates the directories, and applies any
// provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.InboxDir = filepath.Join(base, "inbox")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.HoldingDir = filepath.Join(base, "holding")
	cfg.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Watcher.StabilityChecks = 1
	cfg.Watcher.StabilityProbeInterval = 1
	cfg.Triage.SweepInterval = 1

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("create test directories: %v", err)
	}
	return &cfg
}

// WithStructuring enables the structuring service with the given endpoint.
func WithStructuring(baseURL, model string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Structuring.Enabled = true
		cfg.Structuring.APIKey = "test"
		cfg.Structuring.BaseURL = baseURL
		cfg.Structuring.Model = model
	}
}

// WithMaxAttempts overrides the triage attempt cap.
func WithMaxAttempts(n int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Triage.MaxAttempts = n
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
