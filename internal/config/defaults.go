package config

const (
	defaultInboxDir   = "~/docket/inbox"
	defaultStagingDir = "~/.local/share/docket/staging"
	defaultHoldingDir = "~/docket/holding"
	defaultArchiveDir = "~/docket/archive"
	defaultReportDir  = "~/docket/reports"
	defaultDataDir    = "~/.local/share/docket"

	defaultWatcherRescanInterval    = 10
	defaultWatcherStabilityChecks   = 3
	defaultWatcherStabilityProbeMS  = 500
	defaultTriageSweepInterval      = 15
	defaultTriageErrorRetryInterval = 10
	defaultTriageMaxAttempts        = 3

	defaultStructuringBaseURL  = "https://api.openai.com/v1/chat/completions"
	defaultStructuringModel    = "gpt-4o-mini"
	defaultStructuringTimeout  = 60
	defaultReviewThreshold     = 0.70
	defaultOCRBinary           = "tesseract"
	defaultOCRTimeoutSeconds   = 120

	defaultNtfyRequestTimeout = 10

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

func defaultIgnoreSuffixes() []string {
	return []string{".tmp", ".part", ".partial", ".crdownload", ".swp", "~"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   defaultInboxDir,
			StagingDir: defaultStagingDir,
			HoldingDir: defaultHoldingDir,
			ArchiveDir: defaultArchiveDir,
			ReportDir:  defaultReportDir,
			DataDir:    defaultDataDir,
		},
		Watcher: Watcher{
			RescanInterval:         defaultWatcherRescanInterval,
			StabilityChecks:        defaultWatcherStabilityChecks,
			StabilityProbeInterval: defaultWatcherStabilityProbeMS,
			IgnoreSuffixes:         defaultIgnoreSuffixes(),
		},
		Triage: Triage{
			SweepInterval:      defaultTriageSweepInterval,
			ErrorRetryInterval: defaultTriageErrorRetryInterval,
			MaxAttempts:        defaultTriageMaxAttempts,
		},
		Structuring: Structuring{
			BaseURL:         defaultStructuringBaseURL,
			Model:           defaultStructuringModel,
			TimeoutSeconds:  defaultStructuringTimeout,
			ReviewThreshold: defaultReviewThreshold,
		},
		OCR: OCR{
			Binary:         defaultOCRBinary,
			Languages:      []string{"eng"},
			TimeoutSeconds: defaultOCRTimeoutSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
