// Package config loads, validates, and normalizes docket configuration.
//
// Configuration is TOML with defaults for every field, so a missing config
// file yields a runnable (structuring-disabled) setup. Paths are expanded
// and made absolute at load time; directories are created by
// EnsureDirectories rather than lazily by consumers.
package config
