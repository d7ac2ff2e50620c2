// Package logging provides slog construction and shared attribute helpers.
//
// Two output formats are supported: a line-oriented console format for
// interactive use and JSON for ingestion elsewhere. Components receive a
// child logger tagged with a component attribute via NewComponentLogger, and
// the field constants keep attribute keys consistent across the watcher,
// triage processor, and pipeline stages.
package logging
