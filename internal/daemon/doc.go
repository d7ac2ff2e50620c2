// Package daemon owns the lifetime of the background services: the drop
// directory watcher and the triage processor. A flock-guarded lock file
// keeps a second daemon from running against the same data directory.
package daemon
