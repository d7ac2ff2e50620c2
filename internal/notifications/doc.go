// Package notifications pushes operator alerts over ntfy. Terminal routing
// outcomes are the interesting moments: a document filed, a document held
// for manual attention, or a record flagged for review. With no topic
// configured the service is a no-op.
package notifications
