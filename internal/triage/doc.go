// Package triage drains the staging queue on a fixed cadence. Each sweep
// reconciles the staging directory against the queue, then runs staged items
// through extraction, structuring, and filing. Successful items end up in the
// archive with their staging copy removed; failed items are routed to the
// holding folder and stay there until an operator retries them.
package triage
