// Package catalog persists the durable register of archived documents,
// keyed by a SHA256 content key. The upsert keyed on content makes filing
// idempotent: processing the same bytes twice refreshes one entry instead of
// duplicating it.
package catalog
