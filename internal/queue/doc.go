// Package queue persists staged documents and their lifecycle in SQLite.
//
// Each drop-directory file the watcher stages becomes one queue item. Items
// move forward only (detected, staged, processing, succeeded, failed) and the
// item_history table keeps an append-only record of every stage transition, so
// the processing past of an item is never rewritten.
package queue
