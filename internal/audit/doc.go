// Package audit keeps the append-only processing trail. Every lifecycle
// transition a document goes through writes one row here; the trail answers
// "what happened to this file and when" without consulting daemon logs.
package audit
