// Package watcher moves fully-written drop directory files into staging and
// enqueues them. A file counts as fully written once its size and mtime hold
// still across consecutive probes; transient suffixes and hidden files are
// ignored entirely.
package watcher
