// Command docket is the operator CLI: it runs the pipeline in the
// foreground and inspects the queue, the audit trail, the catalog, and the
// configuration. Queue access goes straight to the SQLite databases, so the
// CLI works whether or not the daemon is up.
package main
