// Package syncstate persists incremental-sync bookkeeping for stanza
// directories in SQLite: the set of files each destination tracked after its
// last extraction, which becomes the prior snapshot of the next one, and a
// history of extract and combine runs.
//
// The schema is managed by embedded, ordered SQL migrations. Writes retry
// briefly when SQLite reports the database as busy so a watch process and a
// one-off CLI invocation can share the index.
package syncstate
