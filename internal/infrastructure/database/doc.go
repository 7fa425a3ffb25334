// Package database provides the SQLite connection used by the local
// activity history store.
//
// SQLite is configured for single-writer access with WAL mode and a
// busy timeout, matching how the history repository uses it: one
// process appending activity rows and occasionally pruning.
//
// The schema is small enough that the history repository applies it
// inline on startup; there is no migration framework.
package database
