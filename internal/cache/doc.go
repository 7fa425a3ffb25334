// Package cache provides the durable local cache for the Nightbell
// cloud client.
//
// The cache is a single JSON file holding the session identity
// (app/client ids, login token, access token) plus the partial device
// sub-trees fetched so far. It lets the client resume across restarts
// without re-discovering devices or re-downloading unchanged media.
//
// # Merge semantics
//
// All updates flow through Merge: maps are merged key-wise and
// recursively, everything else (including lists) is replaced
// wholesale. Loading merges the stored file into a freshly generated
// template, so fields introduced by newer versions are backfilled
// into old cache files without discarding existing values.
//
// # Durability
//
// Save writes to a temporary file in the cache directory and renames
// it over the target, so a crash mid-write leaves either the old or
// the new file, never a truncated one. A zero-length file (from a
// pre-rename crash of an older version) is deleted and replaced with
// a fresh record on load.
package cache
