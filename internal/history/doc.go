// Package history persists fetched device activities to SQLite.
//
// The cloud only retains a short window of activities per device;
// recording every fetched batch locally gives the client a durable,
// queryable log that outlives the upstream retention. Activities are
// keyed by their cloud id, so the repeated fetches of a poll loop
// deduplicate naturally.
package history
