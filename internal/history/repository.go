package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nightbell/nightbell-core/internal/cloud"
)

const (
	defaultRecentLimit = 50
	maxRecentLimit     = 200
)

// schema is applied on Init. The activity id is the primary key, so
// re-recording the same activity on every poll cycle is a no-op.
const schema = `
CREATE TABLE IF NOT EXISTS activities (
	id          TEXT PRIMARY KEY,
	device_id   TEXT NOT NULL,
	event       TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	media_url   TEXT NOT NULL DEFAULT '',
	raw         TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_activities_device_created
	ON activities (device_id, created_at DESC);
`

// Entry is one recorded activity.
type Entry struct {
	ID        string
	DeviceID  string
	Kind      string
	CreatedAt time.Time
	MediaURL  string

	// Raw is the full activity payload as fetched, including fields
	// this package does not model.
	Raw cloud.Event
}

// Repository stores fetched activities in SQLite.
//
// It implements cloud.Recorder, so a Session hands it every activity
// batch fetched during device refreshes. Activities are deduplicated
// by id, making repeated polling cheap.
type Repository struct {
	db *sql.DB
}

// NewRepository creates an activity history repository.
//
// Parameters:
//   - db: Open SQLite connection used for queries
//
// Returns:
//   - *Repository: Repository instance; call Init before first use
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies the schema. Safe to call on every startup.
func (r *Repository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying history schema: %w", err)
	}
	return nil
}

// RecordActivities inserts a batch of activities for a device.
// Activities already recorded (same id) are ignored.
func (r *Repository) RecordActivities(ctx context.Context, deviceID string, events []cloud.Event) error {
	if deviceID == "" {
		return fmt.Errorf("device id is required")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning history transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO activities (id, device_id, event, created_at, media_url, raw)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("preparing history insert: %w", err)
	}
	defer stmt.Close()

	for _, event := range events {
		if event.ID() == "" {
			continue
		}
		raw, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshalling activity %s: %w", event.ID(), err)
		}
		if _, err := stmt.ExecContext(ctx,
			event.ID(),
			deviceID,
			event.Kind(),
			event.RawCreatedAt(),
			event.MediaURL(),
			string(raw),
		); err != nil {
			return fmt.Errorf("inserting activity %s: %w", event.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing history transaction: %w", err)
	}
	return nil
}

// Recent returns recent activities for a device, newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Device to query
//   - limit: Maximum entries (default 50, max 200)
func (r *Repository) Recent(ctx context.Context, deviceID string, limit int) ([]Entry, error) {
	if deviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, device_id, event, created_at, media_url, raw
		 FROM activities
		 WHERE device_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		deviceID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying activity history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		var createdAt, raw string

		if err := rows.Scan(&entry.ID, &entry.DeviceID, &entry.Kind, &createdAt, &entry.MediaURL, &raw); err != nil {
			return nil, fmt.Errorf("scanning activity history: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &entry.Raw); err != nil {
			return nil, fmt.Errorf("unmarshalling activity %s: %w", entry.ID, err)
		}

		ts, err := time.Parse(time.RFC3339, createdAt)
		if err != nil {
			// Tolerate unparseable rows rather than poisoning reads.
			ts = time.Unix(0, 0).UTC()
		}
		entry.CreatedAt = ts

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity history: %w", err)
	}

	return entries, nil
}

// Prune deletes activities created before the cutoff.
// Returns the number of rows removed.
func (r *Repository) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM activities WHERE created_at < ?",
		olderThan.UTC().Format("2006-01-02T15:04:05.000Z"),
	)
	if err != nil {
		return 0, fmt.Errorf("pruning activity history: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reading pruned row count: %w", err)
	}
	return removed, nil
}
