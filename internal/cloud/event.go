package cloud

import (
	"strings"
	"time"
)

// Event is a timestamped activity record (motion, button press,
// on-demand view) as returned by the cloud. Extra fields the server
// adds over time are carried through unmodified, which is why the
// type stays JSON-shaped rather than a fixed struct.
type Event map[string]any

// Well-known event keys. Sensor-generated events use the
// device:sensor: prefix; app-generated ones use application:on-.
const (
	EventButton   = "device:sensor:button"
	EventMotion   = "device:sensor:motion"
	EventOnDemand = "application:on-demand"

	sensorEventPrefix      = "device:sensor:"
	applicationEventPrefix = "application:on-"
)

// epochTimestamp is the sentinel for "never happened". Comparisons
// against it always prefer the other side.
const epochTimestamp = "1970-01-01T00:00:00.000Z"

// ID returns the activity id, or "" if absent.
func (e Event) ID() string {
	return stringField(e, fieldID)
}

// Kind returns the event key (e.g. "device:sensor:motion").
func (e Event) Kind() string {
	return stringField(e, fieldEvent)
}

// RawCreatedAt returns the unparsed createdAt timestamp string.
func (e Event) RawCreatedAt() string {
	return stringField(e, fieldCreatedAt)
}

// CreatedAt returns the parsed createdAt timestamp.
// Missing or unparseable timestamps collapse to the Unix epoch, so
// they never win a most-recent comparison.
func (e Event) CreatedAt() time.Time {
	return parseTimestamp(e.RawCreatedAt())
}

// MediaURL returns the pre-signed media URL, or "" if the event
// carries no media.
func (e Event) MediaURL() string {
	return stringField(e, fieldMediaURL)
}

// SensorKind returns the short sensor name for sensor events
// ("motion" for "device:sensor:motion"), or "" for other kinds.
func (e Event) SensorKind() string {
	kind := e.Kind()
	if rest, ok := strings.CutPrefix(kind, sensorEventPrefix); ok {
		return rest
	}
	return ""
}

// sentinelEvent builds the epoch-timestamped placeholder returned
// when no event of a requested kind has ever been seen.
func sentinelEvent() Event {
	return Event{fieldCreatedAt: epochTimestamp}
}

// parseTimestamp parses a cloud timestamp (RFC 3339 with millisecond
// precision). Anything unparseable becomes the Unix epoch.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Unix(0, 0).UTC()
	}
	return t
}

// stringField reads a string value from a JSON-shaped map, tolerating
// absent keys and non-string values.
func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
