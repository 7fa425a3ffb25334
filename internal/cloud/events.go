package cloud

import "time"

// updateEventsLocked folds a batch of activities into the per-kind
// "most recent" index. An entry is replaced when no event of that
// kind exists yet or the new activity's timestamp is greater than or
// equal to the stored one — equal timestamps favour the newer scan.
//
// Callers must hold d.mu.
func (d *Device) updateEventsLocked(activities []Event) {
	for _, activity := range activities {
		kind := activity.Kind()
		if kind == "" {
			continue
		}

		old, exists := d.events[kind]
		if !exists {
			d.events[kind] = activity
			d.eventOrder = append(d.eventOrder, kind)
			continue
		}
		if !activity.CreatedAt().Before(old.CreatedAt()) {
			d.events[kind] = activity
		}
	}
}

// Latest returns the most recent event.
//
// With kind == "", the whole index is scanned and the entry with the
// greatest timestamp wins; ties keep the first one encountered in
// insertion order. An empty index yields an empty event.
//
// With a kind (e.g. "motion"), the sensor-generated entry
// "device:sensor:<kind>" is preferred, falling back to the
// app-generated "application:on-<kind>". If neither exists, a
// sentinel event with the epoch timestamp is returned so comparisons
// against it never win.
func (d *Device) Latest(kind string) Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.latestLocked(kind)
}

func (d *Device) latestLocked(kind string) Event {
	if kind != "" {
		if evt, ok := d.events[sensorEventPrefix+kind]; ok {
			return evt
		}
		if evt, ok := d.events[applicationEventPrefix+kind]; ok {
			return evt
		}
		return sentinelEvent()
	}

	var latest Event
	var latestAt time.Time
	for _, key := range d.eventOrder {
		evt, ok := d.events[key]
		if !ok {
			continue
		}
		at := evt.CreatedAt()
		if latest == nil || at.After(latestAt) {
			latest = evt
			latestAt = at
		}
	}
	if latest == nil {
		return Event{}
	}
	return latest
}

// Activities returns up to limit recent activities, optionally
// filtered by event key (e.g. cloud.EventMotion). The list keeps the
// server's most-recent-first order. A non-positive limit means 1.
func (d *Device) Activities(limit int, kind string) []Event {
	if limit <= 0 {
		limit = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	matched := make([]Event, 0, limit)
	for _, activity := range d.activities {
		if kind != "" && activity.Kind() != kind {
			continue
		}
		matched = append(matched, activity)
		if len(matched) == limit {
			break
		}
	}
	return matched
}
