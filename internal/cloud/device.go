package cloud

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/nightbell/nightbell-core/internal/cache"
)

// Device is the cached state of a single doorbell/camera, composed of
// independently fetchable sub-resources: summary, avatar, info,
// settings, and activities.
//
// Sub-resources stay JSON-shaped because the cloud adds fields over
// time and they must round-trip through the cache unmodified. Typed
// access goes through the accessor methods.
//
// All exported methods are safe for concurrent use; a per-device
// mutex serialises updates so interleaved refreshes cannot corrupt
// sub-resource state.
type Device struct {
	session *Session
	id      string

	mu         sync.Mutex
	summary    map[string]any
	avatar     map[string]any
	info       map[string]any
	settings   map[string]any
	activities []Event

	// events tracks the most recent activity per event key.
	// eventOrder preserves insertion order for stable tie-breaks.
	events     map[string]Event
	eventOrder []string

	// media holds downloaded binary blobs by kind (avatar image,
	// latest activity video). Not persisted.
	media map[string][]byte
}

// UpdateOptions controls a device update.
//
// Supplied sub-resource maps are merged over the fetched (or cached)
// state, letting callers push partial server payloads they already
// hold. Refresh forces a refetch of every accessible sub-resource and
// the activity list.
type UpdateOptions struct {
	Summary  map[string]any
	Avatar   map[string]any
	Info     map[string]any
	Settings map[string]any
	Refresh  bool
}

// newDevice constructs a device from a freshly fetched summary,
// seeded with whatever partial sub-trees the cache holds for it.
func newDevice(s *Session, deviceID string, summary map[string]any) *Device {
	d := &Device{
		session:  s,
		id:       deviceID,
		summary:  make(map[string]any),
		avatar:   make(map[string]any),
		info:     make(map[string]any),
		settings: make(map[string]any),
		events:   make(map[string]Event),
		media:    make(map[string][]byte),
	}

	if cached := s.cachedDevice(deviceID); cached != nil {
		d.seedFromCache(cached)
	}
	cache.Merge(d.summary, summary)
	return d
}

// seedFromCache restores sub-resource state persisted by an earlier run.
func (d *Device) seedFromCache(cached map[string]any) {
	if m, ok := cached[resourceSummary].(map[string]any); ok {
		d.summary = m
	}
	if m, ok := cached[resourceAvatar].(map[string]any); ok {
		d.avatar = m
	}
	if m, ok := cached[resourceInfo].(map[string]any); ok {
		d.info = m
	}
	if m, ok := cached[resourceSettings].(map[string]any); ok {
		d.settings = m
	}
	if m, ok := cached[resourceEvents].(map[string]any); ok {
		// JSON objects lose insertion order; restore deterministically.
		keys := make([]string, 0, len(m))
		for key := range m {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if evt, ok := m[key].(map[string]any); ok {
				d.events[key] = Event(evt)
				d.eventOrder = append(d.eventOrder, key)
			}
		}
	}
}

// ID returns the device id.
func (d *Device) ID() string {
	return d.id
}

// Update refreshes the device's sub-resources.
//
// Per sub-resource, a fetch happens when Refresh is set, the caller
// supplied data for it, or nothing is cached yet — except that info
// is only ever fetched for owners and settings never for read-only
// shares. Activities are refetched (and the event index recomputed)
// only on Refresh. The resulting state is merged into the durable
// cache.
func (d *Device) Update(ctx context.Context, opts UpdateOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.updateSummary(ctx, opts); err != nil {
		return err
	}
	if err := d.updateAvatar(ctx, opts); err != nil {
		return err
	}

	if d.aclLocked().Can(CapInfo) {
		if err := d.updateInfo(ctx, opts); err != nil {
			return err
		}
	}
	if d.aclLocked().Can(CapSettings) {
		if err := d.updateSettings(ctx, opts); err != nil {
			return err
		}
	}

	if opts.Refresh {
		if err := d.updateActivities(ctx); err != nil {
			return err
		}
	}

	return d.session.cacheDevice(d.id, d.cacheSnapshotLocked())
}

// updateSummary merges fresh summary data into the cached summary.
// The summary is never replaced wholesale: fields the update does not
// mention survive.
func (d *Device) updateSummary(ctx context.Context, opts UpdateOptions) error {
	if !opts.Refresh && opts.Summary == nil && len(d.summary) > 0 {
		return nil
	}

	fetched := opts.Summary
	if fetched == nil {
		p, err := d.session.request(ctx, http.MethodGet, d.session.deviceURL(d.id), nil)
		if err != nil {
			return err
		}
		if p == nil {
			return nil // degraded: keep what we have
		}
		if err := p.Decode(&fetched); err != nil {
			return err
		}
	}
	cache.Merge(d.summary, fetched)
	return nil
}

// updateAvatar refetches the avatar descriptor and re-downloads the
// image bytes only when its createdAt changed. Unchanged avatars keep
// the cached bytes, avoiding a redundant media fetch.
func (d *Device) updateAvatar(ctx context.Context, opts UpdateOptions) error {
	if !opts.Refresh && opts.Avatar == nil && len(d.avatar) > 0 {
		return nil
	}

	p, err := d.session.request(ctx, http.MethodGet, d.session.deviceAvatarURL(d.id), nil)
	if err != nil {
		return err
	}
	if p != nil {
		var fetched map[string]any
		if err := p.Decode(&fetched); err != nil {
			return err
		}
		if stringField(fetched, fieldCreatedAt) != stringField(d.avatar, fieldCreatedAt) {
			if imageURL := stringField(fetched, fieldURL); imageURL != "" {
				img, err := d.session.request(ctx, http.MethodGet, imageURL, nil)
				if err != nil {
					return err
				}
				if img != nil {
					d.media[mediaAvatar] = img.Bytes()
				}
			}
		}
		d.avatar = fetched
	}

	cache.Merge(d.avatar, opts.Avatar)
	return nil
}

// updateInfo refetches the owner-only info sub-resource.
func (d *Device) updateInfo(ctx context.Context, opts UpdateOptions) error {
	if !opts.Refresh && opts.Info == nil && len(d.info) > 0 {
		return nil
	}

	p, err := d.session.request(ctx, http.MethodGet, d.session.deviceInfoURL(d.id), nil)
	if err != nil {
		return err
	}
	if p != nil {
		var fetched map[string]any
		if err := p.Decode(&fetched); err != nil {
			return err
		}
		d.info = fetched
	}

	cache.Merge(d.info, opts.Info)
	return nil
}

// updateSettings refetches device settings.
func (d *Device) updateSettings(ctx context.Context, opts UpdateOptions) error {
	if !opts.Refresh && opts.Settings == nil && len(d.settings) > 0 {
		return nil
	}

	p, err := d.session.request(ctx, http.MethodGet, d.session.deviceSettingsURL(d.id), nil)
	if err != nil {
		return err
	}
	if p != nil {
		var fetched map[string]any
		if err := p.Decode(&fetched); err != nil {
			return err
		}
		d.settings = fetched
	}

	cache.Merge(d.settings, opts.Settings)
	return nil
}

// updateActivities replaces the activity list wholesale, recomputes
// the event index, eagerly caches the newest activity's media, and
// hands the batch to the history recorder when one is attached.
func (d *Device) updateActivities(ctx context.Context) error {
	p, err := d.session.request(ctx, http.MethodGet, d.session.deviceActivitiesURL(d.id), nil)
	if err != nil {
		return err
	}

	activities := []Event{}
	if p != nil {
		if err := p.Decode(&activities); err != nil {
			return err
		}
	}
	d.activities = activities
	d.updateEventsLocked(activities)

	if mediaURL := d.latestLocked("").MediaURL(); mediaURL != "" {
		img, err := d.session.request(ctx, http.MethodGet, mediaURL, nil)
		if err != nil {
			return err
		}
		if img != nil {
			d.media[mediaActivity] = img.Bytes()
		}
	}

	if d.session.history != nil && len(activities) > 0 {
		if err := d.session.history.RecordActivities(ctx, d.id, activities); err != nil {
			// History is a local convenience; a write failure must not
			// abort the refresh.
			d.session.logger.Warn("recording activity history failed",
				"device_id", d.id,
				"error", err,
			)
		}
	}

	return nil
}

// mergeSummary folds a freshly listed summary into the device and
// persists the result. Used by the registry on list refreshes.
func (d *Device) mergeSummary(summary map[string]any) error {
	d.mu.Lock()
	cache.Merge(d.summary, summary)
	snapshot := d.cacheSnapshotLocked()
	d.mu.Unlock()
	return d.session.cacheDevice(d.id, snapshot)
}

// cacheSnapshot is the locking wrapper around cacheSnapshotLocked.
func (d *Device) cacheSnapshot() map[string]any {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cacheSnapshotLocked()
}

// cacheSnapshotLocked builds the partial sub-tree map persisted for
// this device. Activities and media blobs are deliberately excluded:
// the list is replaced wholesale on every refresh and blobs are
// refetchable.
func (d *Device) cacheSnapshotLocked() map[string]any {
	events := make(map[string]any, len(d.events))
	for key, evt := range d.events {
		events[key] = cache.DeepCopy(map[string]any(evt))
	}
	return map[string]any{
		resourceSummary:  cache.DeepCopy(d.summary),
		resourceAvatar:   cache.DeepCopy(d.avatar),
		resourceInfo:     cache.DeepCopy(d.info),
		resourceSettings: cache.DeepCopy(d.settings),
		resourceEvents:   events,
	}
}
