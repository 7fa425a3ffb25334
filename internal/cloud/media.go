package cloud

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// File permissions for downloaded media.
const (
	mediaDirPermissions  = 0750
	mediaFilePermissions = 0600
)

// DownloadOptions controls DownloadVideos.
type DownloadOptions struct {
	// ActivityID selects one specific activity. When empty, the most
	// recent Limit activities are downloaded instead.
	ActivityID string

	// Limit caps how many recent activities are downloaded when no
	// ActivityID is given. Non-positive means 1.
	Limit int

	// Delete removes each activity server-side after its video has
	// been written to disk.
	Delete bool
}

// VideoURL resolves the short-lived pre-signed URL for an activity's
// video. An empty activityID resolves the most recent activity.
//
// Returns ("", nil) when the video is no longer available upstream —
// pre-signed resources expire, and callers are expected to tolerate
// that.
func (d *Device) VideoURL(ctx context.Context, activityID string) (string, error) {
	if activityID == "" {
		activityID = d.Latest("").ID()
	}
	if activityID == "" {
		return "", fmt.Errorf("%w: no activity to resolve video for on device %s", ErrCloud, d.id)
	}

	p, err := d.session.request(ctx, http.MethodGet, d.session.activityVideoURL(d.id, activityID), nil)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", nil
	}

	var resp map[string]any
	if err := p.Decode(&resp); err != nil {
		return "", err
	}
	return stringField(resp, fieldURL), nil
}

// DownloadVideos fetches activity videos and writes them to dir as
// <device-id>_<createdAt>.mp4.
//
// With an ActivityID, only that activity is downloaded (it must be
// present in the current activity list). Otherwise the most recent
// Limit activities are taken. Expired videos are skipped with a log
// entry rather than failing the batch.
func (d *Device) DownloadVideos(ctx context.Context, dir string, opts DownloadOptions) error {
	if err := os.MkdirAll(dir, mediaDirPermissions); err != nil {
		return fmt.Errorf("%w: creating media directory: %w", ErrCloud, err)
	}

	var targets []Event
	if opts.ActivityID != "" {
		d.mu.Lock()
		for _, activity := range d.activities {
			if activity.ID() == opts.ActivityID {
				targets = append(targets, activity)
				break
			}
		}
		d.mu.Unlock()
		if len(targets) == 0 {
			return fmt.Errorf("%w: activity %s not in current activity list", ErrCloud, opts.ActivityID)
		}
	} else {
		targets = d.Activities(opts.Limit, "")
	}

	for _, activity := range targets {
		if err := d.saveVideo(ctx, dir, activity, opts.Delete); err != nil {
			return err
		}
	}
	return nil
}

// saveVideo writes one activity's video to disk and optionally
// deletes the activity server-side afterwards.
func (d *Device) saveVideo(ctx context.Context, dir string, activity Event, deleteAfter bool) error {
	videoURL, err := d.VideoURL(ctx, activity.ID())
	if err != nil {
		return err
	}
	if videoURL == "" {
		d.session.logger.Warn("video no longer available, skipping",
			"device_id", d.id,
			"activity_id", activity.ID(),
		)
		return nil
	}

	p, err := d.session.request(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return err
	}
	if p == nil {
		d.session.logger.Warn("pre-signed video URL expired, skipping",
			"device_id", d.id,
			"activity_id", activity.ID(),
		)
		return nil
	}

	name := fmt.Sprintf("%s_%s.mp4", d.id, activity.RawCreatedAt())
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, p.Bytes(), mediaFilePermissions); err != nil {
		return fmt.Errorf("%w: writing video file: %w", ErrCloud, err)
	}
	d.session.logger.Info("video downloaded", "device_id", d.id, "path", path)

	if deleteAfter {
		return d.DeleteVideo(ctx, activity.ID())
	}
	return nil
}

// DeleteVideo removes an activity record (and its video) server-side.
func (d *Device) DeleteVideo(ctx context.Context, activityID string) error {
	_, err := d.session.request(ctx, http.MethodDelete, d.session.activityURL(d.id, activityID), nil)
	return err
}

// Media returns the cached binary blob for a media kind ("avatar" or
// "activity"), or nil when nothing is cached.
func (d *Device) Media(kind string) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.media[kind]
}
