package cloud

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestDownloadVideos(t *testing.T) {
	var mu sync.Mutex
	var deleted []string

	var mediaURL string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/login/":
			writeJSON(t, w, map[string]any{"access_token": "tok"})
		case strings.HasSuffix(r.URL.Path, "/video/"):
			writeJSON(t, w, map[string]any{"url": mediaURL})
		case r.Method == http.MethodDelete:
			mu.Lock()
			deleted = append(deleted, r.URL.Path)
			mu.Unlock()
			writeJSON(t, w, map[string]any{})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes")) //nolint:errcheck
	}))
	defer media.Close()
	mediaURL = media.URL + "/video.mp4"

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLOwner)
	d.activities = []Event{
		testEvent("act-1", EventMotion, "2026-08-30T10:00:00.000Z"),
	}

	dir := t.TempDir()
	opts := DownloadOptions{ActivityID: "act-1", Delete: true}
	if err := d.DownloadVideos(context.Background(), dir, opts); err != nil {
		t.Fatalf("DownloadVideos() error = %v", err)
	}

	path := filepath.Join(dir, "dev1_2026-08-30T10:00:00.000Z.mp4")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded video: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Errorf("video contents = %q, want raw media bytes", data)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(deleted) != 1 || !strings.Contains(deleted[0], "act-1") {
		t.Errorf("deleted activities = %v, want the downloaded one removed", deleted)
	}
}

func TestDownloadVideosUnknownActivity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login/" {
			writeJSON(t, w, map[string]any{"access_token": "tok"})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLOwner)

	opts := DownloadOptions{ActivityID: "missing"}
	if err := d.DownloadVideos(context.Background(), t.TempDir(), opts); !errors.Is(err, ErrCloud) {
		t.Errorf("DownloadVideos() error = %v, want ErrCloud for unknown activity", err)
	}
}

func TestVideoURLExpiredIsDegraded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login/" {
			writeJSON(t, w, map[string]any{"access_token": "tok"})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLOwner)

	url, err := d.VideoURL(context.Background(), "act-gone")
	if err != nil {
		t.Fatalf("VideoURL() error = %v, want degraded nil", err)
	}
	if url != "" {
		t.Errorf("VideoURL() = %q, want empty for expired resource", url)
	}
}
