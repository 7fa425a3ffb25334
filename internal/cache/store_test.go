package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "cache.json"), false)
}

func TestNewRecord_Identity(t *testing.T) {
	rec := NewRecord()

	if rec.AppID == "" || rec.ClientID == "" {
		t.Error("fresh record must have app and client ids")
	}
	if rec.AppID == rec.ClientID {
		t.Error("app and client ids should be independent")
	}
	if len(rec.Token) != tokenLength {
		t.Errorf("token length = %d, want %d", len(rec.Token), tokenLength)
	}
	for _, c := range rec.Token {
		if !strings.ContainsRune(tokenAlphabet, c) {
			t.Errorf("token contains unexpected character %q", c)
		}
	}
	if rec.AccessToken != "" {
		t.Error("fresh record must start unauthenticated")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	store := testStore(t)

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.AppID == "" {
		t.Error("fresh record missing app id")
	}
}

func TestLoad_ZeroByteFileRecovers(t *testing.T) {
	store := testStore(t)
	if err := os.WriteFile(store.Path(), nil, 0600); err != nil {
		t.Fatalf("writing empty cache: %v", err)
	}

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec == nil || rec.AppID == "" {
		t.Fatal("expected fresh record after zero-byte recovery")
	}

	if _, statErr := os.Stat(store.Path()); !os.IsNotExist(statErr) {
		t.Error("zero-byte cache file should have been removed")
	}
}

func TestLoad_CorruptFileRecovers(t *testing.T) {
	store := testStore(t)
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0600); err != nil {
		t.Fatalf("writing corrupt cache: %v", err)
	}

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if rec.AppID == "" {
		t.Error("expected fresh record after corrupt-file recovery")
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	store := testStore(t)

	rec := NewRecord()
	rec.AccessToken = "tok-123"
	rec.MergeDevice("dev-1", map[string]any{
		"summary": map[string]any{"status": "up", "name": "Front Door"},
	})

	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.AppID != rec.AppID {
		t.Errorf("AppID = %q, want %q", loaded.AppID, rec.AppID)
	}
	if loaded.AccessToken != "tok-123" {
		t.Errorf("AccessToken = %q, want tok-123", loaded.AccessToken)
	}
	summary, ok := loaded.Device("dev-1")["summary"].(map[string]any)
	if !ok {
		t.Fatalf("device summary missing after round trip: %v", loaded.Device("dev-1"))
	}
	if summary["name"] != "Front Door" {
		t.Errorf("summary.name = %v, want Front Door", summary["name"])
	}
}

func TestLoad_BackfillsTemplateFields(t *testing.T) {
	store := testStore(t)

	// Simulate an old cache file that predates some template fields.
	old := `{"access_token":"stored-token","devices":{"dev-1":{"summary":{"status":"up"}}}}`
	if err := os.WriteFile(store.Path(), []byte(old), 0600); err != nil {
		t.Fatalf("writing old cache: %v", err)
	}

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	// Stored values survive.
	if rec.AccessToken != "stored-token" {
		t.Errorf("AccessToken = %q, want stored-token", rec.AccessToken)
	}
	if rec.Device("dev-1") == nil {
		t.Error("stored device sub-tree lost on load")
	}
	// Missing identity fields are backfilled from the template.
	if rec.AppID == "" || rec.ClientID == "" || rec.Token == "" {
		t.Error("identity fields not backfilled into old cache file")
	}
}

func TestSave_AtomicReplace(t *testing.T) {
	store := testStore(t)

	first := NewRecord()
	if err := store.Save(first); err != nil {
		t.Fatalf("first Save() error = %v", err)
	}

	second := NewRecord()
	second.AccessToken = "newer"
	if err := store.Save(second); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("reading cache dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".nightbell-cache-") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.AccessToken != "newer" {
		t.Errorf("AccessToken = %q, want newer", loaded.AccessToken)
	}
}

func TestDisabledStore(t *testing.T) {
	store := NewStore("", true)

	rec, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	rec.AccessToken = "never-persisted"

	if err := store.Save(rec); err != nil {
		t.Fatalf("Save() on disabled store error = %v", err)
	}

	again, err := store.Load()
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if again.AccessToken != "" {
		t.Error("disabled store must not persist anything")
	}
}

func TestRecord_MergeDevice(t *testing.T) {
	rec := NewRecord()

	rec.MergeDevice("dev-1", map[string]any{"summary": map[string]any{"status": "up"}})
	rec.MergeDevice("dev-1", map[string]any{"summary": map[string]any{"name": "Porch"}})

	summary := rec.Device("dev-1")["summary"].(map[string]any)
	if summary["status"] != "up" || summary["name"] != "Porch" {
		t.Errorf("partial device merges not combined: %v", summary)
	}

	// Device() returns a copy.
	summary["status"] = "tampered"
	if rec.Devices["dev-1"]["summary"].(map[string]any)["status"] != "up" {
		t.Error("Device() must return a deep copy")
	}

	rec.RemoveDevice("dev-1")
	if rec.Device("dev-1") != nil {
		t.Error("RemoveDevice did not remove the entry")
	}
}
