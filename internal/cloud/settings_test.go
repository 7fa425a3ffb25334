package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestValidateSetting(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr bool
	}{
		{name: "chime level in range", key: SettingChimeLevel, value: 2},
		{name: "chime level out of range", key: SettingChimeLevel, value: 5, wantErr: true},
		{name: "motion threshold allowed", key: SettingMotionThreshold, value: 50},
		{name: "motion threshold arbitrary", key: SettingMotionThreshold, value: 64, wantErr: true},
		{name: "video profile", key: SettingVideoProfile, value: 3},
		{name: "video profile too high", key: SettingVideoProfile, value: 4, wantErr: true},
		{name: "led channel max", key: SettingLEDR, value: 255},
		{name: "led channel overflow", key: SettingLEDB, value: 256, wantErr: true},
		{name: "led channel negative", key: SettingLEDG, value: -1, wantErr: true},
		{name: "led intensity", key: SettingLEDIntensity, value: 100},
		{name: "led intensity overflow", key: SettingLEDIntensity, value: 101, wantErr: true},
		{name: "dnd wire string", key: SettingDoNotDisturb, value: "True"},
		{name: "dnd lowercase rejected", key: SettingDoNotDisturb, value: "true", wantErr: true},
		{name: "motion policy on", key: SettingMotionPolicy, value: MotionPolicyOn},
		{name: "motion policy arbitrary", key: SettingMotionPolicy, value: "sometimes", wantErr: true},
		{name: "json float for int setting", key: SettingChimeLevel, value: float64(1)},
		{name: "unknown key", key: "volume", value: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSetting(tt.key, tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSetting) {
					t.Errorf("validateSetting(%s, %v) error = %v, want ErrInvalidSetting", tt.key, tt.value, err)
				}
				return
			}
			if err != nil {
				t.Errorf("validateSetting(%s, %v) error = %v, want nil", tt.key, tt.value, err)
			}
		})
	}
}

func TestNormalizeSetting(t *testing.T) {
	tests := []struct {
		name      string
		key       string
		value     any
		wantKey   string
		wantValue any
	}{
		{name: "motion sensor on", key: "motion_sensor", value: true, wantKey: SettingMotionPolicy, wantValue: MotionPolicyOn},
		{name: "motion sensor off", key: "motion_sensor", value: false, wantKey: SettingMotionPolicy, wantValue: MotionPolicyOff},
		{name: "dnd bool", key: SettingDoNotDisturb, value: true, wantKey: SettingDoNotDisturb, wantValue: "True"},
		{name: "dnr bool", key: SettingDoNotRing, value: false, wantKey: SettingDoNotRing, wantValue: "False"},
		{name: "passthrough", key: SettingChimeLevel, value: 2, wantKey: SettingChimeLevel, wantValue: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotKey, gotValue := normalizeSetting(tt.key, tt.value)
			if gotKey != tt.wantKey || gotValue != tt.wantValue {
				t.Errorf("normalizeSetting(%s, %v) = (%s, %v), want (%s, %v)",
					tt.key, tt.value, gotKey, gotValue, tt.wantKey, tt.wantValue)
			}
		})
	}
}

func TestSetSettingRejectsBeforeNetwork(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s: invalid settings must not reach the cloud", r.Method, r.URL.Path)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLOwner)

	if err := d.SetSetting(context.Background(), SettingChimeLevel, 5); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("SetSetting(chime_level, 5) error = %v, want ErrInvalidSetting", err)
	}
	if err := d.SetSetting(context.Background(), "volume", 1); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("SetSetting(volume) error = %v, want ErrInvalidSetting", err)
	}
}

func TestSetSettingRequiresWriteAccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request %s %s: read-only shares must be refused locally", r.Method, r.URL.Path)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLRead)

	if err := d.SetSetting(context.Background(), SettingChimeLevel, 2); !errors.Is(err, ErrAuthentication) {
		t.Errorf("SetSetting() on read-only share error = %v, want ErrAuthentication", err)
	}
}

func TestSetSettingPatchesAndUpdatesLocalState(t *testing.T) {
	var gotMethod string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login/" {
			writeJSON(t, w, map[string]any{"access_token": "tok"})
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/settings/") {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		gotMethod = r.Method
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding settings body: %v", err)
		}
		writeJSON(t, w, map[string]any{})
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLBasic)

	if err := d.SetSetting(context.Background(), "motion_sensor", true); err != nil {
		t.Fatalf("SetSetting() error = %v", err)
	}

	if gotMethod != http.MethodPatch {
		t.Errorf("settings request method = %s, want PATCH", gotMethod)
	}
	if gotBody[SettingMotionPolicy] != MotionPolicyOn {
		t.Errorf("settings body = %v, want normalized motion policy", gotBody)
	}
	if !d.MotionSensor() {
		t.Error("MotionSensor() = false after successful set")
	}

	// The accepted value must survive into the cache record.
	cached := s.cachedDevice("dev1")
	if cached == nil {
		t.Fatal("device missing from cache record after settings change")
	}
	settings, _ := cached[resourceSettings].(map[string]any)
	if settings[SettingMotionPolicy] != MotionPolicyOn {
		t.Errorf("cached settings = %v, want motion policy persisted", settings)
	}
}

func TestSetSettingServerRejectionSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login/" {
			writeJSON(t, w, map[string]any{"access_token": "tok"})
			return
		}
		http.Error(w, "device offline", http.StatusInternalServerError)
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLOwner)

	err := d.SetSetting(context.Background(), SettingChimeLevel, 2)
	if !errors.Is(err, ErrSettingRejected) {
		t.Errorf("SetSetting() error = %v, want ErrSettingRejected", err)
	}
	if d.ChimeLevel() == 2 {
		t.Error("rejected setting leaked into local state")
	}
}

func TestSetLEDColor(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login/" {
			writeJSON(t, w, map[string]any{"access_token": "tok"})
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		writeJSON(t, w, map[string]any{})
	}))
	defer server.Close()

	s := newTestSession(t, server.URL)
	d := aclTestDevice(t, s, ACLOwner)

	if err := d.SetLEDColor(context.Background(), 255, 128, 0); err != nil {
		t.Fatalf("SetLEDColor() error = %v", err)
	}
	r, g, b := d.LEDColor()
	if r != 255 || g != 128 || b != 0 {
		t.Errorf("LEDColor() = %d/%d/%d, want 255/128/0", r, g, b)
	}

	if err := d.SetLEDColor(context.Background(), 300, 0, 0); !errors.Is(err, ErrInvalidSetting) {
		t.Errorf("SetLEDColor(300, 0, 0) error = %v, want ErrInvalidSetting", err)
	}
}
