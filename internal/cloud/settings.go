package cloud

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/nightbell/nightbell-core/internal/cache"
)

// Setting keys accepted by the cloud.
const (
	SettingDoNotDisturb    = "do_not_disturb"
	SettingDoNotRing       = "do_not_ring"
	SettingMotionPolicy    = "motion_policy"
	SettingMotionThreshold = "motion_threshold"
	SettingChimeLevel      = "chime_level"
	SettingVideoProfile    = "video_profile"
	SettingLEDR            = "green_r"
	SettingLEDG            = "green_g"
	SettingLEDB            = "green_b"
	SettingLEDIntensity    = "led_intensity"
)

// Motion policy values: the cloud models the motion sensor as a
// policy string rather than a boolean.
const (
	MotionPolicyOff = "disabled"
	MotionPolicyOn  = "call"
)

// settingRule validates one setting's value. Exactly one of the rule
// forms applies per setting: string membership, integer membership,
// or an inclusive integer range.
type settingRule struct {
	strings []string
	ints    []int
	min     int
	max     int
	ranged  bool
}

// settingRules is the fixed validation table, keyed by setting name.
// It mirrors the values the cloud accepts; anything outside it is
// rejected before a request is made.
var settingRules = map[string]settingRule{
	SettingDoNotDisturb:    {strings: []string{"True", "False"}},
	SettingDoNotRing:       {strings: []string{"True", "False"}},
	SettingMotionPolicy:    {strings: []string{MotionPolicyOff, MotionPolicyOn}},
	SettingMotionThreshold: {ints: []int{100, 50, 32}},
	SettingChimeLevel:      {ints: []int{0, 1, 2, 3}},
	SettingVideoProfile:    {ints: []int{0, 1, 2, 3}},
	SettingLEDR:            {ranged: true, min: 0, max: 255},
	SettingLEDG:            {ranged: true, min: 0, max: 255},
	SettingLEDB:            {ranged: true, min: 0, max: 255},
	SettingLEDIntensity:    {ranged: true, min: 0, max: 100},
}

// SetSetting validates and applies a single device setting.
//
// Validation happens entirely client-side before any network call:
// an unknown key or out-of-range value returns ErrInvalidSetting and
// the cloud is never contacted. Read-only shares cannot change
// settings and get ErrAuthentication.
//
// Booleans are accepted for the boolean-ish settings and converted to
// the wire representation ("True"/"False", or the motion policy
// strings for "motion_sensor").
func (d *Device) SetSetting(ctx context.Context, key string, value any) error {
	if !d.ACL().Can(CapSettings) {
		return fmt.Errorf("%w: setting %q requires write access to device %s", ErrAuthentication, key, d.id)
	}

	key, value = normalizeSetting(key, value)
	if err := validateSetting(key, value); err != nil {
		return err
	}

	return d.patchSettings(ctx, map[string]any{key: value})
}

// SetLEDColor applies an RGB colour to the device LED.
func (d *Device) SetLEDColor(ctx context.Context, r, g, b int) error {
	if !d.ACL().Can(CapSettings) {
		return fmt.Errorf("%w: LED colour requires write access to device %s", ErrAuthentication, d.id)
	}

	settings := map[string]any{
		SettingLEDR: r,
		SettingLEDG: g,
		SettingLEDB: b,
	}
	for key, value := range settings {
		if err := validateSetting(key, value); err != nil {
			return err
		}
	}

	return d.patchSettings(ctx, settings)
}

// patchSettings issues the PATCH and, on success, folds the accepted
// values into the local settings state and the durable cache.
//
// A server rejection after successful validation is surfaced as
// ErrSettingRejected rather than swallowed; callers that only want
// best-effort behaviour can log and continue.
func (d *Device) patchSettings(ctx context.Context, settings map[string]any) error {
	p, err := d.session.request(ctx, http.MethodPatch, d.session.deviceSettingsURL(d.id), settings)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSettingRejected, err)
	}
	if p == nil {
		return fmt.Errorf("%w: settings endpoint not available for device %s", ErrSettingRejected, d.id)
	}

	d.mu.Lock()
	cache.Merge(d.settings, settings)
	snapshot := d.cacheSnapshotLocked()
	d.mu.Unlock()
	return d.session.cacheDevice(d.id, snapshot)
}

// normalizeSetting converts caller-friendly forms to the wire forms.
func normalizeSetting(key string, value any) (string, any) {
	// The motion sensor is exposed as a boolean but stored as a policy.
	if key == "motion_sensor" {
		if on, ok := value.(bool); ok {
			if on {
				return SettingMotionPolicy, MotionPolicyOn
			}
			return SettingMotionPolicy, MotionPolicyOff
		}
		return SettingMotionPolicy, value
	}

	if key == SettingDoNotDisturb || key == SettingDoNotRing {
		if b, ok := value.(bool); ok {
			if b {
				return key, "True"
			}
			return key, "False"
		}
	}

	return key, value
}

// validateSetting checks a value against the rule table.
func validateSetting(key string, value any) error {
	rule, ok := settingRules[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalidSetting, key)
	}

	switch {
	case rule.strings != nil:
		s, ok := value.(string)
		if !ok || !slices.Contains(rule.strings, s) {
			return fmt.Errorf("%w: %s=%v (allowed: %v)", ErrInvalidSetting, key, value, rule.strings)
		}
	case rule.ints != nil:
		n, ok := intValue(value)
		if !ok || !slices.Contains(rule.ints, n) {
			return fmt.Errorf("%w: %s=%v (allowed: %v)", ErrInvalidSetting, key, value, rule.ints)
		}
	case rule.ranged:
		n, ok := intValue(value)
		if !ok || n < rule.min || n > rule.max {
			return fmt.Errorf("%w: %s=%v (range: %d-%d)", ErrInvalidSetting, key, value, rule.min, rule.max)
		}
	}

	return nil
}

// intValue coerces the numeric types a caller (or decoded JSON) may
// supply for an integer setting.
func intValue(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
