package cloud

import (
	"fmt"
	"strconv"
	"time"
)

// Typed accessors over the JSON-shaped sub-resources. Settings values
// arrive as strings or numbers depending on endpoint version, so the
// numeric accessors coerce both.

// ACL returns the access-control level the server granted on this
// device.
func (d *Device) ACL() ACL {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.aclLocked()
}

func (d *Device) aclLocked() ACL {
	return ACL(stringField(d.summary, fieldACL))
}

// Owner reports whether the logged-in user owns the device.
func (d *Device) Owner() bool {
	return d.ACL() == ACLOwner
}

// Name returns the device's display name.
func (d *Device) Name() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.summary, fieldName)
}

// Type returns the device type string.
func (d *Device) Type() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.summary, fieldType)
}

// Status returns the generic up/down status.
func (d *Device) Status() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.summary, fieldStatus)
}

// IsUp reports whether the device status is "up".
func (d *Device) IsUp() bool {
	return d.Status() == "up"
}

// UserID returns the owning user's id.
func (d *Device) UserID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.summary, fieldUser)
}

// Location returns the device's latitude and longitude as reported
// in the summary. Missing coordinates come back as "0".
func (d *Device) Location() (lat, lng string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	lat, lng = "0", "0"
	loc, ok := d.summary[fieldLocation].(map[string]any)
	if !ok {
		return lat, lng
	}
	if v := stringField(loc, fieldLocationLat); v != "" {
		lat = v
	}
	if v := stringField(loc, fieldLocationLng); v != "" {
		lng = v
	}
	return lat, lng
}

// ImageURL returns the current avatar image URL.
func (d *Device) ImageURL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.avatar, fieldURL)
}

// Mac returns the device MAC address (owner only; "" otherwise).
func (d *Device) Mac() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.info, "mac")
}

// SerialNo returns the device serial number (owner only).
func (d *Device) SerialNo() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.info, "serialNo")
}

// FirmwareVersion returns the device firmware version (owner only).
func (d *Device) FirmwareVersion() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.info, "firmwareVersion")
}

// WifiStatus returns the wifi link quality (owner only).
func (d *Device) WifiStatus() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if status, ok := d.info[fieldStatus].(map[string]any); ok {
		return stringField(status, fieldWifiLink)
	}
	return ""
}

// WifiSSID returns the wifi network name (owner only).
func (d *Device) WifiSSID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.info, fieldWifiSSID)
}

// LastCheckIn returns the device's last check-in time (owner only).
// The zero time means unknown.
func (d *Device) LastCheckIn() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	raw := stringField(d.info, fieldCheckIn)
	if raw == "" {
		return time.Time{}
	}
	return parseTimestamp(raw)
}

// DoNotDisturb reports whether indoor notifications are suppressed.
func (d *Device) DoNotDisturb() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.settings, SettingDoNotDisturb) == "true" ||
		stringField(d.settings, SettingDoNotDisturb) == "True"
}

// DoNotRing reports whether the indoor chime is suppressed.
func (d *Device) DoNotRing() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.settings, SettingDoNotRing) == "true" ||
		stringField(d.settings, SettingDoNotRing) == "True"
}

// ChimeLevel returns the outdoor chime level (0-3).
func (d *Device) ChimeLevel() int {
	return d.intSetting(SettingChimeLevel)
}

// OutdoorChime reports whether the outdoor chime is audible.
func (d *Device) OutdoorChime() bool {
	return d.ChimeLevel() > 0
}

// MotionSensor reports whether motion detection is enabled.
func (d *Device) MotionSensor() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return stringField(d.settings, SettingMotionPolicy) == MotionPolicyOn
}

// MotionThreshold returns the motion sensitivity threshold.
func (d *Device) MotionThreshold() int {
	return d.intSetting(SettingMotionThreshold)
}

// VideoProfile returns the configured video quality profile.
func (d *Device) VideoProfile() int {
	return d.intSetting(SettingVideoProfile)
}

// LEDColor returns the configured LED colour.
func (d *Device) LEDColor() (r, g, b int) {
	return d.intSetting(SettingLEDR), d.intSetting(SettingLEDG), d.intSetting(SettingLEDB)
}

// LEDIntensity returns the LED brightness (0-100).
func (d *Device) LEDIntensity() int {
	return d.intSetting(SettingLEDIntensity)
}

// Desc returns a short human-readable description of the device.
func (d *Device) Desc() string {
	return fmt.Sprintf("%s (id: %s) - %s - status: %s - wifi status: %s",
		d.Name(), d.id, d.Type(), d.Status(), d.WifiStatus())
}

// intSetting reads a numeric setting, coercing the string and number
// forms the cloud uses interchangeably. Missing settings return 0.
func (d *Device) intSetting(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch v := d.settings[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
