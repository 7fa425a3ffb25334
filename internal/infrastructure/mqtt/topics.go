package mqtt

import "fmt"

// Topic prefixes for the Nightbell MQTT hierarchy.
//
// Device topics use the scheme: nightbell/device/{device_id}/{kind}
const (
	// TopicPrefixDevice is the base for per-device topics.
	TopicPrefixDevice = "nightbell/device"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "nightbell/system"
)

// Topics provides builders for Nightbell MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
type Topics struct{}

// DeviceEvent returns the topic for a device's latest activity event.
//
// Example: nightbell/device/0123abcd/event
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/%s/event", TopicPrefixDevice, deviceID)
}

// DeviceStatus returns the topic for a device's up/down status.
//
// Example: nightbell/device/0123abcd/status
func (Topics) DeviceStatus(deviceID string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, deviceID)
}

// DeviceSettings returns the topic for a device's settings snapshot.
//
// Example: nightbell/device/0123abcd/settings
func (Topics) DeviceSettings(deviceID string) string {
	return fmt.Sprintf("%s/%s/settings", TopicPrefixDevice, deviceID)
}

// SystemStatus returns the system status topic.
//
// Example: nightbell/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllDeviceEvents returns a pattern matching every device's event topic.
//
// Pattern: nightbell/device/+/event
func (Topics) AllDeviceEvents() string {
	return fmt.Sprintf("%s/+/event", TopicPrefixDevice)
}

// AllDeviceStatuses returns a pattern matching every device's status topic.
//
// Pattern: nightbell/device/+/status
func (Topics) AllDeviceStatuses() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixDevice)
}
