package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDeviceStatus records a device's up/down state and wifi link
// quality after a refresh cycle.
//
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - deviceID: Device identifier
//   - up: Whether the device reported status "up"
//   - wifiLink: Wifi link quality string as reported ("" when unknown)
func (c *Client) WriteDeviceStatus(deviceID string, up bool, wifiLink string) {
	if !c.IsConnected() {
		return
	}

	upValue := 0
	if up {
		upValue = 1
	}

	fields := map[string]interface{}{
		"up": upValue,
	}
	if wifiLink != "" {
		fields["wifi_link"] = wifiLink
	}

	point := write.NewPoint(
		"device_status",
		map[string]string{
			"device_id": deviceID,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteEventCount records how many activities of a kind a refresh
// cycle returned for a device.
//
// Parameters:
//   - deviceID: Device identifier
//   - kind: Event kind (e.g. "device:sensor:motion")
//   - count: Number of activities of that kind in the fetched batch
func (c *Client) WriteEventCount(deviceID string, kind string, count int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"device_events",
		map[string]string{
			"device_id": deviceID,
			"kind":      kind,
		},
		map[string]interface{}{
			"count": count,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePollCycle records the duration and outcome of one poll cycle.
//
// Parameters:
//   - devices: Number of devices refreshed
//   - duration: Wall time the cycle took
//   - failed: Whether the cycle ended with an error
func (c *Client) WritePollCycle(devices int, duration time.Duration, failed bool) {
	if !c.IsConnected() {
		return
	}

	failedValue := 0
	if failed {
		failedValue = 1
	}

	point := write.NewPoint(
		"poll_cycle",
		map[string]string{},
		map[string]interface{}{
			"devices":     devices,
			"duration_ms": duration.Milliseconds(),
			"failed":      failedValue,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
