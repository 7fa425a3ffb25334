// Package mqtt publishes device events and status updates to an MQTT
// broker.
//
// The poll loop announces each device's latest activity, up/down
// status, and settings snapshot on retained topics, so dashboards and
// automations see current state immediately on subscribe. The client
// maintains the broker connection with auto-reconnect and publishes a
// Last Will message for crash detection.
//
// Topic hierarchy:
//
//	nightbell/device/{device_id}/event     latest activity (retained)
//	nightbell/device/{device_id}/status    up/down status (retained)
//	nightbell/device/{device_id}/settings  settings snapshot (retained)
//	nightbell/system/status                poller online/offline (retained)
package mqtt
