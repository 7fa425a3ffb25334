// Package influxdb records device telemetry in InfluxDB v2.
//
// After each poll cycle the client writes per-device status points
// (up/down, wifi link), per-kind event counts, and cycle timing.
// Writes are batched and asynchronous; a failed telemetry write never
// blocks or fails a refresh.
package influxdb
