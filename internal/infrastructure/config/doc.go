// Package config loads and validates Nightbell Core configuration.
//
// Configuration is read from a YAML file, merged over hardcoded
// defaults, and finally overridden by NIGHTBELL_* environment
// variables. Secrets (cloud password, InfluxDB token) should come
// from the environment rather than the file.
//
// # Example
//
//	cloud:
//	  base_url: "https://cloud.nightbell.io/api/v3/"
//	  username: "me@example.com"
//	  request_timeout: 30
//	cache:
//	  path: "./data/nightbell.json"
//	logging:
//	  level: "info"
//	  format: "json"
package config
