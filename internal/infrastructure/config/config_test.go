package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
cloud:
  base_url: "https://cloud.example.test/api/v3/"
  username: "user@example.test"
  password: "hunter22"
  request_timeout: 15
cache:
  path: "/tmp/nightbell-test.json"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
poll:
  interval: 60
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cloud.BaseURL != "https://cloud.example.test/api/v3/" {
		t.Errorf("Cloud.BaseURL = %q, want example URL", cfg.Cloud.BaseURL)
	}
	if cfg.Cloud.RequestTimeout != 15 {
		t.Errorf("Cloud.RequestTimeout = %d, want 15", cfg.Cloud.RequestTimeout)
	}
	if cfg.Cache.Path != "/tmp/nightbell-test.json" {
		t.Errorf("Cache.Path = %q, want /tmp/nightbell-test.json", cfg.Cache.Path)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want broker.local", cfg.MQTT.Broker.Host)
	}
}

func TestLoad_Defaults(t *testing.T) {
	// Minimal file; everything else should come from defaults.
	cfg, err := Load(writeConfig(t, "cloud:\n  username: \"u\"\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cloud.BaseURL == "" {
		t.Error("Cloud.BaseURL default missing")
	}
	if cfg.Cloud.RequestTimeout != 30 {
		t.Errorf("Cloud.RequestTimeout = %d, want default 30", cfg.Cloud.RequestTimeout)
	}
	if cfg.Poll.Interval != 300 {
		t.Errorf("Poll.Interval = %d, want default 300", cfg.Poll.Interval)
	}
	if !cfg.History.Database.WALMode {
		t.Error("History.Database.WALMode default should be true")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NIGHTBELL_CLOUD_PASSWORD", "from-env")
	t.Setenv("NIGHTBELL_CACHE_PATH", "/tmp/env-cache.json")
	t.Setenv("NIGHTBELL_POLL_INTERVAL", "42")

	content := `
cloud:
  username: "user@example.test"
  password: "from-file"
cache:
  path: "/tmp/file-cache.json"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Cloud.Password != "from-env" {
		t.Errorf("Cloud.Password = %q, want env value", cfg.Cloud.Password)
	}
	if cfg.Cache.Path != "/tmp/env-cache.json" {
		t.Errorf("Cache.Path = %q, want env value", cfg.Cache.Path)
	}
	if cfg.Poll.Interval != 42 {
		t.Errorf("Poll.Interval = %d, want 42", cfg.Poll.Interval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			mutate: func(_ *Config) {},
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.Cloud.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "non-http base URL",
			mutate:  func(c *Config) { c.Cloud.BaseURL = "ftp://cloud.example.test/" },
			wantErr: true,
		},
		{
			name:    "zero request timeout",
			mutate:  func(c *Config) { c.Cloud.RequestTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative login settle",
			mutate:  func(c *Config) { c.Cloud.LoginSettle = -1 },
			wantErr: true,
		},
		{
			name: "cache enabled without path",
			mutate: func(c *Config) {
				c.Cache.Path = ""
				c.Cache.Disabled = false
			},
			wantErr: true,
		},
		{
			name: "cache disabled without path is fine",
			mutate: func(c *Config) {
				c.Cache.Path = ""
				c.Cache.Disabled = true
			},
		},
		{
			name:    "invalid qos",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name: "influxdb enabled without token",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = "http://localhost:8086"
				c.InfluxDB.Token = ""
			},
			wantErr: true,
		},
		{
			name:    "poll interval too small",
			mutate:  func(c *Config) { c.Poll.Interval = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
