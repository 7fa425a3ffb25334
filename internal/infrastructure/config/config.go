package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for Nightbell Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Cloud    CloudConfig    `yaml:"cloud"`
	Cache    CacheConfig    `yaml:"cache"`
	History  HistoryConfig  `yaml:"history"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Poll     PollConfig     `yaml:"poll"`
}

// CloudConfig contains the Nightbell cloud account and endpoint settings.
type CloudConfig struct {
	// BaseURL is the root of the device-cloud REST API.
	// All session and device endpoints are resolved relative to it.
	BaseURL string `yaml:"base_url"`

	// Username and Password authenticate against the login endpoint.
	// Prefer the NIGHTBELL_CLOUD_PASSWORD environment variable over
	// storing the password in the file.
	Username string `yaml:"username"`
	Password string `yaml:"password"`

	// AutoLogin performs a login during Initialize rather than waiting
	// for the first authenticated request to trigger one implicitly.
	AutoLogin bool `yaml:"auto_login"`

	// RequestTimeout is the per-request ceiling in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	// LoginSettle is an optional delay in seconds after a successful
	// login. The hosted service has been observed rejecting requests
	// issued immediately after login before the fresh token propagates.
	// 0 disables the delay.
	LoginSettle int `yaml:"login_settle"`
}

// CacheConfig contains the durable session/device cache settings.
type CacheConfig struct {
	// Path is the filesystem path of the cache file.
	Path string `yaml:"path"`

	// Disabled turns off loading and saving entirely. The client then
	// starts with a fresh identity on every run.
	Disabled bool `yaml:"disabled"`
}

// HistoryConfig contains the local activity history settings.
type HistoryConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker settings for event announcements.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings for device telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// PollConfig contains the device poll loop settings.
type PollConfig struct {
	// Interval is the delay between device refresh cycles in seconds.
	Interval int `yaml:"interval"`

	// MediaDir is where downloaded activity videos are written.
	MediaDir string `yaml:"media_dir"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NIGHTBELL_SECTION_KEY
// For example: NIGHTBELL_CLOUD_PASSWORD, NIGHTBELL_CACHE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Cloud: CloudConfig{
			BaseURL:        "https://cloud.nightbell.io/api/v3/",
			AutoLogin:      true,
			RequestTimeout: 30,
		},
		Cache: CacheConfig{
			Path: "./data/nightbell.json",
		},
		History: HistoryConfig{
			Database: DatabaseConfig{
				Path:        "./data/nightbell.db",
				WALMode:     true,
				BusyTimeout: 5,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "nightbell-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Poll: PollConfig{
			Interval: 300,
			MediaDir: "./data/media",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NIGHTBELL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Cloud account
	if v := os.Getenv("NIGHTBELL_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := os.Getenv("NIGHTBELL_CLOUD_USERNAME"); v != "" {
		cfg.Cloud.Username = v
	}
	if v := os.Getenv("NIGHTBELL_CLOUD_PASSWORD"); v != "" {
		cfg.Cloud.Password = v
	}

	// Cache
	if v := os.Getenv("NIGHTBELL_CACHE_PATH"); v != "" {
		cfg.Cache.Path = v
	}

	// History
	if v := os.Getenv("NIGHTBELL_HISTORY_DATABASE_PATH"); v != "" {
		cfg.History.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("NIGHTBELL_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NIGHTBELL_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NIGHTBELL_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("NIGHTBELL_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Poll
	if v := os.Getenv("NIGHTBELL_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Poll.Interval = n
		}
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Cloud validation
	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	} else if !strings.HasPrefix(c.Cloud.BaseURL, "http://") && !strings.HasPrefix(c.Cloud.BaseURL, "https://") {
		errs = append(errs, "cloud.base_url must be an http(s) URL")
	}
	if c.Cloud.RequestTimeout <= 0 {
		errs = append(errs, "cloud.request_timeout must be positive")
	}
	if c.Cloud.LoginSettle < 0 {
		errs = append(errs, "cloud.login_settle must not be negative")
	}

	// Cache validation
	if !c.Cache.Disabled && c.Cache.Path == "" {
		errs = append(errs, "cache.path is required unless cache.disabled is set")
	}

	// History validation
	if c.History.Enabled && c.History.Database.Path == "" {
		errs = append(errs, "history.database.path is required when history is enabled")
	}

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Token == "" {
			errs = append(errs, "influxdb.token is required (set NIGHTBELL_INFLUXDB_TOKEN environment variable)")
		}
	}

	// Poll validation
	if c.Poll.Interval < 1 {
		errs = append(errs, "poll.interval must be at least 1 second")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetRequestTimeout returns the cloud request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Cloud.RequestTimeout) * time.Second
}

// GetLoginSettle returns the post-login settle delay as a Duration.
func (c *Config) GetLoginSettle() time.Duration {
	return time.Duration(c.Cloud.LoginSettle) * time.Second
}

// GetPollInterval returns the poll loop interval as a Duration.
func (c *Config) GetPollInterval() time.Duration {
	return time.Duration(c.Poll.Interval) * time.Second
}
