// Nightbell Core - resilient device-cloud client for Nightbell doorbells.
//
// The daemon maintains an authenticated session against the Nightbell
// cloud, keeps a durable local cache of device state, records activity
// history, and announces device events over MQTT on a fixed poll
// interval.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nightbell/nightbell-core/internal/cache"
	"github.com/nightbell/nightbell-core/internal/cloud"
	"github.com/nightbell/nightbell-core/internal/history"
	"github.com/nightbell/nightbell-core/internal/infrastructure/config"
	"github.com/nightbell/nightbell-core/internal/infrastructure/database"
	"github.com/nightbell/nightbell-core/internal/infrastructure/influxdb"
	"github.com/nightbell/nightbell-core/internal/infrastructure/logging"
	"github.com/nightbell/nightbell-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Nightbell Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Durable session/device cache
	store := cache.NewStore(cfg.Cache.Path, cfg.Cache.Disabled)
	store.SetLogger(log)

	// Cloud session
	session, err := cloud.New(cfg.Cloud, store)
	if err != nil {
		return fmt.Errorf("creating cloud session: %w", err)
	}
	session.SetLogger(log)
	defer session.Close()

	// Activity history (optional)
	if cfg.History.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.History.Database.Path,
			WALMode:     cfg.History.Database.WALMode,
			BusyTimeout: cfg.History.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer func() {
			log.Info("closing history database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing history database", "error", closeErr)
			}
		}()

		repo := history.NewRepository(db.DB)
		if err := repo.Init(ctx); err != nil {
			return fmt.Errorf("initialising history schema: %w", err)
		}
		session.SetHistory(repo)
		log.Info("activity history enabled", "path", cfg.History.Database.Path)
	} else {
		log.Info("activity history disabled")
	}

	// MQTT event announcements (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB telemetry (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Establish the cloud session and discover devices
	devices, err := session.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("initialising cloud session: %w", err)
	}
	log.Info("cloud session established",
		"user_id", session.UserID(),
		"devices", len(devices),
	)
	for _, d := range devices {
		log.Info("device discovered",
			"device_id", d.ID(),
			"name", d.Name(),
			"acl", string(d.ACL()),
		)
	}

	log.Info("initialisation complete, entering poll loop",
		"interval", cfg.GetPollInterval(),
	)

	poller := &poller{
		session: session,
		mqtt:    mqttClient,
		influx:  influxClient,
		log:     log,
	}

	ticker := time.NewTicker(cfg.GetPollInterval())
	defer ticker.Stop()

	// Run one cycle immediately so state is fresh before the first tick.
	poller.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			log.Info("Nightbell Core stopped")
			return nil
		case <-ticker.C:
			poller.poll(ctx)
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses NIGHTBELL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("NIGHTBELL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// poller runs refresh cycles and fans results out to MQTT and InfluxDB.
// Both sinks are optional; a nil client skips that sink.
type poller struct {
	session *cloud.Session
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	log     *logging.Logger
}

// activityWindow bounds how many recent activities feed telemetry counts.
const activityWindow = 100

// poll refreshes every device and announces the results.
//
// A failed cycle is logged and counted, never fatal: the next tick
// retries from the cached state.
func (p *poller) poll(ctx context.Context) {
	start := time.Now()

	devices, err := p.session.Devices(ctx, true)
	if err != nil {
		p.log.Error("device list refresh failed", "error", err)
		p.recordCycle(0, time.Since(start), true)
		return
	}

	failed := false
	for _, device := range devices {
		if err := device.Update(ctx, cloud.UpdateOptions{Refresh: true}); err != nil {
			p.log.Error("device refresh failed",
				"device_id", device.ID(),
				"error", err,
			)
			failed = true
			continue
		}
		p.announce(device)
	}

	p.recordCycle(len(devices), time.Since(start), failed)
	p.log.Debug("poll cycle complete",
		"devices", len(devices),
		"duration", time.Since(start),
		"failed", failed,
	)
}

// announce publishes a device's latest event, status, and settings to
// MQTT and writes its telemetry points. Publish failures are logged;
// the refresh already succeeded and the cache holds the state.
func (p *poller) announce(device *cloud.Device) {
	if p.influx != nil {
		p.influx.WriteDeviceStatus(device.ID(), device.IsUp(), device.WifiStatus())
		for kind, count := range countByKind(device.Activities(activityWindow, "")) {
			p.influx.WriteEventCount(device.ID(), kind, count)
		}
	}

	if p.mqtt == nil {
		return
	}
	topics := mqtt.Topics{}

	if latest := device.Latest(""); latest.ID() != "" {
		p.publish(topics.DeviceEvent(device.ID()), latest)
	}

	p.publish(topics.DeviceStatus(device.ID()), map[string]any{
		"device_id": device.ID(),
		"name":      device.Name(),
		"type":      device.Type(),
		"status":    device.Status(),
		"up":        device.IsUp(),
		"wifi_link": device.WifiStatus(),
	})

	r, g, b := device.LEDColor()
	p.publish(topics.DeviceSettings(device.ID()), map[string]any{
		"device_id":        device.ID(),
		"do_not_disturb":   device.DoNotDisturb(),
		"do_not_ring":      device.DoNotRing(),
		"chime_level":      device.ChimeLevel(),
		"motion_sensor":    device.MotionSensor(),
		"motion_threshold": device.MotionThreshold(),
		"video_profile":    device.VideoProfile(),
		"led_color":        []int{r, g, b},
		"led_intensity":    device.LEDIntensity(),
	})
}

// publish marshals and publishes one retained message.
func (p *poller) publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.Error("encoding MQTT payload failed", "topic", topic, "error", err)
		return
	}
	if err := p.mqtt.PublishRetained(topic, data); err != nil {
		p.log.Warn("MQTT publish failed", "topic", topic, "error", err)
	}
}

// recordCycle writes the cycle telemetry point when InfluxDB is wired.
func (p *poller) recordCycle(devices int, duration time.Duration, failed bool) {
	if p.influx == nil {
		return
	}
	p.influx.WritePollCycle(devices, duration, failed)
}

// countByKind tallies activities per event kind.
func countByKind(activities []cloud.Event) map[string]int {
	counts := make(map[string]int)
	for _, activity := range activities {
		if kind := activity.Kind(); kind != "" {
			counts[kind]++
		}
	}
	return counts
}
