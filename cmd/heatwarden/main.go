// Heatwarden Core - Thermostat Schedule Monitor
//
// This is the main entry point for the Heatwarden Core application.
// Heatwarden derives daily heating schedules from a day/night set point
// policy, pushes them to zigbee2mqtt thermostats, and watches the devices
// for drift and silence.
//
// Modes:
//   - default:  run the long-lived monitor service
//   - -apply:   push every thermostat's expected configuration, then exit
//   - -check:   run one reconciliation pass, print the results, then exit
//   - -history: print a device's recent journalled sightings, then exit
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/heatwarden/core/migrations"

	"github.com/heatwarden/core/internal/device"
	"github.com/heatwarden/core/internal/history"
	"github.com/heatwarden/core/internal/infrastructure/config"
	"github.com/heatwarden/core/internal/infrastructure/database"
	"github.com/heatwarden/core/internal/infrastructure/influxdb"
	"github.com/heatwarden/core/internal/infrastructure/logging"
	"github.com/heatwarden/core/internal/infrastructure/mqtt"
	"github.com/heatwarden/core/internal/monitor"
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

// retentionSweepInterval is how often the journal retention sweep runs.
const retentionSweepInterval = 6 * time.Hour

func main() {
	configPath := flag.String("config", "", "path to config file (default configs/config.yaml, or HEATWARDEN_CONFIG)")
	applyMode := flag.Bool("apply", false, "push every thermostat's expected configuration and exit")
	checkMode := flag.Bool("check", false, "run one reconciliation pass, print results and exit")
	historyDevice := flag.String("history", "", "print recent journalled sightings for the named device and exit")
	flag.Parse()

	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, *configPath, *applyMode, *checkMode, *historyDevice); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: Config file path from the -config flag, may be empty
//   - applyMode: Push expected configuration and exit
//   - checkMode: Run one reconciliation pass and exit
//   - historyDevice: When non-empty, print this device's sightings and exit
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string, applyMode, checkMode bool, historyDevice string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Heatwarden Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	if configPath == "" {
		configPath = getConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// History mode needs only the journal, not the broker.
	if historyDevice != "" {
		return runHistory(ctx, cfg, historyDevice, log)
	}

	// Assemble the device layer from config
	thermostats, err := cfg.DeviceThermostats()
	if err != nil {
		return fmt.Errorf("loading thermostats: %w", err)
	}
	registry, err := cfg.ProfileRegistry()
	if err != nil {
		return fmt.Errorf("building profile registry: %w", err)
	}
	builder := device.NewBuilder(registry, cfg.MQTT.BaseTopic)
	log.Info("thermostats configured", "count", len(thermostats), "types", registry.Types())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
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
	mqttClient.SetLogger(log)

	topics := mqtt.Topics{
		Base:        cfg.MQTT.BaseTopic,
		MonitorBase: cfg.Monitor.BaseTopic,
	}
	qos := byte(cfg.MQTT.QoS)

	// One-shot modes exit before any service wiring.
	if applyMode {
		log.Info("applying expected configuration", "devices", len(thermostats))
		return monitor.Apply(mqttClient, qos, thermostats, builder, log)
	}
	if checkMode {
		return runCheck(ctx, mqttClient, topics, qos, thermostats, builder, cfg, log)
	}

	return runService(ctx, mqttClient, topics, qos, thermostats, builder, cfg, log)
}

// runCheck executes one reconciliation pass and prints the results as JSON.
func runCheck(ctx context.Context, client *mqtt.Client, topics mqtt.Topics, qos byte, thermostats []device.Thermostat, builder *device.Builder, cfg *config.Config, log *logging.Logger) error {
	checker := &monitor.Checker{
		Client:           client,
		Topics:           topics,
		QoS:              qos,
		Thermostats:      thermostats,
		Builder:          builder,
		Window:           cfg.GetReconcileTimeout(),
		BatteryThreshold: cfg.Monitor.BatteryThreshold,
		Logger:           log,
	}

	log.Info("running reconciliation pass", "window", checker.Window)
	results, err := checker.Run(ctx)
	if err != nil {
		return fmt.Errorf("reconciliation pass: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}

	drifted, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			log.Error("device pass failed", "device", r.Name, "error", r.Err)
		case !r.Report.Empty():
			drifted++
		}
	}
	log.Info("reconciliation pass complete", "devices", len(results), "drifted", drifted, "failed", failed)
	return nil
}

// runHistory prints a device's recent journalled sightings as JSON.
func runHistory(ctx context.Context, cfg *config.Config, name string, log *logging.Logger) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("sighting journal is disabled (set database.enabled)")
	}

	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	sightings, err := history.NewJournal(db.DB).GetHistory(ctx, name, 0)
	if err != nil {
		return fmt.Errorf("querying sightings: %w", err)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(sightings); err != nil {
		return fmt.Errorf("encoding sightings: %w", err)
	}

	log.Info("history printed", "device", name, "sightings", len(sightings))
	return nil
}

// runService wires the optional sinks and runs the monitor until shutdown.
func runService(ctx context.Context, client *mqtt.Client, topics mqtt.Topics, qos byte, thermostats []device.Thermostat, builder *device.Builder, cfg *config.Config, log *logging.Logger) error {
	// Open database (optional sighting journal)
	var journal *history.Journal
	var db *database.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("sighting journal enabled", "path", cfg.Database.Path)

		journal = history.NewJournal(db.DB)

		if retention := cfg.GetRetention(); retention > 0 {
			go journal.RunRetention(ctx, retentionSweepInterval, retention, log)
			log.Info("retention sweep started", "retention_days", cfg.Database.RetentionDays)
		}
	} else {
		log.Info("sighting journal disabled")
	}

	// Connect to InfluxDB (optional telemetry)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		var err error
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

	opts := monitor.Options{
		Client:             client,
		Topics:             topics,
		QoS:                qos,
		Thermostats:        thermostats,
		Builder:            builder,
		StalenessInterval:  cfg.GetStalenessInterval(),
		StalenessThreshold: cfg.GetStalenessThreshold(),
		ReconcileTimeout:   cfg.GetReconcileTimeout(),
		BatteryThreshold:   cfg.Monitor.BatteryThreshold,
		Logger:             log,
	}
	if journal != nil {
		opts.Journal = journal
	}
	if influxClient != nil {
		opts.Telemetry = influxClient
	}

	service, err := monitor.New(opts)
	if err != nil {
		return fmt.Errorf("creating monitor: %w", err)
	}
	if err := service.Start(ctx); err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, client, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. Database (if enabled)
	// 3. MQTT

	log.Info("Heatwarden Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HEATWARDEN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HEATWARDEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check (may be nil if disabled)
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
