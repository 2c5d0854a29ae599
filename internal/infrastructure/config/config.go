package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/heatwarden/core/internal/device"
	"github.com/heatwarden/core/internal/schedule"
)

// Config is the root configuration structure for Heatwarden.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT        MQTTConfig                   `yaml:"mqtt"`
	Monitor     MonitorConfig                `yaml:"monitor"`
	Thermostats []ThermostatConfig           `yaml:"thermostats"`
	Types       map[string]TypeProfileConfig `yaml:"thermostat_types"`
	Database    DatabaseConfig               `yaml:"database"`
	InfluxDB    InfluxDBConfig               `yaml:"influxdb"`
	Logging     LoggingConfig                `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// BaseTopic is the zigbee2mqtt root all thermostat topics hang off.
	BaseTopic string `yaml:"base_topic"`
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

// MonitorConfig contains liveness and reconciliation settings.
// Interval and timeout values are in seconds.
type MonitorConfig struct {
	// BaseTopic is the root of the monitor's own query/reply topics.
	BaseTopic string `yaml:"base_topic"`

	// StalenessInterval is how often the staleness sweep runs.
	StalenessInterval int `yaml:"staleness_interval"`

	// StalenessThreshold is the maximum silence before a device counts
	// as unseen.
	StalenessThreshold int `yaml:"staleness_threshold"`

	// ReconcileTimeout bounds the reply collection window of one
	// reconciliation pass.
	ReconcileTimeout int `yaml:"reconcile_timeout"`

	// BatteryThreshold is the battery percentage below which reports are
	// annotated.
	BatteryThreshold float64 `yaml:"battery_threshold"`
}

// ThermostatConfig is one thermostat entry as written in YAML. Times are
// "HH:MM" strings; they are parsed during conversion, not load.
type ThermostatConfig struct {
	Name             string  `yaml:"name"`
	Type             string  `yaml:"type"`
	DayTime          string  `yaml:"day_time"`
	DayTemperature   float64 `yaml:"day_temperature"`
	NightTime        string  `yaml:"night_time"`
	NightTemperature float64 `yaml:"night_temperature"`
}

// TypeProfileConfig describes one thermostat model's payload shape.
// Entries merge over the built-in profiles, overriding on name collision.
type TypeProfileConfig struct {
	ModeFields     map[string]any `yaml:"mode_fields"`
	SchedulePrefix string         `yaml:"schedule_prefix"`
}

// DatabaseConfig contains SQLite sighting journal settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays is how long journalled sightings are kept before the
	// retention sweep deletes them. Zero disables the sweep.
	RetentionDays int `yaml:"retention_days"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HEATWARDEN_SECTION_KEY
// For example: HEATWARDEN_MQTT_HOST, HEATWARDEN_DATABASE_PATH
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
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "heatwarden-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			BaseTopic: "zigbee2mqtt",
		},
		Monitor: MonitorConfig{
			BaseTopic:          "thermostat_monitor",
			StalenessInterval:  300,
			StalenessThreshold: 3600,
			ReconcileTimeout:   10,
			BatteryThreshold:   20,
		},
		Database: DatabaseConfig{
			Enabled:       false,
			Path:          "./data/heatwarden.db",
			WALMode:       true,
			BusyTimeout:   5,
			RetentionDays: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HEATWARDEN_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("HEATWARDEN_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HEATWARDEN_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HEATWARDEN_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("HEATWARDEN_MQTT_BASE_TOPIC"); v != "" {
		cfg.MQTT.BaseTopic = v
	}

	// Monitor
	if v := os.Getenv("HEATWARDEN_MONITOR_BASE_TOPIC"); v != "" {
		cfg.Monitor.BaseTopic = v
	}

	// Database
	if v := os.Getenv("HEATWARDEN_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("HEATWARDEN_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// MQTT validation
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.BaseTopic == "" {
		errs = append(errs, "mqtt.base_topic is required")
	}

	// Monitor validation
	if c.Monitor.BaseTopic == "" {
		errs = append(errs, "monitor.base_topic is required")
	}
	if c.Monitor.StalenessInterval <= 0 {
		errs = append(errs, "monitor.staleness_interval must be positive")
	}
	if c.Monitor.StalenessThreshold <= 0 {
		errs = append(errs, "monitor.staleness_threshold must be positive")
	}
	if c.Monitor.ReconcileTimeout <= 0 {
		errs = append(errs, "monitor.reconcile_timeout must be positive")
	}

	// Thermostat validation. Time strings and type names are checked here
	// so a bad entry fails at startup, not mid-publish. Type names must
	// resolve against the merged registry (built-ins plus thermostat_types).
	knownTypes := make(map[string]bool)
	for name := range device.DefaultProfiles() {
		knownTypes[name] = true
	}
	for name := range c.Types {
		knownTypes[name] = true
	}

	seen := make(map[string]bool, len(c.Thermostats))
	for i, t := range c.Thermostats {
		prefix := fmt.Sprintf("thermostats[%d]", i)
		if t.Name == "" {
			errs = append(errs, prefix+".name is required")
			continue
		}
		if seen[t.Name] {
			errs = append(errs, fmt.Sprintf("%s.name %q is duplicated", prefix, t.Name))
		}
		seen[t.Name] = true

		switch {
		case t.Type == "":
			errs = append(errs, prefix+".type is required")
		case !knownTypes[t.Type]:
			errs = append(errs, fmt.Sprintf("%s.type %q has no registered profile", prefix, t.Type))
		}

		if _, err := schedule.ParseTimeOfDay(t.DayTime); err != nil {
			errs = append(errs, fmt.Sprintf("%s.day_time: %v", prefix, err))
		}
		if _, err := schedule.ParseTimeOfDay(t.NightTime); err != nil {
			errs = append(errs, fmt.Sprintf("%s.night_time: %v", prefix, err))
		}
		if t.DayTime != "" && t.DayTime == t.NightTime {
			errs = append(errs, fmt.Sprintf("%s: day_time and night_time are both %q", prefix, t.DayTime))
		}
	}

	// Type profile validation
	for name, p := range c.Types {
		if len(p.ModeFields) == 0 {
			errs = append(errs, fmt.Sprintf("thermostat_types.%s.mode_fields is required", name))
		}
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database.enabled is true")
	}
	if c.Database.RetentionDays < 0 {
		errs = append(errs, "database.retention_days must not be negative")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb.enabled is true")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb.enabled is true")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// DeviceThermostats converts the raw thermostat entries into domain values.
// Call after Validate; parse errors here mean Validate was skipped.
func (c *Config) DeviceThermostats() ([]device.Thermostat, error) {
	thermostats := make([]device.Thermostat, 0, len(c.Thermostats))
	for _, t := range c.Thermostats {
		day, err := schedule.ParseTimeOfDay(t.DayTime)
		if err != nil {
			return nil, fmt.Errorf("thermostat %q: %w", t.Name, err)
		}
		night, err := schedule.ParseTimeOfDay(t.NightTime)
		if err != nil {
			return nil, fmt.Errorf("thermostat %q: %w", t.Name, err)
		}
		thermostats = append(thermostats, device.Thermostat{
			Name:             t.Name,
			Type:             t.Type,
			DayTime:          day,
			DayTemperature:   t.DayTemperature,
			NightTime:        night,
			NightTemperature: t.NightTemperature,
		})
	}
	return thermostats, nil
}

// ProfileRegistry builds the type profile registry: built-in profiles
// merged with (and overridden by) the thermostat_types section.
func (c *Config) ProfileRegistry() (*device.ProfileRegistry, error) {
	profiles := device.DefaultProfiles()
	for name, p := range c.Types {
		profiles[name] = device.TypeProfile{
			ModeFields:     p.ModeFields,
			SchedulePrefix: p.SchedulePrefix,
		}
	}
	return device.NewProfileRegistry(profiles)
}

// GetStalenessInterval returns the staleness sweep interval as a Duration.
func (c *Config) GetStalenessInterval() time.Duration {
	return time.Duration(c.Monitor.StalenessInterval) * time.Second
}

// GetStalenessThreshold returns the staleness threshold as a Duration.
func (c *Config) GetStalenessThreshold() time.Duration {
	return time.Duration(c.Monitor.StalenessThreshold) * time.Second
}

// GetReconcileTimeout returns the reconciliation collection window as a Duration.
func (c *Config) GetReconcileTimeout() time.Duration {
	return time.Duration(c.Monitor.ReconcileTimeout) * time.Second
}

// GetRetention returns the journal retention period as a Duration.
// Zero means sightings are kept forever.
func (c *Config) GetRetention() time.Duration {
	return time.Duration(c.Database.RetentionDays) * 24 * time.Hour
}
