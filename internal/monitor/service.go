package monitor

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/heatwarden/core/internal/device"
	"github.com/heatwarden/core/internal/infrastructure/mqtt"
	"github.com/heatwarden/core/internal/liveness"
)

// queryPayload is the trigger payload the monitor answers on its base topic.
const queryPayload = "get"

// MQTTClient is the transport surface the monitor needs.
// *mqtt.Client satisfies it; tests use a fake.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger is the logging surface the monitor needs.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger discards everything. Used when no logger is configured.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// JournalSink receives every decoded sighting. Optional.
// *history.Journal satisfies it.
type JournalSink interface {
	RecordSighting(ctx context.Context, name string, at time.Time, state any) error
}

// TelemetrySink receives numeric telemetry. Optional.
// *influxdb.Client satisfies it.
type TelemetrySink interface {
	WriteThermostatState(name string, state map[string]any)
	WriteStalenessCount(unseen int)
}

// Options configures a Service.
type Options struct {
	// Client is the connected MQTT transport. Required.
	Client MQTTClient

	// Topics holds the configured topic bases.
	Topics mqtt.Topics

	// QoS for all monitor publishes and subscriptions.
	QoS byte

	// Thermostats are the devices to watch. Required, non-empty.
	Thermostats []device.Thermostat

	// Builder produces expected payloads for reconciliation. Required.
	Builder *device.Builder

	// StalenessInterval is how often the staleness sweep runs.
	StalenessInterval time.Duration

	// StalenessThreshold is the maximum silence before a device is stale.
	StalenessThreshold time.Duration

	// ReconcileTimeout bounds the reply collection window of a check.
	ReconcileTimeout time.Duration

	// BatteryThreshold is the level below which reports are annotated.
	BatteryThreshold float64

	// Logger receives operational logs. Optional.
	Logger Logger

	// Journal receives every sighting. Optional.
	Journal JournalSink

	// Telemetry receives numeric state fields and sweep sizes. Optional.
	Telemetry TelemetrySink
}

// Service is the long-running monitor: it owns the liveness tracker and
// the subscriptions feeding it.
type Service struct {
	client  MQTTClient
	topics  mqtt.Topics
	qos     byte
	devices []device.Thermostat
	builder *device.Builder
	tracker *liveness.Tracker

	stalenessInterval  time.Duration
	stalenessThreshold time.Duration
	reconcileTimeout   time.Duration
	batteryThreshold   float64

	logger    Logger
	journal   JournalSink
	telemetry TelemetrySink

	checkInFlight atomic.Bool
}

// StalenessReport is the payload published when devices have gone quiet.
type StalenessReport struct {
	Timestamp string         `json:"timestamp"`
	Unseen    []UnseenDevice `json:"unseen"`
}

// UnseenDevice is one silent device in a staleness report.
// LastSeen is null for devices never heard from at all.
type UnseenDevice struct {
	Name     string  `json:"name"`
	LastSeen *string `json:"last_seen"`
}

// QueryReply is the per-device answer to a "get" query.
// LastSeen is null and State is null for never-seen devices.
type QueryReply struct {
	LastSeen *string `json:"last_seen"`
	State    any     `json:"state"`
}

// New creates a Service from the given options.
//
// Returns:
//   - *Service: Ready for Start
//   - error: ErrNoTransport, ErrNoBuilder or ErrNoDevices on missing options
func New(opts Options) (*Service, error) {
	if opts.Client == nil {
		return nil, ErrNoTransport
	}
	if opts.Builder == nil {
		return nil, ErrNoBuilder
	}
	if len(opts.Thermostats) == 0 {
		return nil, ErrNoDevices
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	names := make([]string, len(opts.Thermostats))
	for i, t := range opts.Thermostats {
		names[i] = t.Name
	}

	return &Service{
		client:             opts.Client,
		topics:             opts.Topics,
		qos:                opts.QoS,
		devices:            opts.Thermostats,
		builder:            opts.Builder,
		tracker:            liveness.NewTracker(names),
		stalenessInterval:  opts.StalenessInterval,
		stalenessThreshold: opts.StalenessThreshold,
		reconcileTimeout:   opts.ReconcileTimeout,
		batteryThreshold:   opts.BatteryThreshold,
		logger:             logger,
		journal:            opts.Journal,
		telemetry:          opts.Telemetry,
	}, nil
}

// Tracker exposes the liveness table for read-only inspection.
func (s *Service) Tracker() *liveness.Tracker {
	return s.tracker
}

// Start subscribes to all device and monitor topics and launches the
// staleness sweep. It returns once subscriptions are established; the
// sweep runs until ctx is cancelled.
//
// Parameters:
//   - ctx: Governs the staleness sweep and any triggered check passes
//
// Returns:
//   - error: The first subscription failure
func (s *Service) Start(ctx context.Context) error {
	for _, t := range s.devices {
		name := t.Name
		topic := s.topics.DeviceState(device.DisplayName(name))
		handler := func(_ string, payload []byte) error {
			s.onStateMessage(ctx, name, payload)
			return nil
		}
		if err := s.client.Subscribe(topic, s.qos, handler); err != nil {
			return err
		}
	}

	if err := s.client.Subscribe(s.topics.MonitorQuery(), s.qos, s.onQuery); err != nil {
		return err
	}

	if err := s.client.Subscribe(s.topics.MonitorCheck(), s.qos, func(_ string, _ []byte) error {
		// One pass at a time: concurrent passes would fight over the shared
		// reply subscription.
		if !s.checkInFlight.CompareAndSwap(false, true) {
			s.logger.Debug("reconciliation pass already running, trigger ignored")
			return nil
		}
		go func() {
			defer s.checkInFlight.Store(false)
			s.runCheck(ctx)
		}()
		return nil
	}); err != nil {
		return err
	}

	go s.stalenessLoop(ctx)

	s.logger.Info("monitor started",
		"devices", len(s.devices),
		"staleness_interval", s.stalenessInterval,
		"staleness_threshold", s.stalenessThreshold,
	)
	return nil
}

// onStateMessage records a sighting of the named device.
func (s *Service) onStateMessage(ctx context.Context, name string, payload []byte) {
	now := time.Now().UTC()
	state := s.tracker.Record(name, now, payload)

	s.logger.Debug("state message", "device", name)

	if s.journal != nil {
		if err := s.journal.RecordSighting(ctx, name, now, state); err != nil {
			s.logger.Warn("journal write failed", "device", name, "error", err)
		}
	}

	if s.telemetry != nil {
		if m, ok := state.(map[string]any); ok {
			s.telemetry.WriteThermostatState(name, m)
		}
	}
}

// onQuery answers a "get" on the monitor base topic with one reply per
// configured device on its own reply topic. Other payloads are ignored.
func (s *Service) onQuery(_ string, payload []byte) error {
	if strings.ToLower(strings.TrimSpace(string(payload))) != queryPayload {
		return nil
	}

	for _, t := range s.devices {
		reply := s.buildReply(t.Name)
		data, err := json.Marshal(reply)
		if err != nil {
			s.logger.Error("marshalling query reply", "device", t.Name, "error", err)
			continue
		}
		if err := s.client.Publish(s.topics.MonitorReply(t.Name), data, s.qos, false); err != nil {
			s.logger.Warn("publishing query reply", "device", t.Name, "error", err)
		}
	}
	return nil
}

// buildReply snapshots one device's liveness state.
func (s *Service) buildReply(name string) QueryReply {
	sighting, seen := s.tracker.Snapshot(name)
	if !seen {
		return QueryReply{}
	}
	lastSeen := sighting.LastSeen.Format(time.RFC3339)
	return QueryReply{LastSeen: &lastSeen, State: sighting.State}
}

// stalenessLoop publishes staleness reports on a fixed interval until ctx
// is cancelled.
func (s *Service) stalenessLoop(ctx context.Context) {
	ticker := time.NewTicker(s.stalenessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("staleness sweep stopped")
			return
		case now := <-ticker.C:
			s.publishStaleness(now.UTC())
		}
	}
}

// publishStaleness derives the staleness report for now and publishes it
// when non-empty.
func (s *Service) publishStaleness(now time.Time) {
	stale := s.tracker.Stale(now, s.stalenessThreshold)
	if len(stale) == 0 {
		s.logger.Debug("staleness sweep clean")
		return
	}

	report := StalenessReport{
		Timestamp: now.Format(time.RFC3339),
		Unseen:    make([]UnseenDevice, 0, len(stale)),
	}
	for _, name := range stale {
		entry := UnseenDevice{Name: name}
		if sighting, seen := s.tracker.Snapshot(name); seen {
			lastSeen := sighting.LastSeen.Format(time.RFC3339)
			entry.LastSeen = &lastSeen
		}
		report.Unseen = append(report.Unseen, entry)
	}

	data, err := json.Marshal(report)
	if err != nil {
		s.logger.Error("marshalling staleness report", "error", err)
		return
	}

	if err := s.client.Publish(s.topics.MonitorStaleness(), data, s.qos, false); err != nil {
		s.logger.Warn("publishing staleness report", "error", err)
		return
	}

	s.logger.Warn("devices unseen", "count", len(stale), "devices", stale)

	if s.telemetry != nil {
		s.telemetry.WriteStalenessCount(len(stale))
	}
}

// runCheck performs a reconciliation pass using the tracker's own data
// and logs the outcome. Triggered by a message on the check topic.
func (s *Service) runCheck(ctx context.Context) {
	checker := &Checker{
		Client:           s.client,
		Topics:           s.topics,
		QoS:              s.qos,
		Thermostats:      s.devices,
		Builder:          s.builder,
		Window:           s.reconcileTimeout,
		BatteryThreshold: s.batteryThreshold,
		Logger:           s.logger,
	}

	results, err := checker.Run(ctx)
	if err != nil {
		s.logger.Error("reconciliation pass failed", "error", err)
		return
	}

	for _, r := range results {
		switch {
		case r.Err != nil:
			s.logger.Error("device pass failed", "device", r.Name, "error", r.Err)
		case r.Report.Empty() && r.Battery == "":
			s.logger.Info("device in sync", "device", r.Name)
		case r.Report.Empty():
			s.logger.Warn("device in sync", "device", r.Name, "battery", r.Battery)
		default:
			s.logger.Warn("device drifted",
				"device", r.Name,
				"mismatched_keys", r.Report.Keys(),
				"battery", r.Battery,
			)
		}
	}
}
