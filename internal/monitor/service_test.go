package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/heatwarden/core/internal/device"
	"github.com/heatwarden/core/internal/infrastructure/mqtt"
	"github.com/heatwarden/core/internal/schedule"
)

// =============================================================================
// Test Fixtures
// =============================================================================

var testTopics = mqtt.Topics{Base: "zigbee2mqtt", MonitorBase: "thermostat_monitor"}

// mustTime parses a HH:MM string or fails the test.
func mustTime(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	tod, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) error = %v", s, err)
	}
	return tod
}

func testThermostats(t *testing.T) []device.Thermostat {
	t.Helper()
	return []device.Thermostat{
		{
			Name:             "Bad OG",
			Type:             "ME167",
			DayTime:          mustTime(t, "05:30"),
			DayTemperature:   21,
			NightTime:        mustTime(t, "22:00"),
			NightTemperature: 17,
		},
		{
			Name:             "Wohnzimmer",
			Type:             "TR-M3Z",
			DayTime:          mustTime(t, "06:00"),
			DayTemperature:   21.5,
			NightTime:        mustTime(t, "23:00"),
			NightTemperature: 18,
		},
	}
}

func testBuilder(t *testing.T) *device.Builder {
	t.Helper()
	registry, err := device.NewProfileRegistry(device.DefaultProfiles())
	if err != nil {
		t.Fatalf("NewProfileRegistry() error = %v", err)
	}
	return device.NewBuilder(registry, testTopics.Base)
}

func testOptions(t *testing.T, client MQTTClient) Options {
	t.Helper()
	return Options{
		Client:             client,
		Topics:             testTopics,
		QoS:                1,
		Thermostats:        testThermostats(t),
		Builder:            testBuilder(t),
		StalenessInterval:  time.Hour,
		StalenessThreshold: time.Hour,
		ReconcileTimeout:   50 * time.Millisecond,
		BatteryThreshold:   20,
	}
}

// stubJournal records every sighting it is handed.
type stubJournal struct {
	mu     sync.Mutex
	names  []string
	states []any
	err    error
}

func (s *stubJournal) RecordSighting(_ context.Context, name string, _ time.Time, state any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.names = append(s.names, name)
	s.states = append(s.states, state)
	return nil
}

// stubTelemetry records state writes and staleness counts.
type stubTelemetry struct {
	mu     sync.Mutex
	states map[string]map[string]any
	counts []int
}

func newStubTelemetry() *stubTelemetry {
	return &stubTelemetry{states: make(map[string]map[string]any)}
}

func (s *stubTelemetry) WriteThermostatState(name string, state map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[name] = state
}

func (s *stubTelemetry) WriteStalenessCount(unseen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = append(s.counts, unseen)
}

// =============================================================================
// Construction Tests
// =============================================================================

func TestNewValidation(t *testing.T) {
	client := newFakeClient()

	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"valid", func(*Options) {}, nil},
		{"missing client", func(o *Options) { o.Client = nil }, ErrNoTransport},
		{"missing builder", func(o *Options) { o.Builder = nil }, ErrNoBuilder},
		{"no thermostats", func(o *Options) { o.Thermostats = nil }, ErrNoDevices},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(t, client)
			tt.mutate(&opts)

			_, err := New(opts)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("New() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// =============================================================================
// Subscription Tests
// =============================================================================

func TestStartSubscribes(t *testing.T) {
	client := newFakeClient()
	service, err := New(testOptions(t, client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	want := []string{
		"zigbee2mqtt/Bad OG Thermostat",
		"zigbee2mqtt/Wohnzimmer Thermostat",
		"thermostat_monitor",
		"thermostat_monitor/check",
	}
	for _, topic := range want {
		if !client.subscribedTo(topic) {
			t.Errorf("Start() did not subscribe to %q", topic)
		}
	}
}

func TestStartSubscribeFailure(t *testing.T) {
	client := newFakeClient()
	client.subscribeErr = errors.New("broker gone")

	service, err := New(testOptions(t, client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := service.Start(ctx); err == nil {
		t.Error("Start() expected error when subscribe fails")
	}
}

// =============================================================================
// State Stream Tests
// =============================================================================

func TestStateMessageUpdatesTrackerAndSinks(t *testing.T) {
	client := newFakeClient()
	journal := &stubJournal{}
	telemetry := newStubTelemetry()

	opts := testOptions(t, client)
	opts.Journal = journal
	opts.Telemetry = telemetry

	service, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	payload := []byte(`{"local_temperature": 19.5, "battery": 80}`)
	if !client.deliver("zigbee2mqtt/Bad OG Thermostat", payload) {
		t.Fatal("no handler for device state topic")
	}

	sighting, seen := service.Tracker().Snapshot("Bad OG")
	if !seen {
		t.Fatal("Snapshot() device not seen after state message")
	}
	state, ok := sighting.State.(map[string]any)
	if !ok || state["local_temperature"] != 19.5 {
		t.Errorf("tracked state = %v, want decoded map", sighting.State)
	}

	journal.mu.Lock()
	if len(journal.names) != 1 || journal.names[0] != "Bad OG" {
		t.Errorf("journal names = %v, want one Bad OG entry", journal.names)
	}
	journal.mu.Unlock()

	telemetry.mu.Lock()
	if _, ok := telemetry.states["Bad OG"]; !ok {
		t.Error("telemetry did not receive Bad OG state")
	}
	telemetry.mu.Unlock()
}

func TestStateMessageRawStringSkipsTelemetry(t *testing.T) {
	client := newFakeClient()
	journal := &stubJournal{}
	telemetry := newStubTelemetry()

	opts := testOptions(t, client)
	opts.Journal = journal
	opts.Telemetry = telemetry

	service, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client.deliver("zigbee2mqtt/Bad OG Thermostat", []byte("offline"))

	journal.mu.Lock()
	if len(journal.states) != 1 || journal.states[0] != "offline" {
		t.Errorf("journal states = %v, want raw string", journal.states)
	}
	journal.mu.Unlock()

	telemetry.mu.Lock()
	if len(telemetry.states) != 0 {
		t.Errorf("telemetry states = %v, want none for unstructured payload", telemetry.states)
	}
	telemetry.mu.Unlock()
}

// =============================================================================
// Query Protocol Tests
// =============================================================================

func TestQueryPublishesPerDeviceReplies(t *testing.T) {
	client := newFakeClient()
	service, err := New(testOptions(t, client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client.deliver("zigbee2mqtt/Bad OG Thermostat", []byte(`{"battery": 90}`))

	// Payload matching is case and whitespace insensitive.
	if !client.deliver("thermostat_monitor", []byte(" GET ")) {
		t.Fatal("no handler for monitor query topic")
	}

	seen := client.publications("thermostat_monitor/Bad OG")
	if len(seen) != 1 {
		t.Fatalf("got %d replies for Bad OG, want 1", len(seen))
	}
	var reply QueryReply
	if err := json.Unmarshal(seen[0].payload, &reply); err != nil {
		t.Fatalf("unmarshalling reply: %v", err)
	}
	if reply.LastSeen == nil {
		t.Error("seen device reply last_seen = nil, want timestamp")
	}
	if state, ok := reply.State.(map[string]any); !ok || state["battery"] != 90.0 {
		t.Errorf("seen device reply state = %v, want tracked map", reply.State)
	}

	unseen := client.publications("thermostat_monitor/Wohnzimmer")
	if len(unseen) != 1 {
		t.Fatalf("got %d replies for Wohnzimmer, want 1", len(unseen))
	}
	if err := json.Unmarshal(unseen[0].payload, &reply); err != nil {
		t.Fatalf("unmarshalling reply: %v", err)
	}
	if reply.LastSeen != nil || reply.State != nil {
		t.Errorf("never-seen reply = %+v, want null last_seen and state", reply)
	}
}

func TestQueryIgnoresOtherPayloads(t *testing.T) {
	client := newFakeClient()
	service, err := New(testOptions(t, client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	client.deliver("thermostat_monitor", []byte("status"))

	client.mu.Lock()
	defer client.mu.Unlock()
	if len(client.published) != 0 {
		t.Errorf("published %d messages for non-get payload, want 0", len(client.published))
	}
}

// =============================================================================
// Staleness Sweep Tests
// =============================================================================

func TestPublishStalenessSkipsWhenAllFresh(t *testing.T) {
	client := newFakeClient()
	telemetry := newStubTelemetry()

	opts := testOptions(t, client)
	opts.Telemetry = telemetry

	service, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.Tracker().Record("Bad OG", now, []byte(`{}`))
	service.Tracker().Record("Wohnzimmer", now, []byte(`{}`))

	service.publishStaleness(now.Add(30 * time.Minute))

	if pubs := client.publications("thermostat_monitor/staleness"); len(pubs) != 0 {
		t.Errorf("published %d staleness reports for fresh devices, want 0", len(pubs))
	}
	telemetry.mu.Lock()
	defer telemetry.mu.Unlock()
	if len(telemetry.counts) != 0 {
		t.Errorf("telemetry counts = %v, want none", telemetry.counts)
	}
}

func TestPublishStalenessReport(t *testing.T) {
	client := newFakeClient()
	telemetry := newStubTelemetry()

	opts := testOptions(t, client)
	opts.Telemetry = telemetry

	service, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	// Bad OG last seen two hours ago; Wohnzimmer never.
	service.Tracker().Record("Bad OG", now.Add(-2*time.Hour), []byte(`{}`))

	service.publishStaleness(now)

	pubs := client.publications("thermostat_monitor/staleness")
	if len(pubs) != 1 {
		t.Fatalf("got %d staleness reports, want 1", len(pubs))
	}

	var report StalenessReport
	if err := json.Unmarshal(pubs[0].payload, &report); err != nil {
		t.Fatalf("unmarshalling report: %v", err)
	}
	if report.Timestamp != now.Format(time.RFC3339) {
		t.Errorf("report timestamp = %q, want %q", report.Timestamp, now.Format(time.RFC3339))
	}
	if len(report.Unseen) != 2 {
		t.Fatalf("report has %d unseen devices, want 2", len(report.Unseen))
	}
	if report.Unseen[0].Name != "Bad OG" || report.Unseen[1].Name != "Wohnzimmer" {
		t.Errorf("unseen order = %v, want sorted by name", report.Unseen)
	}
	if report.Unseen[0].LastSeen == nil {
		t.Error("stale-but-seen device last_seen = nil, want timestamp")
	}
	if report.Unseen[1].LastSeen != nil {
		t.Error("never-seen device last_seen set, want null")
	}

	telemetry.mu.Lock()
	defer telemetry.mu.Unlock()
	if len(telemetry.counts) != 1 || telemetry.counts[0] != 2 {
		t.Errorf("telemetry counts = %v, want [2]", telemetry.counts)
	}
}

// =============================================================================
// Check Trigger Tests
// =============================================================================

func TestCheckTriggersSerialized(t *testing.T) {
	client := newFakeClient()
	service, err := New(testOptions(t, client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	// Two triggers in quick succession: the second lands while the first
	// pass is still collecting replies and must be dropped, so only one
	// query goes out.
	client.deliver("thermostat_monitor/check", []byte(""))
	client.deliver("thermostat_monitor/check", []byte(""))

	deadline := time.Now().Add(2 * time.Second)
	for len(client.publications("thermostat_monitor")) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("check trigger never published a query")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// Let the first pass's collection window (50ms in testOptions) elapse.
	time.Sleep(150 * time.Millisecond)
	if got := len(client.publications("thermostat_monitor")); got != 1 {
		t.Fatalf("got %d queries after double trigger, want 1", got)
	}

	// Once the pass finishes, a fresh trigger runs again.
	deadline = time.Now().Add(2 * time.Second)
	for len(client.publications("thermostat_monitor")) < 2 {
		client.deliver("thermostat_monitor/check", []byte(""))
		if time.Now().After(deadline) {
			t.Fatal("trigger after completed pass never ran")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCheckTopicTriggersQuery(t *testing.T) {
	client := newFakeClient()
	service, err := New(testOptions(t, client))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := service.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if !client.deliver("thermostat_monitor/check", []byte("")) {
		t.Fatal("no handler for check topic")
	}

	// The pass runs on its own goroutine; wait for the solicitation.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if pubs := client.publications("thermostat_monitor"); len(pubs) == 1 {
			if string(pubs[0].payload) != "get" {
				t.Fatalf("query payload = %q, want get", pubs[0].payload)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("check trigger never published a query")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
