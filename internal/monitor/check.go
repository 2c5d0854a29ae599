package monitor

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/heatwarden/core/internal/device"
	"github.com/heatwarden/core/internal/infrastructure/mqtt"
	"github.com/heatwarden/core/internal/reconcile"
)

// Reply topic segments that never name a device.
var reservedSegments = map[string]bool{
	"staleness": true,
	"check":     true,
}

// Checker runs one reconciliation pass: solicit liveness replies, collect
// them for a bounded window, then compare each device's reported state
// against its expected configuration payload.
type Checker struct {
	Client           MQTTClient
	Topics           mqtt.Topics
	QoS              byte
	Thermostats      []device.Thermostat
	Builder          *device.Builder
	Window           time.Duration
	BatteryThreshold float64
	Logger           Logger
}

// Result is one device's outcome from a reconciliation pass.
type Result struct {
	// Name is the device's config name.
	Name string `json:"name"`

	// LastSeen is the reply's last_seen value, nil when the device never
	// replied or has never been seen.
	LastSeen *string `json:"last_seen"`

	// Battery is the battery annotation, empty when the battery is healthy.
	Battery string `json:"battery,omitempty"`

	// Report lists the keys where reported state drifts from expected.
	Report reconcile.Report `json:"report"`

	// Err is set when this device's expected payload could not be built
	// (unknown type, bad config). Other devices are unaffected.
	Err error `json:"-"`
}

// Run executes the pass. A device that does not reply within the window is
// reconciled against an absent report, so every expected key shows up as
// reported absent.
//
// Parameters:
//   - ctx: Cancels the collection window early
//
// Returns:
//   - []Result: One result per configured device, sorted by name
//   - error: Transport failures establishing the pass
func (c *Checker) Run(ctx context.Context) ([]Result, error) {
	if c.Client == nil {
		return nil, ErrNoTransport
	}
	if c.Builder == nil {
		return nil, ErrNoBuilder
	}
	if len(c.Thermostats) == 0 {
		return nil, ErrNoDevices
	}

	logger := c.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	var mu sync.Mutex
	replies := make(map[string][]byte)

	replyTopic := c.Topics.AllMonitorReplies()
	handler := func(topic string, payload []byte) error {
		name := topic[strings.LastIndex(topic, "/")+1:]
		if reservedSegments[name] {
			return nil
		}
		data := make([]byte, len(payload))
		copy(data, payload)
		mu.Lock()
		replies[name] = data
		mu.Unlock()
		return nil
	}

	if err := c.Client.Subscribe(replyTopic, c.QoS, handler); err != nil {
		return nil, err
	}
	defer func() {
		if err := c.Client.Unsubscribe(replyTopic); err != nil {
			logger.Warn("unsubscribing from reply topic", "topic", replyTopic, "error", err)
		}
	}()

	if err := c.Client.Publish(c.Topics.MonitorQuery(), []byte(queryPayload), c.QoS, false); err != nil {
		return nil, err
	}

	select {
	case <-time.After(c.Window):
	case <-ctx.Done():
	}

	mu.Lock()
	collected := make(map[string][]byte, len(replies))
	for name, data := range replies {
		collected[name] = data
	}
	mu.Unlock()

	logger.Debug("reply collection finished", "replies", len(collected))

	results := make([]Result, 0, len(c.Thermostats))
	for _, t := range c.Thermostats {
		results = append(results, c.evaluate(t, collected[t.Name]))
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results, nil
}

// evaluate reconciles one device against its collected reply, if any.
// A device whose expected payload cannot be built carries the error in its
// own result; it never fails the pass for the others.
func (c *Checker) evaluate(t device.Thermostat, raw []byte) Result {
	result := Result{Name: t.Name}

	expected, _, err := c.Builder.Build(t)
	if err != nil {
		result.Err = err
		return result
	}

	var reported any
	if raw != nil {
		var reply QueryReply
		if err := json.Unmarshal(raw, &reply); err == nil {
			result.LastSeen = reply.LastSeen
			reported = reply.State
		}
	}

	result.Report = reconcile.Reconcile(expected, reported)
	result.Battery = reconcile.BatteryAnnotation(reported, c.BatteryThreshold)
	return result
}
