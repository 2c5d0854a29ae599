package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// thermostatFields are the reported state keys recorded as telemetry.
// Everything else a thermostat reports (modes, schedule strings) is
// non-numeric and charts poorly.
var thermostatFields = []string{
	"local_temperature",
	"current_heating_setpoint",
	"occupied_heating_setpoint",
	"battery",
}

// WriteThermostatState extracts numeric telemetry from a device's reported
// state and writes it as a single point.
//
// The write is non-blocking; data is batched and sent asynchronously.
// States with no recordable fields are skipped entirely.
//
// Parameters:
//   - name: The thermostat's config name (tag, low cardinality)
//   - state: The decoded reported state
//
// Example:
//
//	client.WriteThermostatState("Bad OG", map[string]any{
//	    "local_temperature": 20.4,
//	    "battery":           85.0,
//	})
func (c *Client) WriteThermostatState(name string, state map[string]any) {
	if !c.IsConnected() {
		return
	}

	fields := make(map[string]interface{})
	for _, key := range thermostatFields {
		if v, ok := state[key].(float64); ok {
			fields[key] = v
		}
	}
	if len(fields) == 0 {
		return
	}

	point := write.NewPoint(
		"thermostat_state",
		map[string]string{
			"device": name,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteStalenessCount records the size of a staleness report.
//
// One point per sweep keeps a history of how many devices were silent,
// which makes flapping devices visible over time.
//
// Parameters:
//   - unseen: Number of devices in the staleness report
func (c *Client) WriteStalenessCount(unseen int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"staleness",
		nil,
		map[string]interface{}{
			"unseen": unseen,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
