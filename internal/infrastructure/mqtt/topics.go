package mqtt

import "fmt"

// TopicPrefixSystem is the base for Heatwarden's own status topics.
// Device and monitor topics are configurable; this one is fixed so
// operators always know where to find the service status.
const TopicPrefixSystem = "heatwarden/system"

// Topics provides builders for Heatwarden MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
// Device topics hang off the zigbee2mqtt base topic and are keyed by the
// device's display name. Monitor topics hang off the monitor base topic
// and are keyed by the config name:
//
//	topics := mqtt.Topics{Base: "zigbee2mqtt", MonitorBase: "thermostat_monitor"}
//	topics.DeviceCommand("Bad OG Thermostat")
//	// Returns: "zigbee2mqtt/Bad OG Thermostat/set"
type Topics struct {
	// Base is the zigbee2mqtt root topic.
	Base string

	// MonitorBase is the root of the monitor's query/reply topics.
	MonitorBase string
}

// =============================================================================
// Device Topics
// =============================================================================

// DeviceState returns the topic a device reports its state on.
//
// Example: zigbee2mqtt/Bad OG Thermostat
func (t Topics) DeviceState(displayName string) string {
	return fmt.Sprintf("%s/%s", t.Base, displayName)
}

// DeviceCommand returns the topic a device accepts configuration on.
//
// Example: zigbee2mqtt/Bad OG Thermostat/set
func (t Topics) DeviceCommand(displayName string) string {
	return fmt.Sprintf("%s/%s/set", t.Base, displayName)
}

// =============================================================================
// Monitor Topics
// =============================================================================

// MonitorQuery returns the topic the monitor listens on for "get" queries
// and reconciliation triggers.
//
// Example: thermostat_monitor
func (t Topics) MonitorQuery() string {
	return t.MonitorBase
}

// MonitorReply returns the per-device reply topic for liveness queries.
// Keyed by config name, not display name.
//
// Example: thermostat_monitor/Bad OG
func (t Topics) MonitorReply(name string) string {
	return fmt.Sprintf("%s/%s", t.MonitorBase, name)
}

// MonitorStaleness returns the topic staleness reports are published on.
//
// Example: thermostat_monitor/staleness
func (t Topics) MonitorStaleness() string {
	return fmt.Sprintf("%s/staleness", t.MonitorBase)
}

// MonitorCheck returns the topic that triggers a reconciliation pass.
//
// Example: thermostat_monitor/check
func (t Topics) MonitorCheck() string {
	return fmt.Sprintf("%s/check", t.MonitorBase)
}

// AllMonitorReplies returns a pattern matching every per-device reply.
//
// Pattern: thermostat_monitor/+
func (t Topics) AllMonitorReplies() string {
	return fmt.Sprintf("%s/+", t.MonitorBase)
}

// =============================================================================
// System Topics
// =============================================================================

// SystemStatus returns the service status topic, also used for the LWT.
//
// Example: heatwarden/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}
