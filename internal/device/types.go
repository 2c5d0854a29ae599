package device

import (
	"github.com/heatwarden/core/internal/schedule"
)

// displayNameSuffix is appended to a thermostat's config name to form the
// zigbee2mqtt friendly name its topics are keyed by.
const displayNameSuffix = " Thermostat"

// Thermostat is one configured device: a day/night set point policy plus a
// reference to the type profile describing its payload shape.
type Thermostat struct {
	// Name is the unique config key ("Bad OG", "Wohnzimmer", ...).
	Name string

	// DayTime is when the day period starts; must differ from NightTime.
	DayTime        schedule.TimeOfDay
	DayTemperature float64

	// NightTime is when the night period starts.
	NightTime        schedule.TimeOfDay
	NightTemperature float64

	// Type names the profile in the ProfileRegistry ("VNTH-T2_v2", ...).
	Type string
}

// TypeProfile is the payload template for one thermostat model: the fields
// that switch it into schedule mode, and the key prefix its per-weekday
// schedule strings are stored under.
type TypeProfile struct {
	// ModeFields are applied verbatim to the expected payload. Must be
	// non-empty.
	ModeFields map[string]any

	// SchedulePrefix defaults to "schedule", giving keys schedule_monday
	// through schedule_sunday.
	SchedulePrefix string
}

// Payload is a device configuration payload as published over MQTT.
type Payload map[string]any

// DisplayName returns the device's topic-facing friendly name.
// The transform is fixed: the config key plus a " Thermostat" suffix.
func DisplayName(name string) string {
	return name + displayNameSuffix
}

// StateTopic returns the topic a device reports its state on.
//
// Example: zigbee2mqtt/Bad OG Thermostat
func StateTopic(baseTopic, name string) string {
	return baseTopic + "/" + DisplayName(name)
}

// CommandTopic returns the topic a device accepts configuration on.
//
// Example: zigbee2mqtt/Bad OG Thermostat/set
func CommandTopic(baseTopic, name string) string {
	return StateTopic(baseTopic, name) + "/set"
}
