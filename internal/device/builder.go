package device

import (
	"fmt"

	"github.com/heatwarden/core/internal/schedule"
)

// weekdays are the schedule key suffixes, in device payload order.
// The policy is not day-of-week-sensitive: every weekday carries the same
// generated schedule string.
var weekdays = [...]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// Builder composes a thermostat's expected configuration payload: the type
// profile's mode fields plus the generated schedule string keyed by weekday.
//
// Building is pure given the registry and base topic; it performs no I/O.
type Builder struct {
	profiles  *ProfileRegistry
	baseTopic string
}

// NewBuilder creates a Builder over the given profile registry.
//
// Parameters:
//   - profiles: Type profile registry (from config)
//   - baseTopic: MQTT base topic devices live under (e.g. "zigbee2mqtt")
func NewBuilder(profiles *ProfileRegistry, baseTopic string) *Builder {
	return &Builder{
		profiles:  profiles,
		baseTopic: baseTopic,
	}
}

// Build returns the expected configuration payload for t and the command
// topic it is published to.
//
// Returns:
//   - Payload: Mode fields plus schedule_{weekday} keys, all weekdays equal
//   - string: Command topic ("{base}/{name} Thermostat/set")
//   - error: ErrInvalidName, ErrUnknownType, or a schedule generation error,
//     each wrapped with the device name
func (b *Builder) Build(t Thermostat) (Payload, string, error) {
	if t.Name == "" {
		return nil, "", ErrInvalidName
	}

	profile, err := b.profiles.Resolve(t.Type)
	if err != nil {
		return nil, "", fmt.Errorf("thermostat %q: %w", t.Name, err)
	}

	sched, err := schedule.Generate(t.DayTime, t.DayTemperature, t.NightTime, t.NightTemperature)
	if err != nil {
		return nil, "", fmt.Errorf("thermostat %q: %w", t.Name, err)
	}
	scheduleString := sched.String()

	payload := make(Payload, len(profile.ModeFields)+len(weekdays))
	for key, value := range profile.ModeFields {
		payload[key] = value
	}
	for _, weekday := range weekdays {
		payload[profile.SchedulePrefix+"_"+weekday] = scheduleString
	}

	return payload, CommandTopic(b.baseTopic, t.Name), nil
}
