// Package device holds the thermostat catalogue for Heatwarden: the
// per-device day/night policy, the per-model type profiles, and the
// Expected-Payload Builder that turns both into the full zigbee2mqtt
// configuration payload a device should be running.
//
// # Key Types
//
//   - Thermostat: one configured device (name, day/night set points, type)
//   - TypeProfile: per-model payload template (mode fields, schedule prefix)
//   - ProfileRegistry: resolves a type name to its profile
//   - Builder: composes profile + generated schedule into the expected
//     payload and the command topic it is published to
//
// # Usage
//
//	profiles, err := device.NewProfileRegistry(device.DefaultProfiles())
//	builder := device.NewBuilder(profiles, "zigbee2mqtt")
//	payload, topic, err := builder.Build(thermostat)
//	// topic == "zigbee2mqtt/Bad OG Thermostat/set"
//
// Building is pure: no I/O, no ambient registries. Errors are
// configuration-time errors and should halt startup for the affected
// device rather than be silently skipped.
package device
