package monitor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/heatwarden/core/internal/device"
)

// Apply pushes every thermostat's expected configuration to its command
// topic. Each device is attempted even when an earlier one fails.
//
// Parameters:
//   - client: Connected MQTT transport
//   - qos: QoS for command publishes
//   - thermostats: Devices to configure
//   - builder: Expected payload builder, also supplies the command topics
//   - logger: Receives per-device progress, may be nil
//
// Returns:
//   - error: The joined errors of all failed devices, nil when all succeed
func Apply(client MQTTClient, qos byte, thermostats []device.Thermostat, builder *device.Builder, logger Logger) error {
	if client == nil {
		return ErrNoTransport
	}
	if builder == nil {
		return ErrNoBuilder
	}
	if len(thermostats) == 0 {
		return ErrNoDevices
	}
	if logger == nil {
		logger = noopLogger{}
	}

	var errs []error
	for _, t := range thermostats {
		payload, topic, err := builder.Build(t)
		if err != nil {
			errs = append(errs, fmt.Errorf("building payload for %s: %w", t.Name, err))
			continue
		}

		data, err := json.Marshal(payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("marshalling payload for %s: %w", t.Name, err))
			continue
		}

		if err := client.Publish(topic, data, qos, false); err != nil {
			errs = append(errs, fmt.Errorf("publishing to %s: %w", topic, err))
			continue
		}

		logger.Info("configuration applied", "device", t.Name, "topic", topic)
	}

	return errors.Join(errs...)
}
