package monitor

import "errors"

// Sentinel errors for monitor construction and operation.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNoTransport is returned when a Service or Checker is built
	// without an MQTT client.
	ErrNoTransport = errors.New("monitor: transport client is required")

	// ErrNoBuilder is returned when a payload builder is missing.
	ErrNoBuilder = errors.New("monitor: payload builder is required")

	// ErrNoDevices is returned when no thermostats are configured.
	ErrNoDevices = errors.New("monitor: no thermostats configured")
)
