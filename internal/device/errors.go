package device

import "errors"

// Domain errors for the device package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnknownType is returned when a thermostat references a type name
	// with no registered profile.
	ErrUnknownType = errors.New("device: unknown thermostat type")

	// ErrInvalidProfile is returned when a type profile has no mode fields.
	// A profile that sets nothing cannot put a device into schedule mode.
	ErrInvalidProfile = errors.New("device: invalid type profile")

	// ErrInvalidName is returned when a thermostat name is empty.
	ErrInvalidName = errors.New("device: thermostat name is required")
)
