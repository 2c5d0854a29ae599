package device

import (
	"fmt"
	"sort"
)

// defaultSchedulePrefix is used when a profile does not set one.
const defaultSchedulePrefix = "schedule"

// ProfileRegistry resolves thermostat type names to their profiles.
//
// The registry is immutable after construction; it is built once from
// configuration and passed explicitly to whoever needs it. Resolution has
// no side effects.
type ProfileRegistry struct {
	profiles map[string]TypeProfile
}

// NewProfileRegistry builds a registry from the given profiles.
//
// Each profile is validated (non-empty mode fields) and given the default
// schedule prefix if none is set.
//
// Returns:
//   - *ProfileRegistry: Ready for Resolve calls
//   - error: ErrInvalidProfile (wrapped with the type name) on the first
//     profile with no mode fields
func NewProfileRegistry(profiles map[string]TypeProfile) (*ProfileRegistry, error) {
	reg := &ProfileRegistry{
		profiles: make(map[string]TypeProfile, len(profiles)),
	}

	for name, profile := range profiles {
		if len(profile.ModeFields) == 0 {
			return nil, fmt.Errorf("%w: %q has no mode fields", ErrInvalidProfile, name)
		}
		if profile.SchedulePrefix == "" {
			profile.SchedulePrefix = defaultSchedulePrefix
		}
		reg.profiles[name] = profile
	}

	return reg, nil
}

// Resolve returns the profile registered under typeName.
//
// Returns ErrUnknownType (wrapped with the type name) when no profile is
// registered.
func (r *ProfileRegistry) Resolve(typeName string) (TypeProfile, error) {
	profile, ok := r.profiles[typeName]
	if !ok {
		return TypeProfile{}, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return profile, nil
}

// Types returns the registered type names, sorted.
func (r *ProfileRegistry) Types() []string {
	names := make([]string, 0, len(r.profiles))
	for name := range r.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultProfiles returns the built-in profiles for the thermostat models
// Heatwarden ships support for. Config may override or extend these.
func DefaultProfiles() map[string]TypeProfile {
	return map[string]TypeProfile{
		"VNTH-T2_v2": {
			ModeFields: map[string]any{
				"temperature_sensitivity": 0.5,
				"system_mode":             "heat",
				"preset":                  "schedule",
			},
		},
		"TR-M3Z": {
			ModeFields: map[string]any{
				"system_mode": "heat",
				"preset":      "schedule",
			},
		},
		"ME168_1": {
			ModeFields: map[string]any{
				"system_mode": "auto",
			},
		},
		"ME167": {
			ModeFields: map[string]any{
				"system_mode": "auto",
			},
		},
	}
}
