package reconcile

import "strconv"

// Battery field names as zigbee2mqtt thermostats report them.
const (
	batteryLowKey   = "battery_low"
	batteryLevelKey = "battery"
)

// DefaultBatteryThreshold is the level (percent) below which a battery is
// flagged.
const DefaultBatteryThreshold = 20

// BatteryAnnotation derives a human-readable battery note from a device's
// reported state. It never affects mismatch computation.
//
// Rules, in order:
//   - low-battery flag set true: "battery low"
//   - numeric level below threshold: "battery {level}%"
//   - no battery information at all (including unparseable state):
//     "battery unknown"
//   - otherwise: "" (no annotation)
func BatteryAnnotation(reported any, threshold float64) string {
	state, ok := reported.(map[string]any)
	if !ok {
		return "battery unknown"
	}

	lowFlag, hasLow := state[batteryLowKey]
	if low, isBool := lowFlag.(bool); hasLow && isBool && low {
		return "battery low"
	}

	levelValue, hasLevel := state[batteryLevelKey]
	if level, isNum := asDecimal(levelValue); hasLevel && isNum {
		if level < threshold {
			return "battery " + strconv.FormatFloat(level, 'f', -1, 64) + "%"
		}
		return ""
	}

	if !hasLow && !hasLevel {
		return "battery unknown"
	}
	return ""
}
