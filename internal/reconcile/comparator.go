package reconcile

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/heatwarden/core/internal/schedule"
)

// numericTolerance is the absolute tolerance for decimal comparison.
// Devices round set points differently; anything within a micro-degree is
// the same value.
const numericTolerance = 1e-6

// comparator is one link of the comparison chain. accepted=false means the
// value shapes are not this comparator's business and the next link runs.
type comparator func(expected, reported any) (equal, accepted bool)

// chain holds the comparators in precedence order. The order is load
// bearing: a numeric string must compare numerically, not as a string.
var chain = []comparator{
	compareNumeric,
	compareSchedule,
	compareString,
}

// equivalent reports whether a reported value satisfies the expected one
// under the comparator chain, falling back to strict equality.
func equivalent(expected, reported any) bool {
	for _, compare := range chain {
		if equal, accepted := compare(expected, reported); accepted {
			return equal
		}
	}
	return reflect.DeepEqual(expected, reported)
}

// compareNumeric accepts any pair that both parse as decimal numbers.
func compareNumeric(expected, reported any) (equal, accepted bool) {
	a, okA := asDecimal(expected)
	b, okB := asDecimal(reported)
	if !okA || !okB {
		return false, false
	}
	return math.Abs(a-b) <= numericTolerance, true
}

// asDecimal extracts a decimal value from the shapes JSON decoding and YAML
// config produce. Booleans are deliberately not numbers.
func asDecimal(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// compareSchedule accepts pairs of schedule token strings and compares them
// token by token: counts must match, times must match exactly as strings,
// temperatures match after canonicalizing decimal formatting.
func compareSchedule(expected, reported any) (equal, accepted bool) {
	a, okA := expected.(string)
	b, okB := reported.(string)
	if !okA || !okB || !schedule.IsScheduleString(a) || !schedule.IsScheduleString(b) {
		return false, false
	}

	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) != len(tokensB) {
		return false, true
	}

	for i := range tokensA {
		timeA, tempA, _ := strings.Cut(tokensA[i], "/")
		timeB, tempB, _ := strings.Cut(tokensB[i], "/")
		if timeA != timeB {
			return false, true
		}
		canonA, _ := schedule.CanonicalTemperature(tempA)
		canonB, _ := schedule.CanonicalTemperature(tempB)
		if canonA != canonB {
			return false, true
		}
	}
	return true, true
}

// compareString accepts pairs of plain strings and compares them with
// surrounding and internal whitespace collapsed to single spaces.
func compareString(expected, reported any) (equal, accepted bool) {
	a, okA := expected.(string)
	b, okB := reported.(string)
	if !okA || !okB {
		return false, false
	}
	return collapseWhitespace(a) == collapseWhitespace(b), true
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
