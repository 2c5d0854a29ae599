package schedule

import (
	"fmt"
	"strconv"
	"strings"
)

// minutesPerDay is the length of the 24h cycle all arithmetic wraps on.
const minutesPerDay = 24 * 60

// TimeOfDay is a clock time expressed as minutes since midnight, in [0, 1440).
type TimeOfDay int

// ParseTimeOfDay parses an "HH:MM" string into a TimeOfDay.
//
// Returns ErrInvalidTime (wrapped) for anything that is not a two-field,
// colon-separated, in-range clock time.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	hours, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidTime, s, err)
	}
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidTime, s, err)
	}

	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidTime, s)
	}

	return TimeOfDay(hours*60 + minutes), nil
}

// String formats the time as zero-padded "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Point is a single schedule breakpoint: from Time onwards the thermostat
// targets Temperature, until the next point takes over.
type Point struct {
	Time        TimeOfDay
	Temperature float64
}

// Schedule is an ordered sequence of points covering one day.
// A valid schedule is strictly increasing by time-of-day.
type Schedule []Point

// String serializes the schedule as space-joined "HH:MM/temp" tokens.
// Temperatures are formatted canonically (no insignificant trailing zeros),
// so Parse(s.String()) round-trips.
func (s Schedule) String() string {
	tokens := make([]string, len(s))
	for i, p := range s {
		tokens[i] = p.Time.String() + "/" + FormatTemperature(p.Temperature)
	}
	return strings.Join(tokens, " ")
}

// Parse parses a space-joined "HH:MM/temp" token string into a Schedule.
//
// Returns ErrInvalidSchedule (wrapped) on malformed tokens. Ordering is not
// enforced here; Parse accepts whatever a device reports so the reconciler
// can compare it token-by-token.
func Parse(raw string) (Schedule, error) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSchedule)
	}

	points := make(Schedule, 0, len(fields))
	for _, tok := range fields {
		timePart, tempPart, ok := strings.Cut(tok, "/")
		if !ok {
			return nil, fmt.Errorf("%w: token %q", ErrInvalidSchedule, tok)
		}
		t, err := ParseTimeOfDay(timePart)
		if err != nil {
			return nil, fmt.Errorf("%w: token %q: %w", ErrInvalidSchedule, tok, err)
		}
		temp, err := strconv.ParseFloat(tempPart, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: token %q: %w", ErrInvalidSchedule, tok, err)
		}
		points = append(points, Point{Time: t, Temperature: temp})
	}

	return points, nil
}

// FormatTemperature formats a set point the way devices echo it back:
// shortest decimal representation, no insignificant trailing zeros
// (21.0 → "21", 21.5 → "21.5").
func FormatTemperature(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}

// CanonicalTemperature reformats a temperature token into its canonical
// form. Returns false when the token is not a decimal number.
//
// Devices differ in how they echo temperatures ("21" vs "21.0"); comparing
// canonical forms treats those as equal.
func CanonicalTemperature(token string) (string, bool) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return "", false
	}
	return FormatTemperature(v), true
}

// IsScheduleString reports whether raw looks like a schedule token string:
// one or more space-separated "HH:MM/temp" tokens.
func IsScheduleString(raw string) bool {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return false
	}
	for _, tok := range fields {
		timePart, tempPart, ok := strings.Cut(tok, "/")
		if !ok {
			return false
		}
		if _, err := ParseTimeOfDay(timePart); err != nil {
			return false
		}
		if _, err := strconv.ParseFloat(tempPart, 64); err != nil {
			return false
		}
	}
	return true
}
