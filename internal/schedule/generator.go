package schedule

import (
	"math"
	"sort"
)

// Segment point counts. Two points carry the night set point across the
// night→day span, four carry the day set point across day→night; thermostat
// firmware expects at most six breakpoints per day.
const (
	nightPointCount = 2
	dayPointCount   = 4
)

// Generate derives a daily schedule from a day/night set point policy.
//
// The night segment starts exactly at nightTime, the day segment exactly at
// dayTime; remaining points are the rounded linear interpolation across each
// wrap-aware span. Exactly one point lands on 00:00: if no computed point
// does, the interpolated point of the midnight-crossing segment closest to
// midnight is moved there. Points sharing a minute collapse to the earliest,
// so the result holds between 2 and 6 points, strictly ascending.
//
// Parameters:
//   - dayTime: Start of the day period (must differ from nightTime)
//   - dayTemp: Set point during the day period
//   - nightTime: Start of the night period
//   - nightTemp: Set point during the night period
//
// Returns:
//   - Schedule: Sorted, deduplicated point sequence
//   - error: ErrSameTime when dayTime == nightTime
func Generate(dayTime TimeOfDay, dayTemp float64, nightTime TimeOfDay, nightTemp float64) (Schedule, error) {
	if dayTime == nightTime {
		return nil, ErrSameTime
	}

	nightSpan := forwardMinutes(nightTime, dayTime)
	daySpan := forwardMinutes(dayTime, nightTime)

	night := segmentPoints(nightTime, nightTemp, nightSpan, nightPointCount)
	day := segmentPoints(dayTime, dayTemp, daySpan, dayPointCount)

	points := make(Schedule, 0, nightPointCount+dayPointCount)
	points = append(points, night...)
	points = append(points, day...)

	if !includesMidnight(points) {
		// The segment with the numerically greater start is the one whose
		// span wraps past midnight; pin its interpolated point nearest
		// midnight to 00:00. Segment starts are user-intended exact times
		// and are never moved.
		if nightTime > dayTime {
			forceMidnight(points[:nightPointCount])
		} else {
			forceMidnight(points[nightPointCount:])
		}
	}

	// Stable sort keeps generation order (night before day) on equal times,
	// so dedup retains the night point when the segments touch.
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Time < points[j].Time
	})

	return dedupe(points), nil
}

// forwardMinutes is the duration from a to b going forward in time,
// wrapping past midnight.
func forwardMinutes(a, b TimeOfDay) int {
	return ((int(b) - int(a)) % minutesPerDay + minutesPerDay) % minutesPerDay
}

// segmentPoints produces count points spanning span minutes from start,
// all carrying temp. The first point is start exactly; the rest are the
// rounded linear interpolation.
func segmentPoints(start TimeOfDay, temp float64, span int, count int) Schedule {
	step := float64(span) / float64(count)

	points := make(Schedule, count)
	for i := range points {
		t := int(math.Round(float64(start)+float64(i)*step)) % minutesPerDay
		points[i] = Point{Time: TimeOfDay(t), Temperature: temp}
	}
	return points
}

// includesMidnight reports whether any point lands exactly on 00:00.
func includesMidnight(points Schedule) bool {
	for _, p := range points {
		if p.Time == 0 {
			return true
		}
	}
	return false
}

// forceMidnight moves the interpolated point of seg closest to midnight
// (circular distance) onto 00:00. seg[0] is the segment start and is left
// untouched.
func forceMidnight(seg Schedule) {
	nearest := 1
	for i := 2; i < len(seg); i++ {
		if circularMidnightDistance(seg[i].Time) < circularMidnightDistance(seg[nearest].Time) {
			nearest = i
		}
	}
	seg[nearest].Time = 0
}

// circularMidnightDistance is the distance from t to 00:00 on the 24h cycle.
func circularMidnightDistance(t TimeOfDay) int {
	d := int(t)
	if minutesPerDay-d < d {
		return minutesPerDay - d
	}
	return d
}

// dedupe drops later points sharing a time-of-day with an earlier one.
// Input must already be sorted ascending.
func dedupe(points Schedule) Schedule {
	out := points[:0]
	for i, p := range points {
		if i > 0 && p.Time == out[len(out)-1].Time {
			continue
		}
		out = append(out, p)
	}
	return out
}
