package schedule

import "errors"

// Domain errors for the schedule package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInvalidTime is returned when a time-of-day string is not valid HH:MM.
	ErrInvalidTime = errors.New("schedule: invalid time of day")

	// ErrInvalidSchedule is returned when a schedule string cannot be parsed.
	ErrInvalidSchedule = errors.New("schedule: invalid schedule string")

	// ErrSameTime is returned when day and night set points share a time of day.
	// The generator cannot order two segments starting at the same minute;
	// this is a configuration error, not a generation edge case.
	ErrSameTime = errors.New("schedule: day and night time must differ")
)
