// Package schedule derives device-native daily heating schedules from a
// day/night set point policy.
//
// A schedule is an ordered sequence of (time-of-day, temperature) points
// covering the full 24h cycle, serialized as "HH:MM/temp" tokens joined by
// spaces, the format zigbee2mqtt thermostats accept in their
// schedule_{weekday} fields.
//
// # Generation
//
// Generate produces two evenly spaced points spanning the night→day interval
// and four spanning day→night, wrap-aware across midnight. Exactly one point
// lands on 00:00: when neither span naturally includes it, the interpolated
// point of the midnight-crossing segment closest to midnight is moved there.
// Points are sorted by time-of-day and duplicates dropped, so a generated
// schedule holds between 2 and 6 points.
//
// # Usage
//
//	day, _ := schedule.ParseTimeOfDay("05:00")
//	night, _ := schedule.ParseTimeOfDay("23:00")
//	s, err := schedule.Generate(day, 21, night, 19)
//	// s.String() == "00:00/19 05:00/21 09:30/21 14:00/21 18:30/21 23:00/19"
//
// All functions are pure; the package holds no state.
package schedule
