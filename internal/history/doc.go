// Package history provides an optional SQLite journal of device sightings.
//
// The journal is pure observability: every state message the monitor sees
// can be appended here for later inspection (when did this device last
// behave, what did it report before it went quiet). The in-memory liveness
// table remains the authority for staleness decisions; nothing reads the
// journal on the hot path, and the monitor runs fine with it disabled.
//
// Entries are stored as JSON snapshots in the sightings table, created by
// the embedded migrations.
package history
