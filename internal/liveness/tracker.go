package liveness

import (
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// Sighting is the most recent observation of one device.
type Sighting struct {
	// LastSeen is when the device's state message arrived.
	LastSeen time.Time

	// State is the decoded message payload: a map[string]any for JSON
	// object payloads, or the raw payload as a string when decoding fails.
	State any
}

// Tracker is a thread-safe last-seen table for a fixed set of devices.
//
// Devices are registered up front from configuration; sightings for
// unregistered names are recorded too, so a device added on the broker
// before the config catches up is still visible in queries.
type Tracker struct {
	mu        sync.RWMutex
	sightings map[string]Sighting
	monitored []string
}

// NewTracker creates a tracker for the given device display names.
// All devices start never-seen.
func NewTracker(names []string) *Tracker {
	monitored := make([]string, len(names))
	copy(monitored, names)
	sort.Strings(monitored)

	return &Tracker{
		sightings: make(map[string]Sighting, len(names)),
		monitored: monitored,
	}
}

// Record notes a sighting of the named device at the given time.
//
// The payload is decoded as a JSON object where possible; otherwise the
// raw bytes are kept as a string so nothing a device says is ever lost.
//
// Returns the decoded state that was stored.
func (t *Tracker) Record(name string, at time.Time, payload []byte) any {
	state := decodeState(payload)

	t.mu.Lock()
	t.sightings[name] = Sighting{LastSeen: at, State: state}
	t.mu.Unlock()

	return state
}

// Snapshot returns the last sighting of the named device.
// ok is false when the device has never been seen.
func (t *Tracker) Snapshot(name string) (Sighting, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.sightings[name]
	return s, ok
}

// Monitored returns the registered device names, sorted.
func (t *Tracker) Monitored() []string {
	names := make([]string, len(t.monitored))
	copy(names, t.monitored)
	return names
}

// Stale returns the registered devices not heard from within threshold of
// now, sorted by name. Never-seen devices are always included.
func (t *Tracker) Stale(now time.Time, threshold time.Duration) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var stale []string
	for _, name := range t.monitored {
		s, seen := t.sightings[name]
		if !seen || now.Sub(s.LastSeen) > threshold {
			stale = append(stale, name)
		}
	}
	return stale
}

// decodeState interprets a payload as a JSON object, falling back to the
// raw text for anything else (plain strings, malformed JSON, scalars).
func decodeState(payload []byte) any {
	var obj map[string]any
	if err := json.Unmarshal(payload, &obj); err == nil {
		return obj
	}
	return string(payload)
}
