// Package liveness tracks when each monitored thermostat was last heard
// from on the MQTT bus and which devices have gone quiet.
//
// The tracker is a synchronized in-memory table keyed by device display
// name. Every retained or live state message updates the device's last-seen
// timestamp and stores the decoded state alongside it, so the monitor can
// answer queries without re-subscribing.
//
// Staleness is relative: a device is stale when its last sighting is older
// than the caller's threshold. A device that has never been seen at all is
// always stale, regardless of threshold, because no age can be computed
// for it.
package liveness
