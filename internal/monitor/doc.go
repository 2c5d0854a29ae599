// Package monitor ties the schedule, device, liveness and reconcile
// packages to the MQTT bus.
//
// Three independent activities share one Service:
//
//   - the inbound state stream: every device state message updates the
//     liveness tracker (and optionally the sighting journal and telemetry
//     sink)
//   - the staleness sweep: a timer derives the set of silent devices and
//     publishes a report when it is non-empty
//   - the query protocol: a "get" on the monitor base topic is answered
//     with one reply per configured device on its own reply topic
//
// A fourth, on-demand activity is the reconciliation pass (Checker): it
// solicits liveness replies, waits a bounded collection window for them to
// arrive, then compares each device's reported state against its expected
// configuration payload. Replies are push-based with no delivery guarantee,
// so a missing reply surfaces as every expected key reported absent rather
// than an error.
//
// None of these block one another: the tracker is the only shared state
// and its lock is never held across a publish.
package monitor
