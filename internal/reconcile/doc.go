// Package reconcile compares a thermostat's expected configuration payload
// against its last reported state and produces a per-key mismatch report.
//
// Devices echo commanded values back in looser shapes than they were sent:
// numbers come back as strings, temperatures grow or lose trailing zeros,
// schedule strings pick up extra whitespace. Comparison therefore runs
// through a small ordered chain of comparators, each declaring the value
// shapes it accepts:
//
//  1. decimal numbers, equal within an absolute tolerance of 1e-6
//  2. schedule token strings, times compared exactly, temperatures compared
//     after canonicalizing decimal formatting
//  3. plain strings, with whitespace collapsed
//  4. strict equality
//
// Only expected keys drive the report, since config is the source of truth;
// extra reported keys are ignored. Reports are sorted by key for
// deterministic output and are built fresh per call, never persisted.
//
// The package never fails on malformed or missing data: a device that never
// sent parseable state simply has every expected key reported as absent.
package reconcile
