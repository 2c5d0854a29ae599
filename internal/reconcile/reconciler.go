package reconcile

import "sort"

// Mismatch is one expected key whose reported value differs (or is missing).
type Mismatch struct {
	// Key is the payload key that mismatched.
	Key string `json:"key"`

	// Expected is the value the configuration commands.
	Expected any `json:"expected"`

	// Reported is the value the device last reported. Meaningless when
	// ReportedAbsent is true.
	Reported any `json:"reported,omitempty"`

	// ReportedAbsent marks keys the device did not report at all, either
	// because the key is missing or because no structured state exists.
	ReportedAbsent bool `json:"reported_absent,omitempty"`
}

// Report is the outcome of one reconciliation, sorted ascending by key.
// An empty report means the device matches its expected configuration.
type Report []Mismatch

// Empty reports whether no mismatches were found.
func (r Report) Empty() bool {
	return len(r) == 0
}

// Keys returns the mismatched keys, in report order.
func (r Report) Keys() []string {
	keys := make([]string, len(r))
	for i, m := range r {
		keys[i] = m.Key
	}
	return keys
}

// Reconcile compares an expected payload against a device's reported state.
//
// When reported is not a structured mapping (device never sent parseable
// state, or no reply arrived inside the collection window) every expected
// key is reported as mismatched with the reported side absent. Keys present
// in reported but not expected are never reported.
//
// Parameters:
//   - expected: The commanded configuration payload
//   - reported: The device's last reported state (any decoded JSON value,
//     an opaque raw string, or nil)
//
// Returns:
//   - Report: Mismatches sorted by key; empty when in sync
func Reconcile(expected map[string]any, reported any) Report {
	keys := make([]string, 0, len(expected))
	for key := range expected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	reportedMap, structured := reported.(map[string]any)

	var report Report
	for _, key := range keys {
		if !structured {
			report = append(report, Mismatch{Key: key, Expected: expected[key], ReportedAbsent: true})
			continue
		}

		value, present := reportedMap[key]
		if !present {
			report = append(report, Mismatch{Key: key, Expected: expected[key], ReportedAbsent: true})
			continue
		}

		if !equivalent(expected[key], value) {
			report = append(report, Mismatch{Key: key, Expected: expected[key], Reported: value})
		}
	}

	return report
}
