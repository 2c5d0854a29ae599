package reconcile

import (
	"reflect"
	"testing"
)

// =============================================================================
// Reconcile Tests
// =============================================================================

func TestReconcileIdentical(t *testing.T) {
	payload := map[string]any{
		"system_mode":     "heat",
		"preset":          "schedule",
		"schedule_monday": "00:00/19 05:00/21 23:00/19",
		"setpoint":        21.0,
	}

	report := Reconcile(payload, map[string]any{
		"system_mode":     "heat",
		"preset":          "schedule",
		"schedule_monday": "00:00/19 05:00/21 23:00/19",
		"setpoint":        21.0,
	})
	if !report.Empty() {
		t.Errorf("Reconcile(payload, payload) = %v, want empty", report)
	}
}

func TestReconcileUnstructuredReported(t *testing.T) {
	payload := map[string]any{"b": 1, "a": 2}

	for _, reported := range []any{nil, "offline", 42.0, []any{"x"}} {
		report := Reconcile(payload, reported)
		if len(report) != 2 {
			t.Fatalf("Reconcile(_, %v) = %d mismatches, want 2", reported, len(report))
		}
		for _, m := range report {
			if !m.ReportedAbsent {
				t.Errorf("mismatch %q ReportedAbsent = false, want true", m.Key)
			}
		}
		// Deterministic key ordering.
		if got := report.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
			t.Errorf("Keys() = %v, want [a b]", got)
		}
	}
}

func TestReconcileMissingKey(t *testing.T) {
	report := Reconcile(
		map[string]any{"preset": "schedule", "system_mode": "heat"},
		map[string]any{"system_mode": "heat"},
	)

	if len(report) != 1 {
		t.Fatalf("Reconcile() = %d mismatches, want 1", len(report))
	}
	if report[0].Key != "preset" || !report[0].ReportedAbsent {
		t.Errorf("mismatch = %+v, want preset absent", report[0])
	}
}

func TestReconcileNumericTolerance(t *testing.T) {
	// Within 1e-6: equal.
	report := Reconcile(map[string]any{"t": 21.0}, map[string]any{"t": "21.0000005"})
	if !report.Empty() {
		t.Errorf("Reconcile() within tolerance = %v, want empty", report)
	}

	// Outside tolerance: mismatch.
	report = Reconcile(map[string]any{"t": 21.0}, map[string]any{"t": 22.0})
	if len(report) != 1 {
		t.Errorf("Reconcile() outside tolerance = %v, want 1 mismatch", report)
	}
}

func TestReconcileExtraReportedKeysIgnored(t *testing.T) {
	report := Reconcile(
		map[string]any{"system_mode": "heat"},
		map[string]any{
			"system_mode":       "heat",
			"local_temperature": 20.4,
			"battery":           85.0,
		},
	)
	if !report.Empty() {
		t.Errorf("Reconcile() = %v, want empty (extra reported keys ignored)", report)
	}
}

func TestReconcileScheduleKey(t *testing.T) {
	expected := map[string]any{"schedule_monday": "00:00/19 05:00/21"}

	// Canonically equal temperatures.
	report := Reconcile(expected, map[string]any{"schedule_monday": "00:00/19.0 05:00/21.0"})
	if !report.Empty() {
		t.Errorf("Reconcile() canonical schedules = %v, want empty", report)
	}

	// Different time.
	report = Reconcile(expected, map[string]any{"schedule_monday": "00:00/19 05:30/21"})
	if len(report) != 1 {
		t.Errorf("Reconcile() differing time = %v, want 1 mismatch", report)
	}
}

func TestReconcileStrictFallback(t *testing.T) {
	report := Reconcile(map[string]any{"on": true}, map[string]any{"on": true})
	if !report.Empty() {
		t.Errorf("Reconcile() equal booleans = %v, want empty", report)
	}

	report = Reconcile(map[string]any{"on": true}, map[string]any{"on": false})
	if len(report) != 1 {
		t.Errorf("Reconcile() differing booleans = %v, want 1 mismatch", report)
	}
}

func TestReconcileMismatchCarriesValues(t *testing.T) {
	report := Reconcile(map[string]any{"preset": "schedule"}, map[string]any{"preset": "manual"})
	if len(report) != 1 {
		t.Fatalf("Reconcile() = %v, want 1 mismatch", report)
	}
	m := report[0]
	if m.Expected != "schedule" || m.Reported != "manual" || m.ReportedAbsent {
		t.Errorf("mismatch = %+v, want expected=schedule reported=manual", m)
	}
}
