package reconcile

import "testing"

// =============================================================================
// Comparator Chain Tests
// =============================================================================

func TestEquivalentNumeric(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		reported any
		want     bool
	}{
		{"identical floats", 21.0, 21.0, true},
		{"float vs numeric string", 21.0, "21.0000005", true},
		{"int vs float", 19, 19.0, true},
		{"within tolerance", 21.5, 21.5000001, true},
		{"outside tolerance", 21.0, 21.00001, false},
		{"different values", 21.0, 22.0, false},
		{"string with padding", 21.0, " 21 ", true},
		{"negative values", -5.0, "-5", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equivalent(tt.expected, tt.reported); got != tt.want {
				t.Errorf("equivalent(%v, %v) = %v, want %v", tt.expected, tt.reported, got, tt.want)
			}
		})
	}
}

func TestEquivalentSchedule(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		reported string
		want     bool
	}{
		{"identical", "06:00/21", "06:00/21", true},
		{"canonical temperature", "06:00/21.0", "06:00/21", true},
		{"both decorated", "06:00/21.00 18:00/19.0", "06:00/21 18:00/19", true},
		{"different time", "06:00/21", "06:30/21", false},
		{"different temperature", "06:00/21", "06:00/21.5", false},
		{"extra whitespace", "06:00/21  18:00/19", "06:00/21 18:00/19", true},
		{"different count", "06:00/21 18:00/19", "06:00/21", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equivalent(tt.expected, tt.reported); got != tt.want {
				t.Errorf("equivalent(%q, %q) = %v, want %v", tt.expected, tt.reported, got, tt.want)
			}
		})
	}
}

func TestEquivalentString(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		reported any
		want     bool
	}{
		{"identical", "heat", "heat", true},
		{"surrounding whitespace", "heat", "  heat ", true},
		{"internal whitespace collapsed", "a  b", "a b", true},
		{"different strings", "heat", "auto", false},
		{"case sensitive", "heat", "Heat", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equivalent(tt.expected, tt.reported); got != tt.want {
				t.Errorf("equivalent(%v, %v) = %v, want %v", tt.expected, tt.reported, got, tt.want)
			}
		})
	}
}

func TestEquivalentStrict(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		reported any
		want     bool
	}{
		{"equal booleans", true, true, true},
		{"differing booleans", true, false, false},
		{"boolean vs numeric one", true, 1.0, false},
		{"both nil", nil, nil, true},
		{"nil vs string", nil, "heat", false},
		{"equal maps", map[string]any{"k": "v"}, map[string]any{"k": "v"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := equivalent(tt.expected, tt.reported); got != tt.want {
				t.Errorf("equivalent(%v, %v) = %v, want %v", tt.expected, tt.reported, got, tt.want)
			}
		})
	}
}

func TestNumericPrecedesString(t *testing.T) {
	// Numeric strings must compare as numbers even when their text differs.
	if !equivalent("21.0", "21") {
		t.Error(`equivalent("21.0", "21") = false, want true (numeric comparison)`)
	}
}

func TestAsDecimal(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{"float64", 21.5, 21.5, true},
		{"int", 19, 19, true},
		{"int64", int64(7), 7, true},
		{"numeric string", "21.5", 21.5, true},
		{"padded string", " 3 ", 3, true},
		{"non-numeric string", "heat", 0, false},
		{"boolean", true, 0, false},
		{"nil", nil, 0, false},
		{"map", map[string]any{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := asDecimal(tt.value)
			if ok != tt.ok || got != tt.want {
				t.Errorf("asDecimal(%v) = (%v, %v), want (%v, %v)", tt.value, got, ok, tt.want, tt.ok)
			}
		})
	}
}
