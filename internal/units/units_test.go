package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit string
		want bool
	}{
		{Feet, true},
		{Meters, true},
		{"furlongs", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.want)
		}
	}
}

func TestFeetToMeters(t *testing.T) {
	got := FeetToMeters(1000)
	if math.Abs(got-304.8) > 1e-9 {
		t.Errorf("FeetToMeters(1000) = %f, want 304.8", got)
	}

	if got := FeetToMeters(0); got != 0 {
		t.Errorf("FeetToMeters(0) = %f, want 0", got)
	}
}

func TestConvertAltitude(t *testing.T) {
	if got := ConvertAltitude(100, Meters); math.Abs(got-30.48) > 1e-9 {
		t.Errorf("ConvertAltitude(100, meters) = %f, want 30.48", got)
	}
	if got := ConvertAltitude(100, Feet); got != 100 {
		t.Errorf("ConvertAltitude(100, feet) = %f, want 100", got)
	}
	// Unknown units fall back to feet
	if got := ConvertAltitude(100, "cubits"); got != 100 {
		t.Errorf("ConvertAltitude(100, cubits) = %f, want 100", got)
	}
}
