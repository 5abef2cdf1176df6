// Package units provides shared constants and conversions for altitude units.
package units

// Unit constants
const (
	Feet   = "feet"
	Meters = "meters"
)

// FeetPerMeter is the conversion factor applied to GeoLife altitudes,
// which the dataset records in feet.
const FeetPerMeter = 0.3048

// ValidUnits contains all valid altitude unit values
var ValidUnits = []string{Feet, Meters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// FeetToMeters converts an altitude recorded in feet to meters.
func FeetToMeters(feet float64) float64 {
	return feet * FeetPerMeter
}

// ConvertAltitude converts an altitude from feet to the target units.
// The database stores altitudes in feet as recorded by the dataset.
func ConvertAltitude(altitudeFeet float64, targetUnits string) float64 {
	switch targetUnits {
	case Meters:
		return FeetToMeters(altitudeFeet)
	case Feet:
		return altitudeFeet
	default:
		return altitudeFeet // default to feet if unknown unit
	}
}
