package domain

import "fmt"

// Supported weight units.
const (
	UnitKg = "kg"
	UnitLb = "lb"
)

const kgToLb = 2.2046226218

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "lb" {
		return v * kgToLb
	}
	if from == "lb" && to == "kg" {
		return v / kgToLb
	}
	return v
}

// ValidUnit reports whether u is a supported weight unit.
func ValidUnit(u string) bool {
	return u == "kg" || u == "lb"
}

// ParseUnit validates u and returns it, defaulting to fallback when empty.
func ParseUnit(u, fallback string) (string, error) {
	if u == "" {
		return fallback, nil
	}
	if !ValidUnit(u) {
		return "", fmt.Errorf("unit must be \"kg\" or \"lb\", got %q", u)
	}
	return u, nil
}
