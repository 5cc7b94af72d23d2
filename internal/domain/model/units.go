package model

import "math"

// UnitSystem selects imperial or metric output.
type UnitSystem int

const (
	Imperial UnitSystem = iota
	Metric
)

const metersPerMile = 1609.0

// MetersToDistance converts meters to miles or kilometers.
func (u UnitSystem) MetersToDistance(m float64) float64 {
	if u == Metric {
		return m / 1000
	}
	return m / metersPerMile
}

// KilometersToDistance converts kilometers to miles or kilometers.
func (u UnitSystem) KilometersToDistance(km float64) float64 {
	if u == Metric {
		return km
	}
	return km * 1000 / metersPerMile
}

// CelsiusToTemperature converts celsius to fahrenheit or celsius.
func (u UnitSystem) CelsiusToTemperature(c float64) float64 {
	if u == Metric {
		return c
	}
	return c*9/5 + 32
}

// DistanceLabel returns "km" or "mi".
func (u UnitSystem) DistanceLabel() string {
	if u == Metric {
		return "km"
	}
	return "mi"
}

// SpeedLabel returns "kph" or "mph".
func (u UnitSystem) SpeedLabel() string {
	if u == Metric {
		return "kph"
	}
	return "mph"
}

// TemperatureLabel returns "C" or "F".
func (u UnitSystem) TemperatureLabel() string {
	if u == Metric {
		return "C"
	}
	return "F"
}

// Round1 rounds to one decimal place. Round1(Round1(x)) == Round1(x).
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
