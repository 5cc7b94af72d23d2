package model

import "time"

// Signal names shared by the poll loop and the reports.
const (
	SignalPowerState        = "powerState"
	SignalDriveMode         = "driveMode"
	SignalGearStatus        = "gearStatus"
	SignalVehicleMileage    = "vehicleMileage"
	SignalBatteryLevel      = "batteryLevel"
	SignalDistanceToEmpty   = "distanceToEmpty"
	SignalChargerStatus     = "chargerStatus"
	SignalChargerState      = "chargerState"
	SignalBatteryLimit      = "batteryLimit"
	SignalTimeToEndOfCharge = "timeToEndOfCharge"
)

// Signal is one telemetry value and the time the vehicle last changed it.
// Value is a float64 for numeric signals and a string otherwise.
type Signal struct {
	Value     any
	TimeStamp time.Time
}

// Location is the vehicle's GNSS position.
type Location struct {
	Latitude  float64
	Longitude float64
	TimeStamp time.Time
}

// VehicleSnapshot is one point-in-time read of vehicle telemetry.
type VehicleSnapshot struct {
	Signals  map[string]Signal
	Location *Location
	LastSync time.Time
}

// Has reports whether the named signal is present.
func (s *VehicleSnapshot) Has(name string) bool {
	_, ok := s.Signals[name]
	return ok
}

// Float returns the named signal as a number.
func (s *VehicleSnapshot) Float(name string) (float64, bool) {
	sig, ok := s.Signals[name]
	if !ok {
		return 0, false
	}
	switch v := sig.Value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// String returns the named signal as a string. Numeric values are not converted.
func (s *VehicleSnapshot) String(name string) (string, bool) {
	sig, ok := s.Signals[name]
	if !ok {
		return "", false
	}
	v, ok := sig.Value.(string)
	return v, ok
}
