package model

// ComparableKey is the projection of a snapshot used for change detection
// and for the poll report line. Distances and percentages are already
// converted to display units and rounded to one decimal, so two keys compare
// equal whenever their rendered lines would. Keys are comparable with ==.
type ComparableKey struct {
	Units UnitSystem

	PowerState   string
	DriveMode    string
	Gear         string
	Mileage      float64
	BatteryLevel float64
	Range        float64
	Speed        float64

	// Location is omitted in privacy mode.
	HasLocation bool
	Latitude    float64
	Longitude   float64

	// Charger fields are only present when the vehicle reports a charger status.
	HasCharger           bool
	ChargerStatus        string
	ChargerState         string
	BatteryLimit         float64
	MinutesToEndOfCharge int
}
