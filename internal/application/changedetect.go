package application

import (
	"math"
	"strings"
	"time"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// SummaryOptions controls how a snapshot is projected into a comparable key.
type SummaryOptions struct {
	Units model.UnitSystem
	// IncludeLocation is false in privacy mode.
	IncludeLocation bool
}

// Summarize projects snap into the key used for change detection and the
// poll report line. Distances are converted to display units and every
// float is rounded to one decimal so that sub-display noise never counts
// as a change. A snapshot missing a required signal is malformed.
func Summarize(snap *model.VehicleSnapshot, speed float64, opts SummaryOptions) (model.ComparableKey, error) {
	if snap == nil {
		return model.ComparableKey{}, &model.MalformedResponseError{Reason: "empty vehicle state"}
	}

	var missing []string
	str := func(name string) string {
		v, ok := snap.String(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	}
	num := func(name string) float64 {
		v, ok := snap.Float(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	}

	key := model.ComparableKey{
		Units:        opts.Units,
		PowerState:   str(model.SignalPowerState),
		DriveMode:    str(model.SignalDriveMode),
		Gear:         str(model.SignalGearStatus),
		Mileage:      model.Round1(opts.Units.MetersToDistance(num(model.SignalVehicleMileage))),
		BatteryLevel: model.Round1(num(model.SignalBatteryLevel)),
		Range:        model.Round1(opts.Units.KilometersToDistance(num(model.SignalDistanceToEmpty))),
		Speed:        model.Round1(speed),
	}
	if len(missing) > 0 {
		return model.ComparableKey{}, &model.MalformedResponseError{
			Reason: "missing signals: " + strings.Join(missing, ", "),
		}
	}

	if opts.IncludeLocation && snap.Location != nil {
		key.HasLocation = true
		key.Latitude = snap.Location.Latitude
		key.Longitude = snap.Location.Longitude
	}

	if status, ok := snap.String(model.SignalChargerStatus); ok {
		key.HasCharger = true
		key.ChargerStatus = status
		key.ChargerState, _ = snap.String(model.SignalChargerState)
		if limit, ok := snap.Float(model.SignalBatteryLimit); ok {
			key.BatteryLimit = model.Round1(limit)
		}
		if minutes, ok := snap.Float(model.SignalTimeToEndOfCharge); ok {
			key.MinutesToEndOfCharge = int(math.Round(minutes))
		}
	}

	return key, nil
}

// Differs reports whether curr should be reported given the previously
// reported key. A nil prev always differs.
func Differs(prev *model.ComparableKey, curr model.ComparableKey) bool {
	return prev == nil || *prev != curr
}

// DeriveSpeed returns the average speed between two odometer readings in
// meters, in miles or kilometers per hour. A non-positive elapsed time
// yields zero.
func DeriveSpeed(lastMileage, currentMileage float64, elapsed time.Duration, units model.UnitSystem) float64 {
	if elapsed <= 0 {
		return 0
	}
	distance := units.MetersToDistance(currentMileage - lastMileage)
	return distance / elapsed.Seconds() * 3600
}
