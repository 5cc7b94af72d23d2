package console

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gosuri/uitable"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

const maxColWidth = 80

// ReportOptions controls unit conversion and masking in the reports.
type ReportOptions struct {
	Units   model.UnitSystem
	Privacy bool
}

func newTable() *uitable.Table {
	table := uitable.New()
	table.MaxColWidth = maxColWidth
	table.Wrap = true
	return table
}

// MaskID keeps the last four characters of an identifier.
func MaskID(id string) string {
	if len(id) <= 4 {
		return "xxxx" + id
	}
	return "xxxx" + id[len(id)-4:]
}

// maskDate keeps the calendar date of an ISO timestamp.
func maskDate(date string) string {
	if len(date) <= 10 {
		return date
	}
	return date[:10]
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteOrders renders the account's vehicle orders.
func WriteOrders(w io.Writer, orders []model.VehicleOrder, opts ReportOptions) {
	if len(orders) == 0 {
		fmt.Fprintln(w, "No Vehicle Orders found")
		return
	}

	fmt.Fprintln(w, "Vehicle Orders:")
	for _, order := range orders {
		id, date := order.ID, order.OrderDate
		if opts.Privacy {
			id, date = MaskID(id), maskDate(date)
		}
		item := ""
		if len(order.Items) > 0 {
			item = order.Items[0]
		}

		table := newTable()
		table.AddRow("Order ID:", id)
		table.AddRow("Order Date:", date)
		table.AddRow("Config State:", order.ConfigurationStatus)
		table.AddRow("Order State:", order.State)
		table.AddRow("Status:", order.FulfillmentSummaryStatus)
		table.AddRow("Item:", item)
		table.AddRow("Customer flow complete:", yesNo(order.IsConsumerFlowComplete))
		fmt.Fprintln(w, table)
		fmt.Fprintln(w)
	}
}

// WriteVehicles renders the vehicles attached to the account's orders.
func WriteVehicles(w io.Writer, vehicles []model.VehicleDetails, opts ReportOptions) {
	if len(vehicles) == 0 {
		fmt.Fprintln(w, "No Vehicles found")
		return
	}

	fmt.Fprintln(w, "Vehicles:")
	for _, v := range vehicles {
		vin := v.VIN
		if opts.Privacy {
			vin = MaskID(vin)
		}

		table := newTable()
		table.AddRow("Vehicle ID:", v.VehicleID)
		table.AddRow("VIN:", vin)
		table.AddRow("Model Year:", strconv.Itoa(v.ModelYear))
		table.AddRow("Make:", v.Make)
		table.AddRow("Model:", v.Model)
		for _, o := range v.Options {
			table.AddRow(o.Group+":", o.Option)
		}
		fmt.Fprintln(w, table)
		fmt.Fprintln(w)
	}
}

// stateView formats snapshot signals for the state report. Missing signals
// render as "n/a".
type stateView struct {
	snap  *model.VehicleSnapshot
	units model.UnitSystem
}

const notAvailable = "n/a"

func (v stateView) value(name string) string {
	sig, ok := v.snap.Signals[name]
	if !ok {
		return notAvailable
	}
	switch val := sig.Value.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func (v stateView) tenths(name, suffix string) string {
	f, ok := v.snap.Float(name)
	if !ok {
		return notAvailable
	}
	return formatTenths(f) + suffix
}

func (v stateView) is(name, want string) string {
	s, _ := v.snap.String(name)
	return strconv.FormatBool(s == want)
}

func (v stateView) meters(name string) string {
	f, ok := v.snap.Float(name)
	if !ok {
		return notAvailable
	}
	return formatTenths(v.units.MetersToDistance(f)) + " " + v.units.DistanceLabel()
}

func (v stateView) kilometers(name string) string {
	f, ok := v.snap.Float(name)
	if !ok {
		return notAvailable
	}
	return formatTenths(v.units.KilometersToDistance(f)) + " " + v.units.DistanceLabel()
}

func (v stateView) temperature(name string) string {
	f, ok := v.snap.Float(name)
	if !ok {
		return notAvailable
	}
	return formatTenths(v.units.CelsiusToTemperature(f)) + "°" + v.units.TemperatureLabel()
}

func (v stateView) optional(table *uitable.Table, label, name string) {
	if v.snap.Has(name) {
		table.AddRow(label, v.value(name))
	}
}

// WriteVehicleState renders the full vehicle state report.
func WriteVehicleState(w io.Writer, snap *model.VehicleSnapshot, opts ReportOptions) {
	if snap == nil {
		fmt.Fprintln(w, "Unable to retrieve vehicle state, try with --verbose")
		return
	}
	v := stateView{snap: snap, units: opts.Units}

	table := newTable()
	table.AddRow("Power State:", v.value(model.SignalPowerState))
	table.AddRow("Drive Mode:", v.value(model.SignalDriveMode))
	table.AddRow("Gear Status:", v.value(model.SignalGearStatus))
	table.AddRow("Odometer:", v.meters(model.SignalVehicleMileage))
	if !opts.Privacy && snap.Location != nil {
		table.AddRow("Location:", formatCoordinate(snap.Location.Latitude)+","+formatCoordinate(snap.Location.Longitude))
	}
	if !snap.LastSync.IsZero() {
		table.AddRow("Last Sync:", snap.LastSync.Local().Format(time.RFC1123))
	}

	table.AddRow("Battery:", "")
	table.AddRow("   Battery Level:", v.tenths(model.SignalBatteryLevel, "%"))
	table.AddRow("   Range:", v.kilometers(model.SignalDistanceToEmpty))
	table.AddRow("   Range Threshold:", v.value("rangeThreshold"))
	table.AddRow("   Battery Limit:", v.tenths(model.SignalBatteryLimit, "%"))
	table.AddRow("   Charging state:", v.value(model.SignalChargerState))
	v.optional(table, "   Charger status:", model.SignalChargerStatus)
	v.optional(table, "   Charger derate:", "chargerDerateStatus")
	table.AddRow("   Time to end of charge:", v.value(model.SignalTimeToEndOfCharge))
	table.AddRow("   Remote charging available:", v.value("remoteChargingAvailable"))

	table.AddRow("OTA:", "")
	table.AddRow("   Current Version:", v.value("otaCurrentVersion"))
	table.AddRow("   Available version:", v.value("otaAvailableVersion"))
	v.optional(table, "   Status:", "otaStatus")
	v.optional(table, "   Install type:", "otaInstallType")
	v.optional(table, "   Duration:", "otaInstallDuration")
	v.optional(table, "   Download progress:", "otaDownloadProgress")
	table.AddRow("   Install ready:", v.value("otaInstallReady"))
	v.optional(table, "   Install progress:", "otaInstallProgress")
	v.optional(table, "   Install time:", "otaInstallTime")
	v.optional(table, "   Current Status:", "otaCurrentStatus")

	table.AddRow("Climate:", "")
	table.AddRow("   Climate Interior Temp:", v.temperature("cabinClimateInteriorTemperature"))
	table.AddRow("   Climate Driver Temp:", v.temperature("cabinClimateDriverTemperature"))
	table.AddRow("   Cabin Preconditioning Status:", v.value("cabinPreconditioningStatus"))
	table.AddRow("   Cabin Preconditioning Type:", v.value("cabinPreconditioningType"))
	table.AddRow("   Defrost:", v.value("defrostDefogStatus"))
	table.AddRow("   Steering Wheel Heat:", v.value("steeringWheelHeat"))
	table.AddRow("   Pet Mode:", v.value("petModeStatus"))

	table.AddRow("Security:", "")
	v.optional(table, "   Alarm active:", "alarmSoundStatus")
	v.optional(table, "   Gear Guard Video:", "gearGuardVideoStatus")
	v.optional(table, "   Gear Guard Mode:", "gearGuardVideoMode")
	if alarm, ok := snap.Signals["alarmSoundStatus"]; ok && !alarm.TimeStamp.IsZero() {
		table.AddRow("   Last Alarm:", alarm.TimeStamp.Local().Format(time.RFC1123))
	}
	table.AddRow("   Gear Guard Locked:", v.is("gearGuardLocked", "locked"))

	table.AddRow("Doors:", "")
	for _, door := range []struct{ label, prefix string }{
		{"Front left", "doorFrontLeft"},
		{"Front right", "doorFrontRight"},
		{"Rear left", "doorRearLeft"},
		{"Rear right", "doorRearRight"},
	} {
		table.AddRow("   "+door.label+" locked:", v.is(door.prefix+"Locked", "locked"))
		table.AddRow("   "+door.label+" closed:", v.is(door.prefix+"Closed", "closed"))
	}

	table.AddRow("Windows:", "")
	table.AddRow("   Front left closed:", v.is("windowFrontLeftClosed", "closed"))
	table.AddRow("   Front right closed:", v.is("windowFrontRightClosed", "closed"))
	table.AddRow("   Rear left closed:", v.is("windowRearLeftClosed", "closed"))
	table.AddRow("   Rear right closed:", v.is("windowRearRightClosed", "closed"))

	table.AddRow("Seats:", "")
	table.AddRow("   Front left Heat:", v.is("seatFrontLeftHeat", "On"))
	table.AddRow("   Front right Heat:", v.is("seatFrontRightHeat", "On"))
	table.AddRow("   Rear left Heat:", v.is("seatRearLeftHeat", "On"))
	table.AddRow("   Rear right Heat:", v.is("seatRearRightHeat", "On"))

	table.AddRow("Storage:", "")
	table.AddRow("   Frunk locked:", v.is("closureFrunkLocked", "locked"))
	table.AddRow("   Frunk closed:", v.is("closureFrunkClosed", "closed"))
	table.AddRow("   Lift Gate Locked:", v.is("closureLiftgateLocked", "locked"))
	table.AddRow("   Lift Gate Closed:", v.value("closureLiftgateClosed"))
	table.AddRow("   Tonneau Locked:", v.value("closureTonneauLocked"))
	table.AddRow("   Tonneau Closed:", v.value("closureTonneauClosed"))

	table.AddRow("Maintenance:", "")
	table.AddRow("   Wiper Fluid:", v.value("wiperFluidState"))
	table.AddRow("   Brake Fluid Low:", v.value("brakeFluidLow"))
	table.AddRow("   Tire Front Left:", v.value("tirePressureStatusFrontLeft"))
	table.AddRow("   Tire Front Right:", v.value("tirePressureStatusFrontRight"))
	table.AddRow("   Tire Rear Left:", v.value("tirePressureStatusRearLeft"))
	table.AddRow("   Tire Rear Right:", v.value("tirePressureStatusRearRight"))

	fmt.Fprintln(w, "Vehicle State:")
	fmt.Fprintln(w, table)
}
