// Package console renders poll output and account reports to a terminal.
package console

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// TimestampLayout is the layout of the leading poll line column.
const TimestampLayout = "01/02/2006, 15:04:05 PM MST"

// Compile-time interface satisfaction check.
var _ driven.Reporter = (*PollReporter)(nil)

// PollReporter writes one comma-separated line per reported sample.
type PollReporter struct {
	w               io.Writer
	units           model.UnitSystem
	includeLocation bool
}

// NewPollReporter creates a PollReporter writing to w.
func NewPollReporter(w io.Writer, units model.UnitSystem, includeLocation bool) *PollReporter {
	return &PollReporter{w: w, units: units, includeLocation: includeLocation}
}

// Intro describes the polling cadence. It is skipped for single samples.
func (r *PollReporter) Intro(interval, inactivity, longPause time.Duration) {
	fmt.Fprintf(r.w, "Polling car every %d seconds, only showing changes in data.\n", int(interval.Seconds()))
	if inactivity > 0 {
		fmt.Fprintf(r.w, "If 'ready' and inactive for %d minutes will pause polling once for "+
			"every ready state cycle for %d minutes to allow the car to go to sleep.\n",
			int(inactivity.Minutes()), int(longPause.Minutes()))
	}
	fmt.Fprintln(r.w)
}

// Header writes the column titles.
func (r *PollReporter) Header() {
	cols := []string{"timestamp", "Power", "Drive Mode", "Gear", "Mileage", "Battery", "Range", "Speed"}
	if r.includeLocation {
		cols = append(cols, "Latitude", "Longitude")
	}
	cols = append(cols, "Charger Status", "Charge State", "Battery Limit", "Charge End")
	fmt.Fprintln(r.w, strings.Join(cols, ","))
}

// Line writes one sample.
func (r *PollReporter) Line(at time.Time, key model.ComparableKey) {
	fields := []string{
		formatTimestamp(at),
		key.PowerState,
		key.DriveMode,
		key.Gear,
		formatTenths(key.Mileage),
		formatTenths(key.BatteryLevel) + "%",
		formatTenths(key.Range),
		formatTenths(key.Speed) + " " + key.Units.SpeedLabel(),
	}
	if r.includeLocation {
		if key.HasLocation {
			fields = append(fields, formatCoordinate(key.Latitude), formatCoordinate(key.Longitude))
		} else {
			fields = append(fields, "", "")
		}
	}
	if key.HasCharger {
		fields = append(fields,
			key.ChargerStatus,
			key.ChargerState,
			formatTenths(key.BatteryLimit)+"%",
			formatChargeEnd(key.MinutesToEndOfCharge),
		)
	}
	fmt.Fprintln(r.w, strings.Join(fields, ","))
}

// Offline reports an unavailable telemetry source.
func (r *PollReporter) Offline(at time.Time) {
	fmt.Fprintf(r.w, "%s Rivian API appears offline\n", formatTimestamp(at))
}

// Notice writes a timestamped status message.
func (r *PollReporter) Notice(at time.Time, msg string) {
	fmt.Fprintf(r.w, "%s %s\n", formatTimestamp(at), msg)
}

func formatTimestamp(t time.Time) string {
	return strings.TrimSpace(t.Format(TimestampLayout))
}

func formatTenths(v float64) string {
	return strconv.FormatFloat(model.Round1(v), 'f', 1, 64)
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatChargeEnd(minutes int) string {
	return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
}
