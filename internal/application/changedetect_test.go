package application

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

func sig(v any) model.Signal {
	return model.Signal{Value: v}
}

func readySnapshot() *model.VehicleSnapshot {
	return &model.VehicleSnapshot{
		Signals: map[string]model.Signal{
			model.SignalPowerState:      sig("ready"),
			model.SignalDriveMode:       sig("everyday"),
			model.SignalGearStatus:      sig("park"),
			model.SignalVehicleMileage:  sig(16090.0),
			model.SignalBatteryLevel:    sig(80.04),
			model.SignalDistanceToEmpty: sig(321.8),
		},
		Location: &model.Location{Latitude: 37.1, Longitude: -122.2},
	}
}

func TestSummarize_ConvertsAndRounds(t *testing.T) {
	key, err := Summarize(readySnapshot(), 12.345, SummaryOptions{Units: model.Imperial, IncludeLocation: true})
	require.NoError(t, err)

	assert.Equal(t, "ready", key.PowerState)
	assert.Equal(t, "everyday", key.DriveMode)
	assert.Equal(t, "park", key.Gear)
	assert.Equal(t, 10.0, key.Mileage)
	assert.Equal(t, 80.0, key.BatteryLevel)
	assert.Equal(t, 200.0, key.Range)
	assert.Equal(t, 12.3, key.Speed)
	assert.True(t, key.HasLocation)
	assert.Equal(t, 37.1, key.Latitude)
	assert.False(t, key.HasCharger)
}

func TestSummarize_Metric(t *testing.T) {
	key, err := Summarize(readySnapshot(), 0, SummaryOptions{Units: model.Metric})
	require.NoError(t, err)

	assert.Equal(t, 16.1, key.Mileage)
	assert.Equal(t, 321.8, key.Range)
	assert.Equal(t, model.Metric, key.Units)
}

func TestSummarize_PrivacyOmitsLocation(t *testing.T) {
	key, err := Summarize(readySnapshot(), 0, SummaryOptions{IncludeLocation: false})
	require.NoError(t, err)

	assert.False(t, key.HasLocation)
	assert.Zero(t, key.Latitude)
	assert.Zero(t, key.Longitude)
}

func TestSummarize_ChargerFields(t *testing.T) {
	snap := readySnapshot()
	snap.Signals[model.SignalChargerStatus] = sig("chrgr_sts_connected_charging")
	snap.Signals[model.SignalChargerState] = sig("charging_active")
	snap.Signals[model.SignalBatteryLimit] = sig(85.0)
	snap.Signals[model.SignalTimeToEndOfCharge] = sig(95.0)

	key, err := Summarize(snap, 0, SummaryOptions{})
	require.NoError(t, err)

	assert.True(t, key.HasCharger)
	assert.Equal(t, "chrgr_sts_connected_charging", key.ChargerStatus)
	assert.Equal(t, "charging_active", key.ChargerState)
	assert.Equal(t, 85.0, key.BatteryLimit)
	assert.Equal(t, 95, key.MinutesToEndOfCharge)
}

func TestSummarize_ChargerStateWithoutStatusIgnored(t *testing.T) {
	snap := readySnapshot()
	snap.Signals[model.SignalChargerState] = sig("charging_ready")

	key, err := Summarize(snap, 0, SummaryOptions{})
	require.NoError(t, err)
	assert.False(t, key.HasCharger)
	assert.Empty(t, key.ChargerState)
}

func TestSummarize_MissingSignals(t *testing.T) {
	snap := readySnapshot()
	delete(snap.Signals, model.SignalBatteryLevel)
	delete(snap.Signals, model.SignalGearStatus)

	_, err := Summarize(snap, 0, SummaryOptions{})

	var malformed *model.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Contains(t, malformed.Reason, model.SignalBatteryLevel)
	assert.Contains(t, malformed.Reason, model.SignalGearStatus)
}

func TestSummarize_NilSnapshot(t *testing.T) {
	_, err := Summarize(nil, 0, SummaryOptions{})

	var malformed *model.MalformedResponseError
	assert.ErrorAs(t, err, &malformed)
}

func TestDiffers(t *testing.T) {
	a, err := Summarize(readySnapshot(), 0, SummaryOptions{IncludeLocation: true})
	require.NoError(t, err)

	t.Run("nil previous differs", func(t *testing.T) {
		assert.True(t, Differs(nil, a))
	})

	t.Run("identical keys do not differ", func(t *testing.T) {
		b := a
		assert.False(t, Differs(&a, b))
	})

	t.Run("signal timestamps do not matter", func(t *testing.T) {
		snap := readySnapshot()
		for name, s := range snap.Signals {
			s.TimeStamp = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
			snap.Signals[name] = s
		}
		b, err := Summarize(snap, 0, SummaryOptions{IncludeLocation: true})
		require.NoError(t, err)
		assert.False(t, Differs(&a, b))
	})

	t.Run("sub-display noise does not differ", func(t *testing.T) {
		snap := readySnapshot()
		snap.Signals[model.SignalBatteryLevel] = sig(80.01)
		b, err := Summarize(snap, 0.01, SummaryOptions{IncludeLocation: true})
		require.NoError(t, err)
		assert.False(t, Differs(&a, b))
	})

	t.Run("power change differs", func(t *testing.T) {
		snap := readySnapshot()
		snap.Signals[model.SignalPowerState] = sig("go")
		b, err := Summarize(snap, 0, SummaryOptions{IncludeLocation: true})
		require.NoError(t, err)
		assert.True(t, Differs(&a, b))
	})
}

func TestDeriveSpeed(t *testing.T) {
	tests := []struct {
		name    string
		last    float64
		current float64
		elapsed time.Duration
		units   model.UnitSystem
		want    float64
	}{
		{"one mile in an hour", 0, 1609, time.Hour, model.Imperial, 1.0},
		{"one kilometer in an hour", 0, 1000, time.Hour, model.Metric, 1.0},
		{"one mile in a minute", 1000, 2609, time.Minute, model.Imperial, 60.0},
		{"stationary", 500, 500, 30 * time.Second, model.Imperial, 0},
		{"zero elapsed", 0, 1609, 0, model.Imperial, 0},
		{"negative elapsed", 0, 1609, -time.Second, model.Metric, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveSpeed(tt.last, tt.current, tt.elapsed, tt.units)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
