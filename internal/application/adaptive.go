package application

import (
	"time"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

// SleepKind classifies the wait between two samples.
type SleepKind int

const (
	// SleepInterval waits the regular poll interval.
	SleepInterval SleepKind = iota
	// SleepLongPause waits the long pause after a stretch of inactivity.
	SleepLongPause
)

// String returns a human-readable name for the sleep kind.
func (k SleepKind) String() string {
	switch k {
	case SleepInterval:
		return "interval"
	case SleepLongPause:
		return "long_pause"
	default:
		return "unknown"
	}
}

// pollState is the mutable state carried between loop iterations.
type pollState struct {
	lastKey        *model.ComparableKey
	lastPowerState string
	lastMileage    *float64
	lastSampleAt   time.Time
	lastChangeAt   time.Time
	samples        int
	offline        bool
	longPauseUsed  bool
}

// observePower records the latest power state. The long pause allowance is
// restored whenever the vehicle was not ready on both this and the previous
// sample, so it is spent at most once per continuous ready stretch.
func (st *pollState) observePower(power string) {
	if st.lastPowerState != model.PowerStateReady || power != model.PowerStateReady {
		st.longPauseUsed = false
	}
	st.lastPowerState = power
}

// speedAt derives speed from the previous successful sample, or zero when
// there is none.
func (st *pollState) speedAt(mileage float64, now time.Time, units model.UnitSystem) float64 {
	if st.lastMileage == nil || st.lastSampleAt.IsZero() {
		return 0
	}
	return DeriveSpeed(*st.lastMileage, mileage, now.Sub(st.lastSampleAt), units)
}

// planSleep decides how long to wait after a successful sample. A sleeping
// vehicle is polled at the regular interval. The long pause is taken only
// after the first sample, when inactivity detection is enabled, the
// allowance is unspent and nothing has been reported for the threshold.
func planSleep(cfg SchedulerConfig, st *pollState, now time.Time) (SleepKind, time.Duration) {
	if st.lastPowerState == model.PowerStateSleep {
		return SleepInterval, cfg.PollInterval
	}
	if cfg.InactivityThreshold <= 0 || st.longPauseUsed || st.samples <= 1 || st.lastChangeAt.IsZero() {
		return SleepInterval, cfg.PollInterval
	}
	if now.Sub(st.lastChangeAt) >= cfg.InactivityThreshold {
		return SleepLongPause, cfg.LongPause
	}
	return SleepInterval, cfg.PollInterval
}
