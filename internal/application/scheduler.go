// Package application contains use-case orchestration services.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/rivianctl/internal/domain/model"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// Scheduler defaults.
const (
	DefaultPollInterval = 30 * time.Second
	DefaultLongPause    = 40 * time.Minute
)

// Clock is the subset of k8s.io/utils/clock.Clock the scheduler needs.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SchedulerConfig holds the poll loop settings.
type SchedulerConfig struct {
	PollInterval time.Duration
	// InactivityThreshold enables the long pause when positive.
	InactivityThreshold time.Duration
	LongPause           time.Duration
	ShowAll             bool
	SingleShot          bool
	Units               model.UnitSystem
	IncludeLocation     bool
}

// DefaultSchedulerConfig returns the poll loop defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		PollInterval:    DefaultPollInterval,
		LongPause:       DefaultLongPause,
		IncludeLocation: true,
	}
}

// Scheduler samples vehicle telemetry, reports changes and adapts its
// cadence to vehicle activity.
type Scheduler struct {
	source   driven.TelemetrySource
	reporter driven.Reporter
	clock    Clock
	cfg      SchedulerConfig
}

// NewScheduler creates a Scheduler.
func NewScheduler(source driven.TelemetrySource, reporter driven.Reporter, clk Clock, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		source:   source,
		reporter: reporter,
		clock:    clk,
		cfg:      cfg,
	}
}

// Run polls vehicleID until ctx is cancelled, or once in single-shot mode.
// Transport and malformed-response failures are reported as offline and
// never end the loop. Run returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context, session model.AuthenticatedContext, vehicleID string) error {
	if vehicleID == "" {
		return errors.New("scheduler: vehicle id is required")
	}
	if s.cfg.PollInterval <= 0 {
		return fmt.Errorf("scheduler: poll interval must be positive, got %s", s.cfg.PollInterval)
	}
	if s.cfg.InactivityThreshold > 0 && s.cfg.LongPause <= 0 {
		return fmt.Errorf("scheduler: long pause must be positive, got %s", s.cfg.LongPause)
	}

	slog.Info("polling vehicle state",
		"vehicle_id", vehicleID,
		"interval", s.cfg.PollInterval,
		"inactivity_threshold", s.cfg.InactivityThreshold,
		"long_pause", s.cfg.LongPause,
	)

	st := &pollState{}
	for {
		now, key, err := s.sample(ctx, session, vehicleID, st)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.markOffline(st, err, vehicleID)
			if !s.sleep(ctx, s.cfg.PollInterval) {
				return nil
			}
			continue
		}

		st.offline = false
		st.samples++
		if s.cfg.ShowAll || s.cfg.SingleShot || Differs(st.lastKey, key) {
			s.reporter.Line(now, key)
			st.lastChangeAt = now
		}
		st.lastKey = &key

		if s.cfg.SingleShot {
			return nil
		}

		if !s.wait(ctx, st) {
			return nil
		}
	}
}

// sample fetches one snapshot and folds it into st. On error st is left
// untouched.
func (s *Scheduler) sample(ctx context.Context, session model.AuthenticatedContext, vehicleID string, st *pollState) (time.Time, model.ComparableKey, error) {
	snap, err := s.source.FetchSnapshot(ctx, session, vehicleID, model.TierMinimal)
	if err != nil {
		return time.Time{}, model.ComparableKey{}, err
	}

	now := s.clock.Now()
	var speed float64
	mileage, hasMileage := snap.Float(model.SignalVehicleMileage)
	if hasMileage {
		speed = st.speedAt(mileage, now, s.cfg.Units)
	}

	key, err := Summarize(snap, speed, SummaryOptions{Units: s.cfg.Units, IncludeLocation: s.cfg.IncludeLocation})
	if err != nil {
		return time.Time{}, model.ComparableKey{}, err
	}

	st.observePower(key.PowerState)
	st.lastMileage = &mileage
	st.lastSampleAt = now
	return now, key, nil
}

func (s *Scheduler) markOffline(st *pollState, err error, vehicleID string) {
	slog.Debug("vehicle state unavailable", "vehicle_id", vehicleID, "error", err)
	if !st.offline {
		s.reporter.Offline(s.clock.Now())
	}
	st.offline = true
	st.lastKey = nil
}

// wait sleeps according to planSleep. It returns false when ctx ends first.
func (s *Scheduler) wait(ctx context.Context, st *pollState) bool {
	now := s.clock.Now()
	kind, d := planSleep(s.cfg, st, now)
	if kind != SleepLongPause {
		return s.sleep(ctx, d)
	}

	s.reporter.Notice(now, fmt.Sprintf("Sleeping for %d minutes", int(d.Minutes())))
	st.longPauseUsed = true
	if !s.sleep(ctx, d) {
		return false
	}
	s.reporter.Notice(s.clock.Now(), fmt.Sprintf("Back to polling every %d seconds, showing changes only", int(s.cfg.PollInterval.Seconds())))
	return true
}

func (s *Scheduler) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-s.clock.After(d):
		return ctx.Err() == nil
	}
}
