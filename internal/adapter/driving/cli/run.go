package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ericfisherdev/rivianctl/internal/adapter/driven/console"
	"github.com/ericfisherdev/rivianctl/internal/application"
	"github.com/ericfisherdev/rivianctl/internal/config"
	"github.com/ericfisherdev/rivianctl/internal/domain/model"
)

type runner struct {
	cfg     *config.Config
	opts    Options
	factory Factory
	stdin   io.Reader
	out     io.Writer
	errOut  io.Writer
}

func (r *runner) units() model.UnitSystem {
	if r.opts.Metric {
		return model.Metric
	}
	return model.Imperial
}

func (r *runner) run(ctx context.Context) error {
	out := r.out
	if r.opts.All {
		fmt.Fprintln(out, "Running all commands silently")
		out = io.Discard
	}

	svc, cleanup, err := r.factory(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if r.opts.Login {
		if !r.cfg.HasPasswordCredentials() {
			return errors.New("--login requires RIVIAN_USERNAME and RIVIAN_PASSWORD")
		}
		if _, err := svc.Sessions.Login(ctx, r.cfg.Username, r.cfg.Password, r.promptOTP); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Fprintln(out, "Login successful")
	}

	if !r.opts.VehicleOrders && !r.opts.needsVehicle() {
		return nil
	}

	session, err := svc.Sessions.Session(ctx)
	if err != nil {
		return err
	}

	if err := r.runAccount(ctx, svc, session, out); err != nil {
		return err
	}

	if r.opts.All {
		fmt.Fprintln(r.out, "All commands ran and no exceptions encountered")
	}
	return nil
}

func (r *runner) runAccount(ctx context.Context, svc *Services, session model.AuthenticatedContext, out io.Writer) error {
	reportOpts := console.ReportOptions{Units: r.units(), Privacy: r.opts.Privacy}
	vehicleID := r.opts.VehicleID
	resolve := r.opts.needsVehicle() && vehicleID == ""

	var orders []model.VehicleOrder
	if r.opts.VehicleOrders || r.opts.All || resolve {
		var err error
		if orders, err = svc.Accounts.ListOrders(ctx, session); err != nil {
			return err
		}
	}
	if r.opts.VehicleOrders || r.opts.All {
		console.WriteOrders(out, orders, reportOpts)
	}

	if r.opts.Vehicles || r.opts.All || resolve {
		vehicles, err := svc.Accounts.ListVehicles(ctx, session, orders)
		if err != nil {
			return err
		}
		if vehicleID, err = application.ResolveVehicle(vehicles, r.opts.VehicleID); err != nil {
			return err
		}
		if r.opts.Vehicles || r.opts.All {
			console.WriteVehicles(out, vehicles, reportOpts)
		}
	}

	if r.opts.State || r.opts.All {
		snap, err := svc.Telemetry.FetchSnapshot(ctx, session, vehicleID, model.TierFull)
		if err != nil {
			slog.Warn("vehicle state unavailable", "vehicle_id", vehicleID, "error", err)
			snap = nil
		}
		console.WriteVehicleState(out, snap, reportOpts)
	}

	if r.opts.Poll || r.opts.Query || r.opts.All {
		return r.runPoll(ctx, svc, session, vehicleID, out)
	}
	return nil
}

func (r *runner) runPoll(ctx context.Context, svc *Services, session model.AuthenticatedContext, vehicleID string, out io.Writer) error {
	singleShot := r.opts.Query || r.opts.All
	reporter := console.NewPollReporter(out, r.units(), !r.opts.Privacy)
	if !singleShot {
		reporter.Intro(r.opts.PollFrequency, r.opts.InactivityWait, r.opts.SleepWait)
	}
	reporter.Header()

	scheduler := application.NewScheduler(svc.Telemetry, reporter, svc.Clock, application.SchedulerConfig{
		PollInterval:        r.opts.PollFrequency,
		InactivityThreshold: r.opts.InactivityWait,
		LongPause:           r.opts.SleepWait,
		ShowAll:             r.opts.PollShowAll,
		SingleShot:          singleShot,
		Units:               r.units(),
		IncludeLocation:     !r.opts.Privacy,
	})
	return scheduler.Run(ctx, session, vehicleID)
}

// promptOTP reads a one-time passcode from stdin.
func (r *runner) promptOTP(ctx context.Context) (string, error) {
	fmt.Fprint(r.errOut, "Enter OTP: ")

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := bufio.NewReader(r.stdin).ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		code := strings.TrimSpace(res.line)
		if code == "" {
			if res.err != nil {
				return "", res.err
			}
			return "", errors.New("empty one-time passcode")
		}
		return code, nil
	}
}
