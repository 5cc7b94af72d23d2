// Package cli is the command-line driving adapter.
package cli

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ericfisherdev/rivianctl/internal/application"
	"github.com/ericfisherdev/rivianctl/internal/config"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

// Services are the application services one command run needs.
type Services struct {
	Sessions  *application.SessionManager
	Accounts  *application.AccountService
	Telemetry driven.TelemetrySource
	Clock     application.Clock
}

// Factory builds Services for a run. The returned cleanup is always safe to
// call when err is nil.
type Factory func(ctx context.Context) (*Services, func(), error)

// Options are the parsed command-line flags.
type Options struct {
	Login         bool
	VehicleOrders bool
	Vehicles      bool
	State         bool
	Poll          bool
	Query         bool
	All           bool

	VehicleID      string
	PollFrequency  time.Duration
	PollShowAll    bool
	InactivityWait time.Duration
	SleepWait      time.Duration

	Metric  bool
	Privacy bool
	Verbose bool
}

// needsVehicle reports whether any selected command queries a vehicle.
func (o Options) needsVehicle() bool {
	return o.Vehicles || o.State || o.Poll || o.Query || o.All
}

func (o Options) anySelected() bool {
	return o.Login || o.VehicleOrders || o.needsVehicle()
}

// NewRootCommand creates the rivianctl command. Flag defaults come from cfg;
// level is lowered to debug by --verbose.
func NewRootCommand(cfg *config.Config, level *slog.LevelVar, factory Factory, stdin io.Reader) *cobra.Command {
	opts := Options{}

	cmd := &cobra.Command{
		Use:           "rivianctl",
		Short:         "Query and poll a Rivian vehicle from the command line",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.Verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !opts.anySelected() {
				return cmd.Help()
			}
			r := &runner{
				cfg:     cfg,
				opts:    opts,
				factory: factory,
				stdin:   stdin,
				out:     cmd.OutOrStdout(),
				errOut:  cmd.ErrOrStderr(),
			}
			return r.run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.Login, "login", false, "Log in with RIVIAN_USERNAME and RIVIAN_PASSWORD and save the session")
	f.BoolVar(&opts.VehicleOrders, "vehicle-orders", false, "Display vehicle orders")
	f.BoolVar(&opts.Vehicles, "vehicles", false, "Display vehicles")
	f.BoolVar(&opts.State, "state", false, "Display the full vehicle state")
	f.BoolVar(&opts.Poll, "poll", false, "Poll vehicle state, showing changes only")
	f.BoolVar(&opts.Query, "query", false, "Print a single poll line")
	f.BoolVar(&opts.All, "all", false, "Run every command with output discarded")
	f.StringVar(&opts.VehicleID, "vehicle-id", "", "Vehicle to query (defaults to the first one found)")
	f.DurationVar(&opts.PollFrequency, "poll-frequency", cfg.PollInterval, "Interval between polls")
	f.BoolVar(&opts.PollShowAll, "poll-show-all", false, "Print every poll, not only changes")
	f.DurationVar(&opts.InactivityWait, "poll-inactivity-wait", cfg.InactivityWait,
		"Idle time while ready before pausing polling once so the car can sleep (0 disables)")
	f.DurationVar(&opts.SleepWait, "poll-sleep-wait", cfg.SleepWait, "Length of the inactivity pause")
	f.BoolVar(&opts.Metric, "metric", false, "Use metric units")
	f.BoolVar(&opts.Privacy, "privacy", false, "Mask order ids, VINs and location")
	f.BoolVar(&opts.Verbose, "verbose", false, "Log debug output including raw responses")

	return cmd
}
