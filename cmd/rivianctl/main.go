package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container
	"k8s.io/utils/clock"

	rivianadapter "github.com/ericfisherdev/rivianctl/internal/adapter/driven/rivian"
	sqliteadapter "github.com/ericfisherdev/rivianctl/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/rivianctl/internal/adapter/driven/statefile"
	"github.com/ericfisherdev/rivianctl/internal/adapter/driving/cli"
	"github.com/ericfisherdev/rivianctl/internal/application"
	"github.com/ericfisherdev/rivianctl/internal/config"
	"github.com/ericfisherdev/rivianctl/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Setup logging on stderr; --verbose lowers the level later.
	level := new(slog.LevelVar)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// 2. Load .env (optional) and configuration (fail fast on invalid values).
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// 3. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 4. Wire adapters lazily so --help never touches the state store.
	factory := func(ctx context.Context) (*cli.Services, func(), error) {
		slog.Debug("config loaded",
			"state_backend", cfg.StateBackend,
			"state_path", cfg.StatePath,
			"base_url", cfg.BaseURL,
			"authorization_override", cfg.Authorization != nil,
		)

		store, closeStore, err := openCredentialStore(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}

		client := rivianadapter.NewClient(cfg.BaseURL)
		credentials := application.NewOverrideCredentialStore(cfg.Authorization, store)

		return &cli.Services{
			Sessions:  application.NewSessionManager(client, credentials, application.DefaultBootstrapInterval),
			Accounts:  application.NewAccountService(client),
			Telemetry: client,
			Clock:     clock.RealClock{},
		}, closeStore, nil
	}

	// 5. Run the command.
	cmd := cli.NewRootCommand(cfg, level, factory, os.Stdin)
	return cmd.ExecuteContext(ctx)
}

// openCredentialStore opens the configured credential store backend.
func openCredentialStore(ctx context.Context, cfg *config.Config) (driven.CredentialStore, func(), error) {
	if cfg.StateBackend == config.BackendFile {
		slog.Debug("credential store opened", "backend", cfg.StateBackend, "path", cfg.StatePath)
		return statefile.NewStore(cfg.StatePath), func() {}, nil
	}

	db, err := sqliteadapter.NewDB(ctx, cfg.StatePath)
	if err != nil {
		return nil, nil, err
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	slog.Debug("credential store opened", "backend", cfg.StateBackend, "path", db.Path(), "schema_version", version)

	return sqliteadapter.NewCredentialRepo(db), closeDB, nil
}
