package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ericfisherdev/heartsync/internal/adapter/driven/browser"
	postgresadapter "github.com/ericfisherdev/heartsync/internal/adapter/driven/postgres"
	sqliteadapter "github.com/ericfisherdev/heartsync/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/heartsync/internal/adapter/driven/whoop"
	"github.com/ericfisherdev/heartsync/internal/application"
	"github.com/ericfisherdev/heartsync/internal/config"
	"github.com/ericfisherdev/heartsync/internal/domain/port/driven"
)

// setup loads configuration and installs the default logger.
func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(newLogger(os.Stderr, cfg))

	slog.Info("config loaded",
		"storage_driver", cfg.StorageDriver,
		"sync_interval", cfg.SyncInterval,
		"sync_schedule", cfg.SyncSchedule,
		"listen_addr", cfg.ListenAddr,
		"api_base_url", cfg.APIBaseURL,
	)
	return cfg, nil
}

// openStore opens the configured database, applies migrations and returns the
// sample store with its closer.
func openStore(ctx context.Context, cfg *config.Config) (driven.SampleStore, func() error, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("database opened", "driver", cfg.StorageDriver, "path", cfg.SQLitePath)
		return sqliteadapter.NewSampleRepo(db), db.Close, nil

	case config.DriverPostgres:
		db, err := postgresadapter.Open(ctx, cfg.Postgres.DSN())
		if err != nil {
			return nil, nil, err
		}
		if err := postgresadapter.RunMigrations(db); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		slog.Info("database opened",
			"driver", cfg.StorageDriver,
			"host", cfg.Postgres.Host,
			"port", cfg.Postgres.Port,
			"database", cfg.Postgres.Name,
		)
		return postgresadapter.NewSampleRepo(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// newSyncService wires the login, metrics and session collaborators around store.
func newSyncService(cfg *config.Config, store driven.SampleStore) (*application.SyncService, error) {
	auth, err := browser.NewAuthenticator(browser.Config{
		LoginURL:    cfg.LoginURL,
		SuccessPath: cfg.LoginSuccessPath,
		Email:       cfg.LoginEmail,
		Password:    cfg.LoginPassword,
		Headless:    cfg.BrowserHeadless,
		ChromePath:  cfg.ChromePath,
		Timeout:     cfg.LoginTimeout,
	})
	if err != nil {
		return nil, err
	}

	client, err := whoop.NewClient(cfg.APIBaseURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	schedule, err := application.NewSchedule(cfg.SyncInterval, cfg.SyncSchedule)
	if err != nil {
		return nil, err
	}

	return application.NewSyncService(
		auth,
		client,
		store,
		application.NewMemorySessionCache(nil),
		schedule,
	), nil
}

func closeStore(closer func() error) {
	if err := closer(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
