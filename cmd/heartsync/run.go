package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httphandler "github.com/ericfisherdev/heartsync/internal/adapter/driving/http"
	"github.com/ericfisherdev/heartsync/internal/application"
)

// cycleDrainTimeout bounds how long shutdown waits for an in-flight cycle.
const cycleDrainTimeout = 2 * time.Minute

func runService(parent context.Context) error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := setup()
	if err != nil {
		return err
	}

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open storage and run migrations.
	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(closer)

	// 4. Wire the sync service.
	syncSvc, err := newSyncService(cfg, store)
	if err != nil {
		return err
	}

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		syncSvc.Start(ctx)
	}()

	// 5. HTTP API (optional).
	var srv *http.Server
	if cfg.ListenAddr != "" {
		srv = newServer(cfg.ListenAddr, syncSvc)
		go func() {
			slog.Info("http server starting", "addr", cfg.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("http server error", "error", err)
			}
		}()
	} else {
		slog.Info("http server disabled")
	}

	slog.Info("heartsync started",
		"storage_driver", cfg.StorageDriver,
		"listen_addr", cfg.ListenAddr,
	)

	// 6. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 7. Graceful shutdown: stop accepting requests, then let the in-flight cycle finish.
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown error", "error", err)
		}
	}

	select {
	case <-loopDone:
	case <-time.After(cycleDrainTimeout):
		slog.Warn("abandoning in-flight sync cycle", "waited", cycleDrainTimeout)
	}

	slog.Info("shutdown complete")
	return nil
}

func newServer(addr string, syncSvc *application.SyncService) *http.Server {
	apiHandler := httphandler.NewHandler(syncSvc, slog.Default())

	return &http.Server{
		Addr:              addr,
		Handler:           httphandler.NewServeMux(apiHandler, slog.Default()),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// A manual sync may include a browser login.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}
}

// runOnce runs exactly one cycle and reports its outcome through the exit code.
func runOnce(parent context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(closer)

	syncSvc, err := newSyncService(cfg, store)
	if err != nil {
		return err
	}

	result, err := syncSvc.RunCycle(ctx)
	if err != nil {
		slog.Error("sync cycle failed",
			"cycle_id", result.CycleID,
			"kind", application.ErrorKind(err),
			"error", err,
		)
		return err
	}

	slog.Info("sync cycle complete",
		"cycle_id", result.CycleID,
		"user_id", result.UserID,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
		"duration", result.Duration.Round(time.Millisecond),
	)
	return nil
}

func runMigrate(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	_, closer, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	closeStore(closer)

	slog.Info("migrations complete")
	return nil
}
