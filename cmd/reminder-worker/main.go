package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlasclinic/clinic-admin/internal/appointment"
	"github.com/atlasclinic/clinic-admin/internal/config"
	"github.com/atlasclinic/clinic-admin/internal/db"
)

// The reminder worker keeps each patient's last and next appointment
// markers current so the front desk sees them without a join on every
// list request.
func main() {
	cfg, err := config.Load()
	if err != nil {
		stderrLogger := zerolog.New(os.Stderr)
		stderrLogger.Fatal().Err(err).Msg("config load error")
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "reminder-worker").Logger()
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.WorkerInterval).Msg("reminder-worker starting up")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.Connect(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	repo := appointment.NewPgRepository(pgPool)

	// Run once at startup
	runOnce(rootCtx, repo, logger)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, repo, logger)
		}
	}
}

func runOnce(ctx context.Context, repo appointment.Repository, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	if err := repo.RefreshPatientMarkers(runCtx, start); err != nil {
		logger.Error().Err(err).Msg("marker refresh failed")
		return
	}
	logger.Info().Dur("took", time.Since(start)).Msg("marker refresh complete")
}
