package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cablecast/cablecast/internal/config"
	"github.com/cablecast/cablecast/internal/db"
	"github.com/cablecast/cablecast/internal/logger"
	"github.com/cablecast/cablecast/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init("info", false)
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Pretty)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create data directory")
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sqlDB, err := database.GetSQLDB()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to access database connection")
	}
	if err := db.RunMigrations(sqlDB, "file://./migrations"); err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	srv, err := server.New(cfg, database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create server")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-errChan:
		logger.Log.Error().Err(err).Msg("Server failed")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
