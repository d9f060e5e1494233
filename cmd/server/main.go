package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bbernstein/shiptracker/internal/config"
	"github.com/bbernstein/shiptracker/internal/server"
	"github.com/bbernstein/shiptracker/internal/tracker"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	cfg.InitializeLogging()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := tracker.NewFromConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise service")
	}

	log.Info().
		Str("mmsi", cfg.MMSI).
		Int("refresh_interval", cfg.RefreshIntervalSeconds).
		Str("plugin_uuid", cfg.TRMNLPluginUUID).
		Msg("Starting TRMNL Ship Tracker")

	if err := server.Run(ctx, cfg.Addr(), server.NewRouter(svc, cfg)); err != nil {
		log.Fatal().Err(err).Msg("Server stopped with error")
	}
	log.Info().Msg("Server stopped")
}
