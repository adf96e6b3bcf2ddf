package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/guardtowers/config"
	"github.com/domino14/guardtowers/evaluation"
	"github.com/domino14/guardtowers/gameclient"
	"github.com/domino14/guardtowers/metrics"
	"github.com/domino14/guardtowers/negamax"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg.AdjustRelativePaths(exPath)

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := metrics.Serve(ctx, cfg.GetString(config.ConfigMetricsAddr)); err != nil {
			log.Err(err).Msg("metrics-server-failed")
		}
	}()

	params := evaluation.LoadParamsOrDefault(cfg.GetString(config.ConfigParamsPath))
	c, err := gameclient.Dial(ctx, gameclient.OptionsFromConfig(cfg), negamax.NewSolverFromConfig(cfg), params)
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-connect")
	}
	defer c.Close()

	if err := c.Run(ctx); err != nil {
		log.Error().Err(err).Msg("game-client-stopped")
		return
	}
	log.Info().Msg("closing connection")
}
