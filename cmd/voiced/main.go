package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/voiceroom/internal/adapters/http"
	"github.com/dkeye/voiceroom/internal/app"
	"github.com/dkeye/voiceroom/internal/audio"
	"github.com/dkeye/voiceroom/internal/config"
	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/transport/gateway"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("voiced stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("voiced exited gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	device := audio.NewClockDevice(cfg.Audio.SampleRate, cfg.Audio.BufferSize)
	engine := audio.NewEngine(device, audio.EngineOptions{MaxFrames: cfg.Audio.BufferSize})

	factory := gateway.NewFactory(gateway.Config{PingPeriod: cfg.PingPeriod})
	apm := cfg.Audio.APM
	reg := app.NewRegistry(factory, core.Options{
		Gateway:   cfg.GatewayURL,
		Autopilot: cfg.Autopilot,
		APM:       &apm,
		Graph:     engine,
	})

	if err := engine.Start(); err != nil {
		return fmt.Errorf("start audio engine: %w", err)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router.SetupRouter(ctx, cfg, router.Deps{Registry: reg, Graph: engine}),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Dur("period", device.Period()).Msg("voiced started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := reg.CloseAll(); err != nil {
			errs = append(errs, fmt.Errorf("close sessions: %w", err))
		}
		if err := engine.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audio engine: %w", err))
		}
		return errors.Join(errs...)
	})
	return g.Wait()
}
