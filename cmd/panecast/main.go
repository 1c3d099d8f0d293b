package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/panecast/panecast/internal/config"
	"github.com/panecast/panecast/internal/relay"
	"github.com/panecast/panecast/internal/server"
	"github.com/panecast/panecast/internal/store/object"
	"github.com/panecast/panecast/internal/store/postgres"
	redisstore "github.com/panecast/panecast/internal/store/redis"
	"github.com/panecast/panecast/internal/tmux"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// Initialize structured logging from environment.
	logLevel := os.Getenv("PANECAST_LOG_LEVEL")
	level, parseErr := zerolog.ParseLevel(logLevel)
	if parseErr != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logFormat := os.Getenv("PANECAST_LOG_FORMAT")
	if logFormat == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	ctx := context.Background()

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Database.MaxConns < 0 || cfg.Database.MaxConns > math.MaxInt32 {
		return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
	}

	// Connect to PostgreSQL.
	store, err := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
	if err != nil {
		return err
	}
	defer store.Close()

	// Connect to Redis.
	pubsub, err := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	defer pubsub.Close()

	// Connect to object storage for finished recordings.
	objects, err := object.New(
		cfg.Storage.Endpoint,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.UseSSL,
	)
	if err != nil {
		return err
	}
	if err := objects.EnsureBucket(ctx); err != nil {
		return err
	}

	// The multiplexer must be reachable before any stream can start.
	mux := tmux.NewClient()
	if err := mux.Available(); err != nil {
		return err
	}

	// Create the capture-and-relay engine.
	engine := relay.NewEngine(
		mux,
		pubsub,
		objects,
		store.Snapshots(),
		store.Recordings(),
		store.StreamState(),
		relay.Options{
			WorkDir:       cfg.Relay.WorkDir,
			FlushBytes:    cfg.Relay.FlushBytes,
			FlushInterval: cfg.Relay.FlushInterval,
			CaptureLines:  cfg.Relay.CaptureLines,
		},
	)

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, store, pubsub, engine)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Error().Err(shutdownErr).Msg("http shutdown")
	}

	// Stop all active streams last so every transcript is flushed,
	// uploaded, and cleaned up before the process exits.
	engine.ShutdownAllStreams(shutdownCtx)

	log.Info().Msg("stopped")
	return nil
}
