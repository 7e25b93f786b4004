package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/luna/lunago/internal/animate"
	"github.com/luna/lunago/internal/api"
	"github.com/luna/lunago/internal/auth"
	"github.com/luna/lunago/internal/config"
	"github.com/luna/lunago/internal/coverage"
	"github.com/luna/lunago/internal/metrics"
	"github.com/luna/lunago/internal/orbit"
	"github.com/luna/lunago/internal/session"
	"github.com/luna/lunago/internal/stream"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	configPath := flag.String("config", os.Getenv("LUNAGO_CONFIG"), "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	model, err := coverage.ParseModel(cfg.Coverage.Model)
	if err != nil {
		logger.Error("invalid coverage model", "model", cfg.Coverage.Model, "error", err)
		os.Exit(1)
	}

	// Derive the satellite count and build the constellation once at
	// startup. Everything downstream reads this immutable session.
	sess, err := session.New(coverage.Params{
		BodyRadiusKm:   cfg.Body.RadiusKm,
		AltitudeKm:     cfg.Orbit.AltitudeKm,
		FieldOfViewDeg: cfg.Coverage.FieldOfViewDeg,
	}, cfg.Orbit.InclinationDeg, cfg.Orbit.VerticalOffsetKm, model)
	if err != nil {
		logger.Error("invalid constellation parameters", "error", err)
		os.Exit(1)
	}

	store := session.NewStore()
	store.Set(sess)
	metrics.SetSatelliteCount(sess.SatelliteCount)

	logger.Info("constellation configured",
		"body_radius_km", sess.Params.BodyRadiusKm,
		"altitude_km", sess.Params.AltitudeKm,
		"orbit_radius_km", sess.Params.OrbitRadiusKm(),
		"fov_deg", sess.Params.FieldOfViewDeg,
		"inclination_deg", sess.InclinationDeg,
		"coverage_model", string(sess.CoverageModel),
		"satellite_count", sess.SatelliteCount,
	)

	clock, err := animate.NewClock(cfg.Animation.Steps, cfg.FrameInterval(), logger)
	if err != nil {
		logger.Error("invalid animation configuration", "error", err)
		os.Exit(1)
	}

	pool := orbit.NewPool(cfg.Workers, logger)

	streamCfg := stream.Config{
		MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
		MaxConcurrentTotal: cfg.Stream.MaxConcurrentTotal,
		KeepaliveInterval:  cfg.Keepalive(),
	}
	streamHandler := stream.NewHandler(store, clock, pool, streamCfg, logger)

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	srv := api.NewServer(cfg.HTTP.Addr, store, clock, pool, streamHandler, logger, authCfg)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Publish the animation phase gauge while the server runs.
	go clock.Start(ctx)

	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", authCfg.Enabled,
			"workers", cfg.Workers,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
