package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/SwitchbackEngineer/anise/internal/api"
	"github.com/SwitchbackEngineer/anise/internal/auth"
	"github.com/SwitchbackEngineer/anise/internal/metaload"
	"github.com/SwitchbackEngineer/anise/internal/metrics"
	"github.com/SwitchbackEngineer/anise/internal/series"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))

	metafile := os.Getenv("ANISE_METAFILE")
	if metafile == "" {
		logger.Error("ANISE_METAFILE is required (path to the kernel metafile)")
		os.Exit(1)
	}

	cfg, err := metaload.ParseConfig(metafile)
	if err != nil {
		logger.Error("invalid metafile", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loadStart := time.Now()
	alm, err := metaload.Load(ctx, cfg, logger)
	if err != nil {
		logger.Error("kernel load failed", "error", err)
		os.Exit(1)
	}
	logger.Info("kernels loaded", "duration_ms", time.Since(loadStart).Milliseconds())

	metrics.SetKernelsLoaded("spk", alm.NumSPK())
	metrics.SetKernelsLoaded("bpc", alm.NumBPC())
	metrics.SetKernelsLoaded("pca", boolToInt(alm.HasPlanetaryData()))
	metrics.SetKernelsLoaded("epa", boolToInt(alm.HasEulerParameters()))

	authCfg := loadAuthConfig(logger)
	apiCfg := loadAPIConfig(logger)
	pool := series.NewPool(envInt("ANISE_WORKERS", 0), logger)

	srv := api.NewServer(apiCfg, alm, pool, authCfg, logger)

	go func() {
		logger.Info("starting server", "addr", apiCfg.Addr, "auth_enabled", authCfg.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server listen error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func logLevel() slog.Level {
	switch os.Getenv("ANISE_LOG_LEVEL") {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func loadAuthConfig(logger *slog.Logger) auth.Config {
	token := os.Getenv("ANISE_API_TOKEN")
	if token == "" {
		logger.Info("auth disabled (ANISE_API_TOKEN not set)")
		return auth.Config{}
	}
	return auth.Config{Enabled: true, Token: token}
}

func loadAPIConfig(logger *slog.Logger) api.Config {
	cfg := api.Config{
		Addr:            envString("ANISE_HTTP_ADDR", ":8080"),
		TrustProxy:      os.Getenv("ANISE_TRUST_PROXY") == "true",
		RatePerSecond:   envFloat("ANISE_RATE_PER_SECOND", 50),
		RateBurst:       envInt("ANISE_RATE_BURST", 100),
		SeriesMaxPoints: envInt("ANISE_SERIES_MAX_POINTS", 100000),
	}
	logger.Info("api config",
		"addr", cfg.Addr,
		"trust_proxy", cfg.TrustProxy,
		"rate_per_second", cfg.RatePerSecond,
		"series_max_points", cfg.SeriesMaxPoints,
	)
	return cfg
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
