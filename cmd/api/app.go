package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Niyant4280/bus-niyojak/internal/app"
	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
	"github.com/Niyant4280/bus-niyojak/internal/restapi"
)

const dbStatsInterval = 15 * time.Second

// ParseAPIKeys splits a comma-separated string of API keys and trims whitespace from each key.
// Returns an empty slice if the input is empty.
func ParseAPIKeys(apiKeysFlag string) []string {
	if apiKeysFlag == "" {
		return []string{}
	}

	keys := strings.Split(apiKeysFlag, ",")
	for i := range keys {
		keys[i] = strings.TrimSpace(keys[i])
	}
	return keys
}

// gtfsConfigFromFile maps the feed section of a JSON config onto the manager config.
func gtfsConfigFromFile(data appconf.GtfsConfigData, overlapThreshold float64) gtfs.Config {
	return gtfs.Config{
		GtfsURL:                data.GtfsURL,
		StaticAuthHeaderKey:    data.StaticAuthHeaderKey,
		StaticAuthHeaderValue:  data.StaticAuthHeaderValue,
		GTFSDataPath:           data.GTFSDataPath,
		DBDriver:               data.DBDriver,
		TidyFeed:               data.TidyFeed,
		Env:                    data.Env,
		Verbose:                data.Verbose,
		OverlapThresholdMeters: overlapThreshold,
	}
}

func newLogger(env appconf.Environment) *slog.Logger {
	level := slog.LevelInfo
	if env == appconf.Development {
		level = slog.LevelDebug
	}
	return logging.NewStructuredLogger(os.Stdout, level)
}

// newResponseCache connects to Redis when an address is configured and falls
// back to the in-process cache when it is not reachable.
func newResponseCache(cfg appconf.Config, logger *slog.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemoryCache(0, clock.RealClock{})
	}

	redisCache, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	if err != nil {
		logging.LogError(logger, "redis unavailable, using in-memory cache", err,
			slog.String("addr", cfg.RedisAddr))
		return cache.NewMemoryCache(0, clock.RealClock{})
	}
	return redisCache
}

// BuildApplication creates and initializes the Application with all dependencies:
// the logger, the GTFS manager, metrics and the response cache.
// Returns an error if GTFS manager initialization fails.
func BuildApplication(cfg appconf.Config, gtfsCfg gtfs.Config) (*app.Application, error) {
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	if gtfsCfg.OverlapThresholdMeters == 0 {
		gtfsCfg.OverlapThresholdMeters = cfg.OverlapThresholdMeters
	}

	gtfsManager, err := gtfs.InitGTFSManager(gtfsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GTFS manager: %w", err)
	}

	m := metrics.NewWithLogger(logger)
	gtfsManager.SetMetrics(m)
	if gtfsManager.GtfsDB != nil && gtfsManager.GtfsDB.DB != nil {
		m.StartDBStatsCollector(gtfsManager.GtfsDB.DB.DB, dbStatsInterval)
	}

	coreApp := &app.Application{
		Config:      cfg,
		GtfsConfig:  gtfsCfg,
		Logger:      logger,
		GtfsManager: gtfsManager,
		Clock:       clock.RealClock{},
		Metrics:     m,
		Cache:       newResponseCache(cfg, logger),
	}

	return coreApp, nil
}

// CreateServer creates the HTTP server around the REST API handler chain.
// The returned RestAPI must be shut down with the application.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      api.Handler(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}

	return srv, api
}

// shutdownApplication releases everything BuildApplication and CreateServer started.
func shutdownApplication(coreApp *app.Application, api *restapi.RestAPI) {
	if api != nil {
		api.Shutdown()
	}
	if coreApp == nil {
		return
	}
	if coreApp.GtfsManager != nil {
		coreApp.GtfsManager.Shutdown()
	}
	if coreApp.Metrics != nil {
		coreApp.Metrics.Shutdown()
	}
	if coreApp.Cache != nil {
		logging.SafeCloseWithLogging(coreApp.Cache, coreApp.Logger, "response_cache")
	}
}

// Run manages the server lifecycle with graceful shutdown.
// Starts the server in a goroutine, waits for shutdown signals (SIGINT, SIGTERM),
// and performs graceful shutdown with a 30-second timeout.
func Run(srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, coreApp, api)
}

func serve(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	logger := coreApp.Logger
	logger.Info("starting server", "addr", srv.Addr)

	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		shutdownApplication(coreApp, api)
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		shutdownApplication(coreApp, api)
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	shutdownApplication(coreApp, api)

	logger.Info("server exited")
	return nil
}
