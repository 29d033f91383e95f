package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
)

func main() {
	var cfg appconf.Config
	var gtfsCfg gtfs.Config
	var apiKeysFlag string
	var exemptKeysFlag string
	var envFlag string
	var configPath string

	flag.StringVar(&configPath, "config", "", "Path to a JSON config file; when set, the other flags are ignored")
	flag.IntVar(&cfg.Port, "port", 4000, "API server port")
	flag.StringVar(&envFlag, "env", "development", "Environment (development|test|production)")
	flag.StringVar(&apiKeysFlag, "api-keys", "test", "Comma Separated API Keys (test, etc)")
	flag.StringVar(&exemptKeysFlag, "exempt-api-keys", "", "Comma Separated API Keys that bypass rate limiting")
	flag.IntVar(&cfg.RateLimit, "rate-limit", 100, "Requests per second per API key for rate limiting")
	flag.StringVar(&gtfsCfg.GtfsURL, "gtfs-url", "./testdata/delhi-metro", "URL, zip file or directory of a static GTFS feed")
	flag.StringVar(&gtfsCfg.StaticAuthHeaderKey, "gtfs-auth-header-name", "", "Optional header name for static feed auth")
	flag.StringVar(&gtfsCfg.StaticAuthHeaderValue, "gtfs-auth-header-value", "", "Optional header value for static feed auth")
	flag.StringVar(&gtfsCfg.GTFSDataPath, "data-path", "./gtfs.db", "Path to the SQLite database containing GTFS data")
	flag.StringVar(&gtfsCfg.DBDriver, "db-driver", "sqlite3", "SQLite driver (sqlite3|sqlite)")
	flag.BoolVar(&gtfsCfg.TidyFeed, "tidy", false, "Clean each static feed with gtfstidy before import")
	flag.Float64Var(&cfg.OverlapThresholdMeters, "overlap-threshold", gtfs.DefaultOverlapThresholdMeters, "Distance in meters within which proposed segments overlap existing routes")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for the shared response cache (in-memory when empty)")
	flag.StringVar(&cfg.RedisPassword, "redis-password", "", "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", 0, "Redis database number")
	flag.IntVar(&cfg.CacheTTLSeconds, "cache-ttl", 300, "Lifetime of cached search responses in seconds")
	flag.Parse()

	if configPath != "" {
		jsonConfig, err := appconf.LoadFromFile(configPath)
		if err != nil {
			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			logger.Error("failed to load config", "path", configPath, "error", err)
			os.Exit(1)
		}
		cfg = jsonConfig.ToAppConfig()
		gtfsCfg = gtfsConfigFromFile(jsonConfig.ToGtfsConfigData(), cfg.OverlapThresholdMeters)
	} else {
		gtfsCfg.Verbose = true
		cfg.Verbose = true
		cfg.ApiKeys = ParseAPIKeys(apiKeysFlag)
		cfg.ExemptApiKeys = ParseAPIKeys(exemptKeysFlag)
		cfg.Env = appconf.EnvFlagToEnvironment(envFlag)
		gtfsCfg.Env = cfg.Env
		gtfsCfg.OverlapThresholdMeters = cfg.OverlapThresholdMeters
	}

	coreApp, err := BuildApplication(cfg, gtfsCfg)
	if err != nil {
		logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	srv, api := CreateServer(coreApp, cfg)

	if err := Run(srv, coreApp, api); err != nil {
		coreApp.Logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
