package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/internal/app"
	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
)

var testFeedPath = filepath.Join("..", "..", "testdata", "delhi-metro")

func testConfigs(port int) (appconf.Config, gtfs.Config) {
	cfg := appconf.Config{
		Port:      port,
		Env:       appconf.Test,
		ApiKeys:   []string{"test"},
		RateLimit: 100,
	}
	gtfsCfg := gtfs.Config{
		GTFSDataPath: ":memory:",
		GtfsURL:      testFeedPath,
		Env:          appconf.Test,
	}
	return cfg, gtfsCfg
}

func buildTestApplication(t *testing.T, cfg appconf.Config, gtfsCfg gtfs.Config) *app.Application {
	t.Helper()
	coreApp, err := BuildApplication(cfg, gtfsCfg)
	require.NoError(t, err, "BuildApplication should not return an error")
	return coreApp
}

func TestParseAPIKeys(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Single key", "test-key", []string{"test-key"}},
		{"Multiple keys", "key1,key2,key3", []string{"key1", "key2", "key3"}},
		{"Keys with spaces", " key1 , key2 , key3 ", []string{"key1", "key2", "key3"}},
		{"Empty string", "", []string{}},
		{"Single key with whitespace", "  test-key  ", []string{"test-key"}},
		{"Trailing comma", "key1,", []string{"key1", ""}},
		{"Only commas", ",,", []string{"", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseAPIKeys(tt.input))
		})
	}
}

func TestBuildApplication(t *testing.T) {
	cfg, gtfsCfg := testConfigs(4000)
	cfg.OverlapThresholdMeters = 120

	coreApp := buildTestApplication(t, cfg, gtfsCfg)
	defer shutdownApplication(coreApp, nil)

	assert.NotNil(t, coreApp.Logger, "Logger should be initialized")
	assert.NotNil(t, coreApp.GtfsManager, "GTFS manager should be initialized")
	assert.True(t, coreApp.GtfsManager.IsReady())
	assert.NotNil(t, coreApp.Metrics)
	assert.NotNil(t, coreApp.Clock)
	assert.Equal(t, cfg, coreApp.Config, "Config should match input")
	assert.Equal(t, 120.0, coreApp.GtfsConfig.OverlapThresholdMeters, "threshold falls through from the app config")
	assert.Equal(t, 120.0, coreApp.GtfsManager.OverlapThreshold())

	_, isMemory := coreApp.Cache.(*cache.MemoryCache)
	assert.True(t, isMemory, "no redis address means the in-memory cache")
}

func TestBuildApplication_UnreachableRedisFallsBack(t *testing.T) {
	cfg, gtfsCfg := testConfigs(4000)
	cfg.RedisAddr = "127.0.0.1:1"

	coreApp := buildTestApplication(t, cfg, gtfsCfg)
	defer shutdownApplication(coreApp, nil)

	_, isMemory := coreApp.Cache.(*cache.MemoryCache)
	assert.True(t, isMemory)
}

func TestBuildApplicationErrorHandling(t *testing.T) {
	cfg, gtfsCfg := testConfigs(4000)
	gtfsCfg.GtfsURL = "/nonexistent/path/to/gtfs.zip"

	_, err := BuildApplication(cfg, gtfsCfg)
	require.Error(t, err, "Should return error for invalid GTFS path")
	assert.Contains(t, err.Error(), "failed to initialize GTFS manager")
}

func TestGtfsConfigFromFile(t *testing.T) {
	data := appconf.GtfsConfigData{
		GtfsURL:               "https://example.com/gtfs.zip",
		StaticAuthHeaderKey:   "X-API-Key",
		StaticAuthHeaderValue: "secret",
		GTFSDataPath:          "/data/gtfs.db",
		DBDriver:              "sqlite",
		TidyFeed:              true,
		Env:                   appconf.Production,
		Verbose:               true,
	}

	gtfsCfg := gtfsConfigFromFile(data, 90)

	assert.Equal(t, gtfs.Config{
		GtfsURL:                "https://example.com/gtfs.zip",
		StaticAuthHeaderKey:    "X-API-Key",
		StaticAuthHeaderValue:  "secret",
		GTFSDataPath:           "/data/gtfs.db",
		DBDriver:               "sqlite",
		TidyFeed:               true,
		Env:                    appconf.Production,
		Verbose:                true,
		OverlapThresholdMeters: 90,
	}, gtfsCfg)
}

func TestCreateServer(t *testing.T) {
	cfg, gtfsCfg := testConfigs(8080)
	coreApp := buildTestApplication(t, cfg, gtfsCfg)

	srv, api := CreateServer(coreApp, cfg)
	defer shutdownApplication(coreApp, api)

	assert.Equal(t, ":8080", srv.Addr, "Server address should match port")
	assert.NotNil(t, srv.Handler, "Server handler should be set")
	assert.Equal(t, time.Minute, srv.IdleTimeout)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, srv.WriteTimeout)
}

func TestCreateServerHandlerResponds(t *testing.T) {
	cfg, gtfsCfg := testConfigs(8080)
	coreApp := buildTestApplication(t, cfg, gtfsCfg)

	srv, api := CreateServer(coreApp, cfg)
	defer shutdownApplication(coreApp, api)

	for _, endpoint := range []string{
		"/api/current-time?key=test",
		"/api/routes/search?from=Rithala&key=test",
		"/healthz",
	} {
		req := httptest.NewRequest(http.MethodGet, endpoint, nil)
		w := httptest.NewRecorder()
		srv.Handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, endpoint)
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	cfg, gtfsCfg := testConfigs(0)
	coreApp := buildTestApplication(t, cfg, gtfsCfg)
	srv, api := CreateServer(coreApp, cfg)
	srv.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, srv, coreApp, api)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "Server should shutdown cleanly")
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestShutdownApplicationIsIdempotent(t *testing.T) {
	cfg, gtfsCfg := testConfigs(0)
	coreApp := buildTestApplication(t, cfg, gtfsCfg)
	_, api := CreateServer(coreApp, cfg)

	shutdownApplication(coreApp, api)
	shutdownApplication(coreApp, api)
	shutdownApplication(nil, nil)
}
