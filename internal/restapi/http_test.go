package restapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/app"
	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
	"github.com/Niyant4280/bus-niyojak/internal/models"
)

const testAPIKey = "TEST"

// testNow is a Monday inside the weekday calendar of the fixture feed.
var testNow = time.Date(2024, 6, 10, 5, 30, 0, 0, time.UTC)

type fixedEstimator struct{}

func (fixedEstimator) Estimate(route gtfsdb.Route, durationMinutes int) gtfs.Estimate {
	return gtfs.Estimate{Frequency: "Every 5-10 min", Price: 35, Capacity: 300, CurrentPassengers: 20, Rating: 4.5}
}

type testAPIOption func(*app.Application)

func withRateLimit(n int) testAPIOption {
	return func(a *app.Application) { a.Config.RateLimit = n }
}

func withCache(c cache.Cache) testAPIOption {
	return func(a *app.Application) { a.Cache = c }
}

func withGtfsManager(m *gtfs.Manager) testAPIOption {
	return func(a *app.Application) { a.GtfsManager = m }
}

// createTestApi builds a RestAPI over the Delhi Metro fixture feed with a mock
// clock, an in-memory response cache and a private metrics registry.
func createTestApi(t *testing.T, opts ...testAPIOption) *RestAPI {
	t.Helper()

	gtfsConfig := gtfs.Config{
		GtfsURL:      "../../testdata/delhi-metro",
		GTFSDataPath: ":memory:",
		Env:          appconf.Test,
	}
	gtfsManager, err := gtfs.InitGTFSManager(gtfsConfig)
	require.NoError(t, err)

	mockClock := clock.NewMockClock(testNow)
	gtfsManager.SetClock(mockClock)
	gtfsManager.SetEstimator(fixedEstimator{})

	application := &app.Application{
		Config: appconf.Config{
			Env:       appconf.Test,
			ApiKeys:   []string{testAPIKey},
			RateLimit: 100,
		},
		GtfsConfig:  gtfsConfig,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		GtfsManager: gtfsManager,
		Clock:       mockClock,
		Metrics:     metrics.New(),
		Cache:       cache.NewMemoryCache(0, mockClock),
	}
	for _, opt := range opts {
		opt(application)
	}

	api := NewRestAPI(application)
	t.Cleanup(func() {
		api.Shutdown()
		gtfsManager.Shutdown()
	})
	return api
}

// serveAndRetrieveEndpoint issues a GET against a fresh test API.
func serveAndRetrieveEndpoint(t *testing.T, endpoint string) (*RestAPI, *http.Response, models.ResponseModel) {
	api := createTestApi(t)
	resp, model := serveApiAndRetrieveEndpoint(t, api, endpoint)
	return api, resp, model
}

func serveApiAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	return doRequest(t, api, http.MethodGet, endpoint, nil, nil)
}

func postJSON(t *testing.T, api *RestAPI, endpoint string, body interface{}) (*http.Response, models.ResponseModel) {
	data, err := json.Marshal(body)
	require.NoError(t, err)
	return doRequest(t, api, http.MethodPost, endpoint, data, map[string]string{"Content-Type": "application/json"})
}

func doRequest(t *testing.T, api *RestAPI, method, endpoint string, body []byte, headers map[string]string) (*http.Response, models.ResponseModel) {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, bytes.NewReader(body))
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var model models.ResponseModel
	require.NoError(t, json.Unmarshal(raw, &model), string(raw))
	return resp, model
}

// fieldErrorsOf issues a GET and decodes the validation error body.
func fieldErrorsOf(t *testing.T, api *RestAPI, endpoint string) (int, map[string][]string) {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + endpoint)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body.FieldErrors
}

func entryOf(t *testing.T, model models.ResponseModel) map[string]interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	entry, ok := data["entry"].(map[string]interface{})
	require.True(t, ok, "data.entry should be an object")
	return entry
}

func listOf(t *testing.T, model models.ResponseModel) []interface{} {
	t.Helper()
	data, ok := model.Data.(map[string]interface{})
	require.True(t, ok, "data should be an object")
	list, ok := data["list"].([]interface{})
	require.True(t, ok, "data.list should be an array")
	return list
}

func idsOf(t *testing.T, items []interface{}, key string) []string {
	t.Helper()
	ids := make([]string, len(items))
	for i, item := range items {
		object, ok := item.(map[string]interface{})
		require.True(t, ok)
		ids[i], _ = object[key].(string)
	}
	return ids
}

// doRequestRaw issues a request and returns the status and raw body without decoding.
func doRequestRaw(t *testing.T, api *RestAPI, method, endpoint string) (int, string) {
	t.Helper()

	server := httptest.NewServer(api.Handler())
	defer server.Close()

	req, err := http.NewRequest(method, server.URL+endpoint, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}
