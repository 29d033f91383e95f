package restapi

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
)

func TestRouteSearchHandlerRequiresValidApiKey(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/routes/search?key=invalid&q=red")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, http.StatusUnauthorized, model.Code)
	assert.Equal(t, "permission denied", model.Text)
	assert.Equal(t, 1, model.Version)
}

func TestRouteSearchHandlerAcceptsBearerToken(t *testing.T) {
	api := createTestApi(t)
	resp, model := doRequest(t, api, http.MethodGet, "/api/routes/search?q=Rithala", nil,
		map[string]string{"Authorization": "Bearer " + testAPIKey})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, http.StatusOK, model.Code)
}

func TestRouteSearchHandlerEndToEnd(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/routes/search?key=TEST&q=Rithala")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", model.Text)
	assert.Equal(t, 2, model.Version)
	assert.Equal(t, testNow.UnixMilli(), model.CurrentTime)

	entry := entryOf(t, model)
	assert.Equal(t, "Rithala", entry["from"])
	assert.Equal(t, false, entry["degraded"])
	assert.EqualValues(t, 4, entry["totalRoutes"])

	routes, ok := entry["routes"].([]interface{})
	require.True(t, ok)
	require.Len(t, routes, 1)
	route := routes[0].(map[string]interface{})
	assert.Equal(t, "R_RD", route["id"])
	assert.EqualValues(t, 30, route["score"])
	assert.Equal(t, "FF0000", route["color"])

	fromStops, ok := entry["fromStops"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []string{"RITHALA"}, idsOf(t, fromStops, "id"))
}

func TestRouteSearchHandlerFromAndTo(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/routes/search?key=TEST&from=Rithala&to=Dilshad")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	routes := entry["routes"].([]interface{})
	require.NotEmpty(t, routes)
	top := routes[0].(map[string]interface{})
	assert.Equal(t, "R_RD", top["id"])
	assert.EqualValues(t, 60, top["score"])
	assert.Equal(t, []string{"DILSHAD_GARDEN"}, idsOf(t, entry["toStops"].([]interface{}), "id"))
}

func TestRouteSearchHandlerDegradedFallback(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/routes/search?key=TEST&q=Chandni")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, true, entry["degraded"])
	routes := entry["routes"].([]interface{})
	assert.Equal(t, []string{"534", "B_DN", "R_RD", "Y_HQ"}, idsOf(t, routes, "id"))
	for _, r := range routes {
		assert.EqualValues(t, 1, r.(map[string]interface{})["score"])
	}
}

func TestRouteSearchHandlerBrowseWithoutTerms(t *testing.T) {
	_, resp, model := serveAndRetrieveEndpoint(t, "/api/routes/search?key=TEST")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entry := entryOf(t, model)
	assert.Equal(t, false, entry["degraded"])
	assert.EqualValues(t, 4, entry["selectedCount"])
}

func TestRouteSearchHandlerRejectsDangerousInput(t *testing.T) {
	api := createTestApi(t)
	status, fieldErrors := fieldErrorsOf(t, api, "/api/routes/search?key=TEST&from=%3Cscript%3E")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, fieldErrors, "from")
}

func TestRouteSearchHandlerCachesResponses(t *testing.T) {
	api := createTestApi(t)
	memory := api.Cache.(*cache.MemoryCache)

	_, first := serveApiAndRetrieveEndpoint(t, api, "/api/routes/search?key=TEST&q=Rithala")
	assert.Equal(t, 1, memory.Len())

	_, second := serveApiAndRetrieveEndpoint(t, api, "/api/routes/search?key=TEST&q=RITHALA")
	assert.Equal(t, 1, memory.Len(), "case-only differences share a cache entry")
	assert.Equal(t, entryOf(t, first)["routes"], entryOf(t, second)["routes"])
}

// singleRouteManager serves a one-route feed recorded under its own content hash.
func singleRouteManager(t *testing.T) *gtfs.Manager {
	t.Helper()
	ctx := context.Background()

	client, err := gtfsdb.NewClient(gtfsdb.Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Queries.CreateAgency(ctx, gtfsdb.Agency{
		ID: "DMRC", Name: "Delhi Metro Rail Corporation", Url: "https://www.delhimetrorail.com", Timezone: "Asia/Kolkata",
	}))
	require.NoError(t, client.Queries.CreateRoute(ctx, gtfsdb.Route{
		ID: "G_IK", AgencyID: "DMRC", Type: 1, IsActive: 1,
	}))
	require.NoError(t, client.Queries.UpsertImportMetadata(ctx, gtfsdb.ImportMetadatum{
		FileHash: "0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f0f", FileSource: "green-line.zip", ImportTime: 1,
	}))

	manager, err := gtfs.NewManager(client.Queries, gtfs.Config{Env: appconf.Test})
	require.NoError(t, err)
	return manager
}

func TestRouteSearchHandlerSharedCacheAcrossFeeds(t *testing.T) {
	shared := createTestApi(t).Cache

	delhi := createTestApi(t, withCache(shared))
	green := createTestApi(t, withCache(shared), withGtfsManager(singleRouteManager(t)))
	require.Equal(t, delhi.GtfsManager.Generation(), green.GtfsManager.Generation())

	_, first := serveApiAndRetrieveEndpoint(t, delhi, "/api/routes/search?key=TEST&q=Rithala")
	assert.EqualValues(t, 4, entryOf(t, first)["totalRoutes"])

	_, second := serveApiAndRetrieveEndpoint(t, green, "/api/routes/search?key=TEST&q=Rithala")
	assert.EqualValues(t, 1, entryOf(t, second)["totalRoutes"])
	assert.Equal(t, 2, shared.(*cache.MemoryCache).Len())
}
