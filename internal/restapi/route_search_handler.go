package restapi

import (
	"log/slog"
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
	"github.com/Niyant4280/bus-niyojak/internal/models"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// routeSearchHandler ranks routes against q, or against from and to.
func (api *RestAPI) routeSearchHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	terms := make(map[string]string, 3)
	for _, field := range []string{"q", "from", "to"} {
		value, err := utils.ValidateAndSanitizeQuery(params.Get(field))
		if err != nil {
			fieldErrors[field] = append(fieldErrors[field], err.Error())
			continue
		}
		terms[field] = value
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	ctx := r.Context()
	key := cache.KeyRouteSearch(api.GtfsManager.CacheScope(), terms["q"], terms["from"], terms["to"])

	var entry models.RouteSearchEntry
	if api.cacheGet(r, key, &entry) {
		api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences(), api.Clock))
		return
	}

	result, err := api.GtfsManager.SearchRoutes(ctx, gtfs.RouteSearch{
		Query: terms["q"],
		From:  terms["from"],
		To:    terms["to"],
	})
	if err != nil {
		api.Metrics.ObserveSearch(metrics.SearchKindRoutes, metrics.OutcomeError, 0)
		api.gtfsErrorResponse(w, r, "q", err)
		return
	}

	entry = newRouteSearchEntry(terms["q"], result)
	api.Metrics.ObserveSearch(metrics.SearchKindRoutes, routeSearchOutcome(entry), len(entry.Routes))
	api.cacheSet(r, key, entry)

	api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences(), api.Clock))
}

func routeSearchOutcome(entry models.RouteSearchEntry) string {
	switch {
	case entry.Degraded:
		return metrics.OutcomeDegraded
	case len(entry.Routes) == 0:
		return metrics.OutcomeEmpty
	default:
		return metrics.OutcomeOK
	}
}

// cacheGet decodes a cached entry into dest. Cache failures are logged and
// treated as misses.
func (api *RestAPI) cacheGet(r *http.Request, key string, dest interface{}) bool {
	if api.Cache == nil {
		return false
	}
	hit, err := cache.GetJSON(r.Context(), api.Cache, key, dest)
	if err != nil {
		logging.LogError(logging.FromContext(r.Context()), "cache read failed", err,
			slog.String("component", "response_cache"),
			slog.String("key", key))
		return false
	}
	return hit
}

func (api *RestAPI) cacheSet(r *http.Request, key string, value interface{}) {
	if api.Cache == nil {
		return
	}
	if err := cache.SetJSON(r.Context(), api.Cache, key, value, api.cacheTTL); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "cache write failed", err,
			slog.String("component", "response_cache"),
			slog.String("key", key))
	}
}
