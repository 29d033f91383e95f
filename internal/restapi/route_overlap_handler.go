package restapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
	"github.com/Niyant4280/bus-niyojak/internal/models"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

const maxOverlapBodyBytes = 1 << 20

// routeOverlapHandler scores a proposed route against the existing network.
func (api *RestAPI) routeOverlapHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxOverlapBodyBytes)

	var request models.OverlapRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.sendError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		api.validationErrorResponse(w, r, map[string][]string{"body": {"invalid JSON body"}})
		return
	}

	name, err := utils.ValidateAndSanitizeQuery(request.Name)
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	if len(request.Path) == 0 && strings.TrimSpace(request.EncodedPath) == "" {
		api.validationErrorResponse(w, r, map[string][]string{"path": {"path or encodedPath is required"}})
		return
	}

	path, err := gtfs.ProposalPath(gtfs.RouteProposal{
		Path:        proposalPoints(request.Path),
		EncodedPath: request.EncodedPath,
	})
	if err != nil {
		field := "path"
		if len(request.Path) == 0 {
			field = "encodedPath"
		}
		api.validationErrorResponse(w, r, map[string][]string{field: {errorDetail(err, gtfs.ErrInvalidArgument)}})
		return
	}
	ctx := r.Context()
	key := cache.KeyOverlap(api.GtfsManager.CacheScope(), api.GtfsManager.OverlapThreshold(), pathCoordinates(path))

	var entry models.OverlapEntry
	if api.cacheGet(r, key, &entry) {
		entry.Name = name
		api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences(), api.Clock))
		return
	}

	result, err := api.GtfsManager.AnalyzeRouteOverlap(ctx, gtfs.RouteProposal{Name: name, Path: path})
	if err != nil {
		api.Metrics.ObserveSearch(metrics.SearchKindOverlap, metrics.OutcomeError, 0)
		api.gtfsErrorResponse(w, r, "path", err)
		return
	}

	routeIDs := make([]string, len(result.PerRoute))
	for i, o := range result.PerRoute {
		routeIDs[i] = o.RouteID
	}
	routes, err := api.GtfsManager.RoutesByID(ctx, routeIDs)
	if err != nil {
		api.gtfsErrorResponse(w, r, "path", err)
		return
	}

	entry = newOverlapEntry("", result, routes)
	api.Metrics.ObserveSearch(metrics.SearchKindOverlap, overlapOutcome(entry), len(entry.PerRoute))
	api.Metrics.ObserveOverlap(entry.OverlapRatio)
	api.cacheSet(r, key, entry)

	entry.Name = name
	api.sendResponse(w, r, models.NewEntryResponse(entry, models.NewEmptyReferences(), api.Clock))
}

func pathCoordinates(path []gtfs.Point) [][2]float64 {
	coords := make([][2]float64, len(path))
	for i, p := range path {
		coords[i] = [2]float64{p.Lat, p.Lon}
	}
	return coords
}

func overlapOutcome(entry models.OverlapEntry) string {
	if len(entry.PerRoute) == 0 {
		return metrics.OutcomeEmpty
	}
	return metrics.OutcomeOK
}
