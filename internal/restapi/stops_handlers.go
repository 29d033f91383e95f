package restapi

import (
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
	"github.com/Niyant4280/bus-niyojak/internal/models"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// listStopsHandler pages through active stops by name, or nearest first when
// lat and lng are given. page is 1-based and is an alternative to offset.
func (api *RestAPI) listStopsHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	search, err := utils.ValidateAndSanitizeQuery(params.Get("search"))
	if err != nil {
		fieldErrors["search"] = append(fieldErrors["search"], err.Error())
	}
	limit, fieldErrors := utils.ParseIntParam(params, "limit", models.DefaultStopListingCount, fieldErrors)
	offset, fieldErrors := utils.ParseIntParam(params, "offset", 0, fieldErrors)
	page, fieldErrors := utils.ParseIntParam(params, "page", 0, fieldErrors)
	lat, hasLat, fieldErrors := utils.ParseOptionalFloatParam(params, "lat", fieldErrors)
	lng, hasLng, fieldErrors := utils.ParseOptionalFloatParam(params, "lng", fieldErrors)
	radius, fieldErrors := utils.ParseFloatParam(params, "radius", fieldErrors)

	if params.Has("page") && page < 1 {
		fieldErrors["page"] = append(fieldErrors["page"], "page must be at least 1")
	}
	if params.Has("page") && params.Has("offset") {
		fieldErrors["page"] = append(fieldErrors["page"], "page and offset are mutually exclusive")
	}
	if hasLat != hasLng && len(fieldErrors) == 0 {
		fieldErrors["lat"] = append(fieldErrors["lat"], "lat and lng must be given together")
	}
	if hasLat && hasLng {
		fieldErrors = utils.ValidateCoordinates(lat, lng, "lat", "lng", fieldErrors)
	}
	if radius != 0 {
		if err := utils.ValidateRadiusKm(radius); err != nil {
			fieldErrors["radius"] = append(fieldErrors["radius"], err.Error())
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if limit == 0 || limit > models.MaxAllowedCount {
		limit = models.MaxAllowedCount
	}
	if page > 0 {
		offset = (page - 1) * limit
	}

	listing := gtfs.StopListing{Search: search, RadiusKm: radius, Limit: limit, Offset: offset}
	if hasLat && hasLng {
		listing.Near = &gtfs.Point{Lat: lat, Lon: lng}
	}

	stops, total, err := api.GtfsManager.ListStops(r.Context(), listing)
	if err != nil {
		api.gtfsErrorResponse(w, r, "search", err)
		return
	}

	limitExceeded := int64(offset+len(stops)) < total
	var list interface{}
	if listing.Near != nil {
		list = newNearbyStops(stops)
	} else {
		list = newListedStops(stops)
	}
	api.sendResponse(w, r, models.NewPagedListResponse(list, total, limitExceeded, api.Clock))
}

// nearbyStopsHandler lists active stops around lat/lng, nearest first.
func (api *RestAPI) nearbyStopsHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	for _, key := range []string{"lat", "lng"} {
		if params.Get(key) == "" {
			fieldErrors[key] = append(fieldErrors[key], key+" is required")
		}
	}

	lat, fieldErrors := utils.ParseFloatParam(params, "lat", fieldErrors)
	lng, fieldErrors := utils.ParseFloatParam(params, "lng", fieldErrors)
	radius, fieldErrors := utils.ParseFloatParam(params, "radius", fieldErrors)
	limit, fieldErrors := utils.ParseIntParam(params, "limit", gtfs.DefaultNearbyLimit, fieldErrors)

	if len(fieldErrors) == 0 {
		fieldErrors = utils.ValidateCoordinates(lat, lng, "lat", "lng", fieldErrors)
	}
	if radius != 0 {
		if err := utils.ValidateRadiusKm(radius); err != nil {
			fieldErrors["radius"] = append(fieldErrors["radius"], err.Error())
		}
	}
	if limit > models.MaxAllowedCount {
		limit = models.MaxAllowedCount
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	stops, err := api.GtfsManager.FindStopsNear(r.Context(), lat, lng, radius, limit)
	if err != nil {
		api.Metrics.ObserveSearch(metrics.SearchKindNearby, metrics.OutcomeError, 0)
		api.gtfsErrorResponse(w, r, "lat", err)
		return
	}

	outcome := metrics.OutcomeOK
	if len(stops) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	api.Metrics.ObserveSearch(metrics.SearchKindNearby, outcome, len(stops))

	api.sendResponse(w, r, models.NewListResponse(newNearbyStops(stops), models.NewEmptyReferences(), api.Clock))
}

// searchStopsHandler lists stops whose name or description matches q, best match first.
func (api *RestAPI) searchStopsHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	query, err := utils.ValidateAndSanitizeQuery(params.Get("q"))
	if err != nil {
		fieldErrors["q"] = append(fieldErrors["q"], err.Error())
	} else if query == "" {
		fieldErrors["q"] = append(fieldErrors["q"], "q is required")
	}
	limit, fieldErrors := utils.ParseIntParam(params, "limit", models.DefaultMaxCountForStops, fieldErrors)

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	limit = min(limit, models.MaxAllowedCount)
	stops, err := api.GtfsManager.MatchStops(r.Context(), query, limit)
	if err != nil {
		api.gtfsErrorResponse(w, r, "q", err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(models.NewStops(stops), models.NewEmptyReferences(), api.Clock))
}

func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	stop, err := api.GtfsManager.GetStop(r.Context(), r.PathValue("id"))
	if err != nil {
		api.gtfsErrorResponse(w, r, "id", err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewStop(*stop), models.NewEmptyReferences(), api.Clock))
}
