package restapi

import (
	"net/http"
	"net/url"

	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
	"github.com/Niyant4280/bus-niyojak/internal/models"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// tripSearchHandler lists direct trips between two places. Each end is named
// by text (from, to) or by coordinates (fromLat/fromLon, toLat/toLon).
func (api *RestAPI) tripSearchHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	search := gtfs.TripSearch{
		Date: params.Get("date"),
		Time: params.Get("time"),
	}

	var err error
	if search.From, err = utils.ValidateAndSanitizeQuery(params.Get("from")); err != nil {
		fieldErrors["from"] = append(fieldErrors["from"], err.Error())
	}
	if search.To, err = utils.ValidateAndSanitizeQuery(params.Get("to")); err != nil {
		fieldErrors["to"] = append(fieldErrors["to"], err.Error())
	}
	search.FromPoint, fieldErrors = parseEndpointPoint(params, "fromLat", "fromLon", fieldErrors)
	search.ToPoint, fieldErrors = parseEndpointPoint(params, "toLat", "toLon", fieldErrors)
	search.Wheelchair, fieldErrors = utils.ParseBoolParam(params, "wheelchair", fieldErrors)

	if len(fieldErrors) == 0 && search.FromPoint == nil && search.From == "" {
		fieldErrors["from"] = append(fieldErrors["from"], "from location is required")
	}
	if len(fieldErrors) == 0 && search.ToPoint == nil && search.To == "" {
		fieldErrors["to"] = append(fieldErrors["to"], "to location is required")
	}
	if err := utils.ValidateDate(search.Date); err != nil {
		fieldErrors["date"] = append(fieldErrors["date"], err.Error())
	}
	if search.Time != "" {
		if _, err := utils.ParseTimeOfDay(search.Time); err != nil {
			fieldErrors["time"] = append(fieldErrors["time"], err.Error())
		}
	}

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.GtfsManager.SearchTrips(r.Context(), search)
	if err != nil {
		api.Metrics.ObserveSearch(metrics.SearchKindTrips, metrics.OutcomeError, 0)
		api.gtfsErrorResponse(w, r, "from", err)
		return
	}

	entry := newTripSearchEntry(result)
	outcome := metrics.OutcomeOK
	if entry.TotalResults == 0 {
		outcome = metrics.OutcomeEmpty
	}
	api.Metrics.ObserveSearch(metrics.SearchKindTrips, outcome, entry.TotalResults)

	references := models.ReferencesModel{
		Routes: uniqueTripRoutes(result.Trips),
		Stops:  []models.Stop{entry.From, entry.To},
	}
	api.sendResponse(w, r, models.NewEntryResponse(entry, references, api.Clock))
}

// parseEndpointPoint reads an optional coordinate pair. Giving only one half is an error.
func parseEndpointPoint(params url.Values, latKey, lonKey string, fieldErrors map[string][]string) (*gtfs.Point, map[string][]string) {
	lat, hasLat, fieldErrors := utils.ParseOptionalFloatParam(params, latKey, fieldErrors)
	lon, hasLon, fieldErrors := utils.ParseOptionalFloatParam(params, lonKey, fieldErrors)
	if len(fieldErrors[latKey]) > 0 || len(fieldErrors[lonKey]) > 0 {
		return nil, fieldErrors
	}

	switch {
	case !hasLat && !hasLon:
		return nil, fieldErrors
	case !hasLat:
		fieldErrors[latKey] = append(fieldErrors[latKey], latKey+" is required with "+lonKey)
		return nil, fieldErrors
	case !hasLon:
		fieldErrors[lonKey] = append(fieldErrors[lonKey], lonKey+" is required with "+latKey)
		return nil, fieldErrors
	}

	before := len(fieldErrors)
	fieldErrors = utils.ValidateCoordinates(lat, lon, latKey, lonKey, fieldErrors)
	if len(fieldErrors) > before {
		return nil, fieldErrors
	}
	return &gtfs.Point{Lat: lat, Lon: lon}, fieldErrors
}

func uniqueTripRoutes(trips []gtfs.DirectTrip) []models.Route {
	seen := make(map[string]bool)
	routes := []models.Route{}
	for _, trip := range trips {
		if seen[trip.Route.ID] {
			continue
		}
		seen[trip.Route.ID] = true
		routes = append(routes, models.NewRoute(trip.Route))
	}
	return routes
}
