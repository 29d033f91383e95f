package restapi

import (
	"database/sql"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/models"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// listRoutesHandler pages through active routes, optionally filtered by a name
// search and a GTFS route type.
func (api *RestAPI) listRoutesHandler(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	fieldErrors := make(map[string][]string)

	search, err := utils.ValidateAndSanitizeQuery(params.Get("search"))
	if err != nil {
		fieldErrors["search"] = append(fieldErrors["search"], err.Error())
	}
	limit, fieldErrors := utils.ParseIntParam(params, "limit", models.DefaultMaxCountForRoutes, fieldErrors)
	offset, fieldErrors := utils.ParseIntParam(params, "offset", 0, fieldErrors)
	routeType, fieldErrors := parseOptionalInt(params, "type", fieldErrors)

	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if limit == 0 || limit > models.MaxAllowedCount {
		limit = models.MaxAllowedCount
	}

	routes, total, err := api.GtfsManager.ListRoutes(r.Context(), gtfsdb.ListRoutesParams{
		Search: search,
		Type:   routeType,
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		api.gtfsErrorResponse(w, r, "search", err)
		return
	}

	limitExceeded := int64(offset+len(routes)) < total
	api.sendResponse(w, r, models.NewPagedListResponse(models.NewRoutes(routes), total, limitExceeded, api.Clock))
}

func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	route, err := api.GtfsManager.GetRoute(r.Context(), r.PathValue("id"))
	if err != nil {
		api.gtfsErrorResponse(w, r, "id", err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewRoute(*route), models.NewEmptyReferences(), api.Clock))
}

func (api *RestAPI) routeDetailsHandler(w http.ResponseWriter, r *http.Request) {
	filter, fieldErrors := parseTripFilter(r.URL.Query())
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	details, err := api.GtfsManager.GetRouteDetails(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		api.gtfsErrorResponse(w, r, "id", err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newRouteDetails(details), models.NewEmptyReferences(), api.Clock))
}

func (api *RestAPI) tripsForRouteHandler(w http.ResponseWriter, r *http.Request) {
	filter, fieldErrors := parseTripFilter(r.URL.Query())
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	trips, err := api.GtfsManager.GetTripsForRoute(r.Context(), r.PathValue("id"), filter)
	if err != nil {
		api.gtfsErrorResponse(w, r, "id", err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(models.NewTrips(trips), models.NewEmptyReferences(), api.Clock))
}

func (api *RestAPI) routeShapeHandler(w http.ResponseWriter, r *http.Request) {
	shape, err := api.GtfsManager.GetRouteShape(r.Context(), r.PathValue("id"))
	if err != nil {
		api.gtfsErrorResponse(w, r, "id", err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(newRouteShape(shape), models.NewEmptyReferences(), api.Clock))
}

func (api *RestAPI) tripStopsHandler(w http.ResponseWriter, r *http.Request) {
	stops, err := api.GtfsManager.GetTripStops(r.Context(), r.PathValue("id"))
	if err != nil {
		api.gtfsErrorResponse(w, r, "id", err)
		return
	}

	api.sendResponse(w, r, models.NewListResponse(newTripStops(stops), models.NewEmptyReferences(), api.Clock))
}

// parseTripFilter reads the service_id and direction_id filters.
func parseTripFilter(params url.Values) (gtfs.TripFilter, map[string][]string) {
	fieldErrors := make(map[string][]string)
	var filter gtfs.TripFilter

	if serviceID := params.Get("service_id"); serviceID != "" {
		if err := utils.ValidateID(serviceID); err != nil {
			fieldErrors["service_id"] = append(fieldErrors["service_id"], err.Error())
		}
		filter.ServiceID = serviceID
	}

	direction, fieldErrors := parseOptionalInt(params, "direction_id", fieldErrors)
	if direction.Valid {
		if direction.Int64 != 0 && direction.Int64 != 1 {
			fieldErrors["direction_id"] = append(fieldErrors["direction_id"], "direction_id must be 0 or 1")
		}
		filter.DirectionID = &direction.Int64
	}

	return filter, fieldErrors
}

func parseOptionalInt(params url.Values, key string, fieldErrors map[string][]string) (sql.NullInt64, map[string][]string) {
	val := params.Get(key)
	if val == "" {
		return sql.NullInt64{}, fieldErrors
	}
	i, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		fieldErrors[key] = append(fieldErrors[key], "Invalid field value for field \""+key+"\".")
		return sql.NullInt64{}, fieldErrors
	}
	return sql.NullInt64{Int64: i, Valid: true}, fieldErrors
}
