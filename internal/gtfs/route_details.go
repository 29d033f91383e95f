package gtfs

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// routeDetailsTripLimit caps the trips listed with route details.
const routeDetailsTripLimit = 10

// TripFilter narrows the trips of a route. Zero-valued fields do not filter.
type TripFilter struct {
	ServiceID   string
	DirectionID *int64
}

func (f TripFilter) params(routeID string) gtfsdb.GetTripsForRouteParams {
	params := gtfsdb.GetTripsForRouteParams{RouteID: routeID}
	if f.ServiceID != "" {
		params.ServiceID = sql.NullString{String: f.ServiceID, Valid: true}
	}
	if f.DirectionID != nil {
		params.DirectionID = sql.NullInt64{Int64: *f.DirectionID, Valid: true}
	}
	return params
}

// RouteStatistics summarizes a route's schedule.
type RouteStatistics struct {
	TotalTrips        int
	TotalStops        int
	EstimatedDuration int
	Frequency         string
	OperatingDays     []string
}

// RouteDetails is a route with the stops of a sample trip and a trip preview.
type RouteDetails struct {
	Route      gtfsdb.Route
	Stops      []TripStop
	Statistics RouteStatistics
	Trips      []gtfsdb.Trip
}

// GetRoute returns an active route.
func (manager *Manager) GetRoute(ctx context.Context, routeID string) (*gtfsdb.Route, error) {
	if err := utils.ValidateID(routeID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	route, err := manager.repo.GetRoute(ctx, routeID)
	if gtfsdb.IsNoRows(err) || (err == nil && route.IsActive != 1) {
		return nil, fmt.Errorf("%w: route %s", ErrNotFound, routeID)
	}
	if err != nil {
		return nil, upstreamError(ctx, "get_route", err)
	}
	return &route, nil
}

// ListRoutes pages through active routes. The second value is the total match count.
func (manager *Manager) ListRoutes(ctx context.Context, params gtfsdb.ListRoutesParams) ([]gtfsdb.Route, int64, error) {
	routes, total, err := manager.repo.ListRoutes(ctx, params)
	if err != nil {
		return nil, 0, upstreamError(ctx, "list_routes", err)
	}
	if routes == nil {
		routes = []gtfsdb.Route{}
	}
	return routes, total, nil
}

// RoutesByID loads routes keyed by ID. Unknown IDs are skipped.
func (manager *Manager) RoutesByID(ctx context.Context, ids []string) (map[string]gtfsdb.Route, error) {
	out := make(map[string]gtfsdb.Route, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	routes, err := manager.repo.GetRoutesByIDs(ctx, ids)
	if err != nil {
		return nil, upstreamError(ctx, "get_routes_by_ids", err)
	}
	for _, route := range routes {
		out[route.ID] = route
	}
	return out, nil
}

// GetTripsForRoute lists a route's active trips ordered by trip ID.
func (manager *Manager) GetTripsForRoute(ctx context.Context, routeID string, filter TripFilter) ([]gtfsdb.Trip, error) {
	if _, err := manager.GetRoute(ctx, routeID); err != nil {
		return nil, err
	}
	trips, err := manager.repo.GetTripsForRoute(ctx, filter.params(routeID))
	if err != nil {
		return nil, upstreamError(ctx, "get_trips_for_route", err)
	}
	if trips == nil {
		trips = []gtfsdb.Trip{}
	}
	return trips, nil
}

// GetRouteDetails describes a route through its first matching trip.
// A route without trips is reported as not found.
func (manager *Manager) GetRouteDetails(ctx context.Context, routeID string, filter TripFilter) (*RouteDetails, error) {
	route, err := manager.GetRoute(ctx, routeID)
	if err != nil {
		return nil, err
	}

	trips, err := manager.repo.GetTripsForRoute(ctx, filter.params(routeID))
	if err != nil {
		return nil, upstreamError(ctx, "get_trips_for_route", err)
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("%w: no trips found for route %s", ErrNotFound, routeID)
	}

	stops, err := manager.tripStops(ctx, trips[0].ID)
	if err != nil {
		return nil, err
	}

	serviceIDs := make([]string, 0, len(trips))
	seen := make(map[string]struct{})
	for _, trip := range trips {
		if _, ok := seen[trip.ServiceID]; !ok {
			seen[trip.ServiceID] = struct{}{}
			serviceIDs = append(serviceIDs, trip.ServiceID)
		}
	}
	calendars, err := manager.repo.GetCalendarsByIDs(ctx, serviceIDs)
	if err != nil {
		return nil, upstreamError(ctx, "get_calendars_by_ids", err)
	}

	stats := RouteStatistics{
		TotalTrips:    len(trips),
		TotalStops:    len(stops),
		Frequency:     RouteFrequency(*route),
		OperatingDays: OperatingDays(calendars),
	}
	if len(stops) > 0 {
		duration, err := utils.DurationMinutes(stops[0].DepartureTime, stops[len(stops)-1].ArrivalTime)
		if err == nil {
			stats.EstimatedDuration = duration
		}
	}

	preview := trips
	if len(preview) > routeDetailsTripLimit {
		preview = preview[:routeDetailsTripLimit]
	}

	return &RouteDetails{
		Route:      *route,
		Stops:      stops,
		Statistics: stats,
		Trips:      preview,
	}, nil
}

// GetTripStops returns a trip's calls in sequence order with stop names resolved.
func (manager *Manager) GetTripStops(ctx context.Context, tripID string) ([]TripStop, error) {
	if err := utils.ValidateID(tripID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if _, err := manager.repo.GetTrip(ctx, tripID); err != nil {
		if gtfsdb.IsNoRows(err) {
			return nil, fmt.Errorf("%w: trip %s", ErrNotFound, tripID)
		}
		return nil, upstreamError(ctx, "get_trip", err)
	}
	return manager.tripStops(ctx, tripID)
}

func (manager *Manager) tripStops(ctx context.Context, tripID string) ([]TripStop, error) {
	stopTimes, err := manager.repo.GetStopTimesForTrip(ctx, tripID)
	if err != nil {
		return nil, upstreamError(ctx, "get_stop_times_for_trip", err)
	}

	stopIDs := make([]string, len(stopTimes))
	for i, st := range stopTimes {
		stopIDs[i] = st.StopID
	}
	stops, err := manager.repo.GetStopsByIDs(ctx, stopIDs)
	if err != nil {
		return nil, upstreamError(ctx, "get_stops_by_ids", err)
	}
	stopMap := make(map[string]gtfsdb.Stop, len(stops))
	for _, stop := range stops {
		if stop.IsActive == 1 {
			stopMap[stop.ID] = stop
		}
	}
	return resolveTripStops(stopTimes, stopMap), nil
}

// GetStop returns an active stop.
func (manager *Manager) GetStop(ctx context.Context, stopID string) (*gtfsdb.Stop, error) {
	if err := utils.ValidateID(stopID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	stop, err := manager.repo.GetStop(ctx, stopID)
	if gtfsdb.IsNoRows(err) || (err == nil && stop.IsActive != 1) {
		return nil, fmt.Errorf("%w: stop %s", ErrNotFound, stopID)
	}
	if err != nil {
		return nil, upstreamError(ctx, "get_stop", err)
	}
	return &stop, nil
}

// ListCalendars returns the active service calendars.
func (manager *Manager) ListCalendars(ctx context.Context) ([]gtfsdb.Calendar, error) {
	calendars, err := manager.repo.ListActiveCalendars(ctx)
	if err != nil {
		return nil, upstreamError(ctx, "list_active_calendars", err)
	}
	if calendars == nil {
		calendars = []gtfsdb.Calendar{}
	}
	return calendars, nil
}

// Stats counts the rows of the main tables.
func (manager *Manager) Stats(ctx context.Context) (gtfsdb.Stats, error) {
	stats, err := manager.repo.GetStats(ctx)
	if err != nil {
		return gtfsdb.Stats{}, upstreamError(ctx, "get_stats", err)
	}
	return stats, nil
}
