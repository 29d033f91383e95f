package gtfs

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

const (
	MessageNoService      = "No service available on this day"
	MessageNoDirectRoutes = "No direct routes found between these locations"
)

// TripStop is one call of a trip with its stop resolved.
type TripStop struct {
	StopID        string
	Name          string
	Lat           float64
	Lon           float64
	ArrivalTime   string
	DepartureTime string
	Sequence      int64
}

// DirectTrip is a single trip serving both endpoints, origin first.
type DirectTrip struct {
	Trip            gtfsdb.Trip
	Route           gtfsdb.Route
	DepartureTime   string
	ArrivalTime     string
	DurationMinutes int
	Stops           []TripStop
	Estimate        Estimate

	departureMinutes int
}

// DirectTripsResult carries the matching trips. An empty list is a valid answer;
// NoService is set when no calendar runs on the requested date.
type DirectTripsResult struct {
	Trips     []DirectTrip
	NoService bool
	Message   string
}

// tripLeg is the origin and destination call of one trip.
type tripLeg struct {
	from gtfsdb.StopTime
	to   gtfsdb.StopTime
}

// FindDirectTrips lists trips that call at fromStopID and later at toStopID on
// date, departing the origin at or after timeOfDay (minutes since midnight).
func (manager *Manager) FindDirectTrips(ctx context.Context, fromStopID, toStopID string, date time.Time, timeOfDay int, wheelchairRequired bool) (*DirectTripsResult, error) {
	logger := logging.FromContext(ctx).With(slog.String("component", "direct_trip_finder"))

	activeServices, err := manager.ActiveServiceIDs(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(activeServices) == 0 {
		return &DirectTripsResult{Trips: []DirectTrip{}, NoService: true, Message: MessageNoService}, nil
	}

	var fromTimes, toTimes []gtfsdb.StopTime
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		fromTimes, err = manager.repo.GetStopTimesForStop(gctx, fromStopID)
		return err
	})
	group.Go(func() error {
		var err error
		toTimes, err = manager.repo.GetStopTimesForStop(gctx, toStopID)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, upstreamError(ctx, "get_stop_times_for_stop", err)
	}

	candidateIDs := intersectTripIDs(fromTimes, toTimes)
	if len(candidateIDs) == 0 {
		return &DirectTripsResult{Trips: []DirectTrip{}, Message: MessageNoDirectRoutes}, nil
	}

	trips, err := manager.repo.GetTripsByIDs(ctx, candidateIDs)
	if err != nil {
		return nil, upstreamError(ctx, "get_trips_by_ids", err)
	}

	routeIDs := make([]string, 0, len(trips))
	seenRoutes := make(map[string]struct{})
	for _, trip := range trips {
		if _, ok := seenRoutes[trip.RouteID]; !ok {
			seenRoutes[trip.RouteID] = struct{}{}
			routeIDs = append(routeIDs, trip.RouteID)
		}
	}
	routes, err := manager.repo.GetRoutesByIDs(ctx, routeIDs)
	if err != nil {
		return nil, upstreamError(ctx, "get_routes_by_ids", err)
	}
	routeMap := make(map[string]gtfsdb.Route, len(routes))
	for _, route := range routes {
		if route.IsActive == 1 {
			routeMap[route.ID] = route
		}
	}

	legs := tripLegs(fromTimes, toTimes)
	var results []DirectTrip
	for _, trip := range trips {
		if trip.IsActive != 1 {
			continue
		}
		if _, ok := activeServices[trip.ServiceID]; !ok {
			continue
		}
		if wheelchairRequired && !utils.IsAccessible(trip.WheelchairAccessible) {
			continue
		}
		route, ok := routeMap[trip.RouteID]
		if !ok {
			continue
		}
		leg, ok := legs[trip.ID]
		if !ok {
			// The trip reaches the destination before the origin.
			continue
		}

		departure, err := utils.ParseClockMinutes(leg.from.DepartureTime)
		if err != nil {
			logger.Warn("skipping trip with malformed departure time",
				slog.String("trip_id", trip.ID), slog.String("departure_time", leg.from.DepartureTime))
			continue
		}
		if departure < timeOfDay {
			continue
		}
		duration, err := utils.DurationMinutes(leg.from.DepartureTime, leg.to.ArrivalTime)
		if err != nil {
			logger.Warn("skipping trip with malformed arrival time",
				slog.String("trip_id", trip.ID), slog.String("arrival_time", leg.to.ArrivalTime))
			continue
		}

		results = append(results, DirectTrip{
			Trip:             trip,
			Route:            route,
			DepartureTime:    leg.from.DepartureTime,
			ArrivalTime:      leg.to.ArrivalTime,
			DurationMinutes:  duration,
			Estimate:         manager.estimator.Estimate(route, duration),
			departureMinutes: departure,
		})
	}

	if err := manager.attachTripStops(ctx, results); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].departureMinutes != results[j].departureMinutes {
			return results[i].departureMinutes < results[j].departureMinutes
		}
		return results[i].Trip.ID < results[j].Trip.ID
	})

	if results == nil {
		results = []DirectTrip{}
	}
	return &DirectTripsResult{Trips: results}, nil
}

// intersectTripIDs returns the sorted IDs of trips present in both stop time lists.
func intersectTripIDs(fromTimes, toTimes []gtfsdb.StopTime) []string {
	toTrips := make(map[string]struct{}, len(toTimes))
	for _, st := range toTimes {
		toTrips[st.TripID] = struct{}{}
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, st := range fromTimes {
		if _, ok := toTrips[st.TripID]; !ok {
			continue
		}
		if _, ok := seen[st.TripID]; ok {
			continue
		}
		seen[st.TripID] = struct{}{}
		ids = append(ids, st.TripID)
	}
	sort.Strings(ids)
	return ids
}

// tripLegs pairs, per trip, the first origin call with the first destination
// call after it. Trips with no such pair are absent.
func tripLegs(fromTimes, toTimes []gtfsdb.StopTime) map[string]tripLeg {
	origins := make(map[string]gtfsdb.StopTime)
	for _, st := range fromTimes {
		if existing, ok := origins[st.TripID]; !ok || st.StopSequence < existing.StopSequence {
			origins[st.TripID] = st
		}
	}

	legs := make(map[string]tripLeg)
	for _, st := range toTimes {
		origin, ok := origins[st.TripID]
		if !ok || st.StopSequence <= origin.StopSequence {
			continue
		}
		if existing, ok := legs[st.TripID]; ok && existing.to.StopSequence <= st.StopSequence {
			continue
		}
		legs[st.TripID] = tripLeg{from: origin, to: st}
	}
	return legs
}

// attachTripStops fills the ordered stop list of every result using one stop
// time query and one stop query.
func (manager *Manager) attachTripStops(ctx context.Context, results []DirectTrip) error {
	if len(results) == 0 {
		return nil
	}

	tripIDs := make([]string, len(results))
	for i, r := range results {
		tripIDs[i] = r.Trip.ID
	}
	stopTimes, err := manager.repo.GetStopTimesForTrips(ctx, tripIDs)
	if err != nil {
		return upstreamError(ctx, "get_stop_times_for_trips", err)
	}

	byTrip := make(map[string][]gtfsdb.StopTime)
	stopIDSet := make(map[string]struct{})
	var stopIDs []string
	for _, st := range stopTimes {
		byTrip[st.TripID] = append(byTrip[st.TripID], st)
		if _, ok := stopIDSet[st.StopID]; !ok {
			stopIDSet[st.StopID] = struct{}{}
			stopIDs = append(stopIDs, st.StopID)
		}
	}

	stops, err := manager.repo.GetStopsByIDs(ctx, stopIDs)
	if err != nil {
		return upstreamError(ctx, "get_stops_by_ids", err)
	}
	stopMap := make(map[string]gtfsdb.Stop, len(stops))
	for _, stop := range stops {
		if stop.IsActive == 1 {
			stopMap[stop.ID] = stop
		}
	}

	for i := range results {
		calls := byTrip[results[i].Trip.ID]
		sort.Slice(calls, func(a, b int) bool { return calls[a].StopSequence < calls[b].StopSequence })
		results[i].Stops = resolveTripStops(calls, stopMap)
	}
	return nil
}

// resolveTripStops names each call. Unknown stops keep their ID as the name.
func resolveTripStops(calls []gtfsdb.StopTime, stopMap map[string]gtfsdb.Stop) []TripStop {
	stops := make([]TripStop, len(calls))
	for i, st := range calls {
		tripStop := TripStop{
			StopID:        st.StopID,
			Name:          st.StopID,
			ArrivalTime:   st.ArrivalTime,
			DepartureTime: st.DepartureTime,
			Sequence:      st.StopSequence,
		}
		if stop, ok := stopMap[st.StopID]; ok {
			tripStop.Name = utils.NullStringOrDefault(stop.Name, st.StopID)
			tripStop.Lat = stop.Lat
			tripStop.Lon = stop.Lon
		}
		stops[i] = tripStop
	}
	return stops
}
