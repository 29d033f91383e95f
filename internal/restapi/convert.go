package restapi

import (
	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/models"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

func newScoredRoutes(routes []gtfs.ScoredRoute) []models.ScoredRoute {
	out := make([]models.ScoredRoute, len(routes))
	for i, r := range routes {
		out[i] = models.ScoredRoute{Route: models.NewRoute(r.Route), Score: r.Score}
	}
	return out
}

func newRouteSearchEntry(query string, result *gtfs.RouteSearchResult) models.RouteSearchEntry {
	return models.RouteSearchEntry{
		Query:         query,
		From:          result.From,
		To:            result.To,
		Degraded:      result.Degraded,
		TotalRoutes:   result.TotalRoutes,
		SelectedCount: result.SelectedCount,
		Routes:        newScoredRoutes(result.Routes),
		FromStops:     models.NewStops(result.FromStops),
		ToStops:       models.NewStops(result.ToStops),
	}
}

func newTripStops(stops []gtfs.TripStop) []models.TripStop {
	out := make([]models.TripStop, len(stops))
	for i, s := range stops {
		out[i] = models.TripStop{
			ID:            s.StopID,
			Name:          s.Name,
			Lat:           s.Lat,
			Lng:           s.Lon,
			ArrivalTime:   s.ArrivalTime,
			DepartureTime: s.DepartureTime,
			Sequence:      s.Sequence,
		}
	}
	return out
}

func newDirectTripResult(trip gtfs.DirectTrip, from, to gtfsdb.Stop) models.DirectTripResult {
	return models.DirectTripResult{
		TripID:               trip.Trip.ID,
		RouteID:              trip.Route.ID,
		BusNumber:            utils.NullStringOrDefault(trip.Route.ShortName, trip.Route.ID),
		RouteName:            utils.NullStringOrEmpty(trip.Route.LongName),
		From:                 utils.NullStringOrDefault(from.Name, from.ID),
		To:                   utils.NullStringOrDefault(to.Name, to.ID),
		Stops:                newTripStops(trip.Stops),
		NextDeparture:        trip.DepartureTime,
		EstimatedArrival:     trip.ArrivalTime,
		Duration:             trip.DurationMinutes,
		DurationText:         utils.FormatDuration(trip.DurationMinutes),
		WheelchairAccessible: utils.IsAccessible(trip.Trip.WheelchairAccessible),
		BikesAllowed:         utils.IsAccessible(trip.Trip.BikesAllowed),
		Frequency:            trip.Estimate.Frequency,
		Price:                trip.Estimate.Price,
		Capacity:             trip.Estimate.Capacity,
		CurrentPassengers:    trip.Estimate.CurrentPassengers,
		Rating:               trip.Estimate.Rating,
	}
}

func newTripSearchEntry(result *gtfs.TripSearchResult) models.TripSearchEntry {
	trips := make([]models.DirectTripResult, len(result.Trips))
	for i, trip := range result.Trips {
		trips[i] = newDirectTripResult(trip, result.FromStop, result.ToStop)
	}
	return models.TripSearchEntry{
		From:         models.NewStop(result.FromStop),
		To:           models.NewStop(result.ToStop),
		Date:         result.Date,
		Time:         result.Time,
		TotalResults: len(trips),
		NoService:    result.NoService,
		Message:      result.Message,
		Trips:        trips,
	}
}

func newListedStops(stops []gtfs.NearbyStop) []models.Stop {
	out := make([]models.Stop, len(stops))
	for i, s := range stops {
		out[i] = models.NewStop(s.Stop)
	}
	return out
}

func newNearbyStops(stops []gtfs.NearbyStop) []models.NearbyStop {
	out := make([]models.NearbyStop, len(stops))
	for i, s := range stops {
		out[i] = models.NearbyStop{Stop: models.NewStop(s.Stop), DistanceMeters: s.Distance}
	}
	return out
}

func newRouteDetails(details *gtfs.RouteDetails) models.RouteDetails {
	return models.RouteDetails{
		Route: models.NewRoute(details.Route),
		Stops: newTripStops(details.Stops),
		Statistics: models.RouteStatistics{
			TotalTrips:        details.Statistics.TotalTrips,
			TotalStops:        details.Statistics.TotalStops,
			EstimatedDuration: details.Statistics.EstimatedDuration,
			Frequency:         details.Statistics.Frequency,
			OperatingDays:     details.Statistics.OperatingDays,
		},
		Trips: models.NewTrips(details.Trips),
	}
}

func newRouteShape(shape *gtfs.RouteShape) models.RouteShape {
	points := make([]models.ShapePoint, len(shape.Points))
	path := make([]gtfs.Point, len(shape.Points))
	for i, p := range shape.Points {
		points[i] = models.ShapePoint{Lat: p.Lat, Lng: p.Lon, Sequence: p.ShapePtSequence}
		path[i] = gtfs.Point{Lat: p.Lat, Lon: p.Lon}
	}
	return models.RouteShape{
		RouteID:         shape.RouteID,
		ShapeID:         shape.ShapeID,
		Points:          points,
		EncodedPolyline: gtfs.EncodePath(path),
		Length:          len(points),
	}
}

// newOverlapEntry names each overlapping route from routes, keyed by ID.
func newOverlapEntry(name string, result *gtfs.OverlapResult, routes map[string]gtfsdb.Route) models.OverlapEntry {
	perRoute := make([]models.RouteOverlap, len(result.PerRoute))
	for i, o := range result.PerRoute {
		route := routes[o.RouteID]
		perRoute[i] = models.RouteOverlap{
			RouteID:             o.RouteID,
			ShortName:           utils.NullStringOrEmpty(route.ShortName),
			LongName:            utils.NullStringOrEmpty(route.LongName),
			Percent:             o.Percent,
			OverlappingSegments: o.OverlappingSegments,
		}
	}
	return models.OverlapEntry{
		Name:            name,
		OverlapRatio:    result.OverlapRatio,
		TotalSegments:   result.TotalSegments,
		ThresholdMeters: result.ThresholdMeters,
		PerRoute:        perRoute,
	}
}

func proposalPoints(path []models.LatLng) []gtfs.Point {
	points := make([]gtfs.Point, len(path))
	for i, p := range path {
		points[i] = gtfs.Point{Lat: p.Lat, Lon: p.Lng}
	}
	return points
}
