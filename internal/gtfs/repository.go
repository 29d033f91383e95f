package gtfs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
)

// Repository is the read side of the GTFS store. *gtfsdb.Queries satisfies it.
type Repository interface {
	GetRoute(ctx context.Context, id string) (gtfsdb.Route, error)
	ListActiveRoutes(ctx context.Context) ([]gtfsdb.Route, error)
	ListRoutes(ctx context.Context, arg gtfsdb.ListRoutesParams) ([]gtfsdb.Route, int64, error)
	GetRoutesByIDs(ctx context.Context, ids []string) ([]gtfsdb.Route, error)

	GetStop(ctx context.Context, id string) (gtfsdb.Stop, error)
	GetStopsByIDs(ctx context.Context, ids []string) ([]gtfsdb.Stop, error)
	ListActiveStops(ctx context.Context) ([]gtfsdb.Stop, error)
	SearchStopsByText(ctx context.Context, text string) ([]gtfsdb.Stop, error)
	ListStops(ctx context.Context, arg gtfsdb.ListStopsParams) ([]gtfsdb.Stop, int64, error)

	GetTrip(ctx context.Context, id string) (gtfsdb.Trip, error)
	GetTripsByIDs(ctx context.Context, ids []string) ([]gtfsdb.Trip, error)
	GetTripsForRoute(ctx context.Context, arg gtfsdb.GetTripsForRouteParams) ([]gtfsdb.Trip, error)
	ListRouteShapes(ctx context.Context) ([]gtfsdb.RouteShape, error)
	ListRouteSampleTrips(ctx context.Context) ([]gtfsdb.RouteSampleTrip, error)

	GetStopTimesForStop(ctx context.Context, stopID string) ([]gtfsdb.StopTime, error)
	GetStopTimesForTrip(ctx context.Context, tripID string) ([]gtfsdb.StopTime, error)
	GetStopTimesForTrips(ctx context.Context, tripIDs []string) ([]gtfsdb.StopTime, error)

	ListActiveCalendars(ctx context.Context) ([]gtfsdb.Calendar, error)
	GetCalendarsByIDs(ctx context.Context, ids []string) ([]gtfsdb.Calendar, error)

	GetShapePoints(ctx context.Context, shapeID string) ([]gtfsdb.Shape, error)
	GetShapePointsByIDs(ctx context.Context, shapeIDs []string) ([]gtfsdb.Shape, error)

	GetStats(ctx context.Context) (gtfsdb.Stats, error)
	GetImportMetadata(ctx context.Context) (gtfsdb.ImportMetadatum, error)
}

var _ Repository = (*gtfsdb.Queries)(nil)

// upstreamError logs a store failure and wraps it as ErrUpstreamUnavailable.
// A cancelled context is returned as-is.
func upstreamError(ctx context.Context, operation string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	logger := logging.FromContext(ctx).With(slog.String("component", "gtfs_repository"))
	logging.LogError(logger, "repository call failed", err, slog.String("operation", operation))
	return fmt.Errorf("%w: %s: %w", ErrUpstreamUnavailable, operation, err)
}
