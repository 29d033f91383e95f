package gtfs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
)

func TestGetRouteDetails(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()

	details, err := manager.GetRouteDetails(context.Background(), "R_RD", TripFilter{})
	require.NoError(t, err)

	assert.Equal(t, "R_RD", details.Route.ID)
	assert.Equal(t, RouteStatistics{
		TotalTrips:        5,
		TotalStops:        3,
		EstimatedDuration: 30,
		Frequency:         "Every 5-10 min",
		OperatingDays:     []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
	}, details.Statistics)

	require.Len(t, details.Stops, 3)
	assert.Equal(t, "Rithala", details.Stops[0].Name)
	assert.Equal(t, "Kashmere Gate", details.Stops[1].Name)
	assert.Equal(t, "Dilshad Garden", details.Stops[2].Name)
	assert.Len(t, details.Trips, 5)
}

func TestGetRouteDetails_Filters(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()
	ctx := context.Background()

	weekend, err := manager.GetRouteDetails(ctx, "R_RD", TripFilter{ServiceID: "weekend"})
	require.NoError(t, err)
	assert.Equal(t, 1, weekend.Statistics.TotalTrips)
	assert.Equal(t, []string{"Saturday", "Sunday"}, weekend.Statistics.OperatingDays)
	assert.Equal(t, "R_RD_004", weekend.Trips[0].ID)

	inbound := int64(1)
	_, err = manager.GetRouteDetails(ctx, "R_RD", TripFilter{DirectionID: &inbound})
	assert.ErrorIs(t, err, ErrNotFound)

	trips, err := manager.GetTripsForRoute(ctx, "R_RD", TripFilter{DirectionID: &inbound})
	require.NoError(t, err)
	assert.Empty(t, trips)
	assert.NotNil(t, trips)
}

func TestGetRouteDetails_Errors(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()
	ctx := context.Background()

	tests := []struct {
		name    string
		routeID string
		wantErr error
	}{
		{"unknown route", "P_PK", ErrNotFound},
		{"route without trips", "B_DN", ErrNotFound},
		{"empty id", "", ErrInvalidArgument},
		{"invalid id", "R RD;--", ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := manager.GetRouteDetails(ctx, tt.routeID, TripFilter{})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetRoute_InactiveIsNotFound(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.queries.CreateRoute(context.Background(), gtfsdb.Route{
		ID: "OLD", AgencyID: "DMRC", ShortName: ns("OLD"), Type: 3, IsActive: 0,
	}))
	manager := f.manager()

	_, err := manager.GetRoute(context.Background(), "OLD")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = manager.GetTripsForRoute(context.Background(), "OLD", TripFilter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRoutes(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()
	ctx := context.Background()

	routes, total, err := manager.ListRoutes(ctx, gtfsdb.ListRoutesParams{Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, routes, 2)
	assert.Equal(t, "B_DN", routes[0].ID)
	assert.Equal(t, "R_RD", routes[1].ID)

	routes, total, err = manager.ListRoutes(ctx, gtfsdb.ListRoutesParams{Search: "yellow", Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "Y_HQ", routes[0].ID)

	routes, total, err = manager.ListRoutes(ctx, gtfsdb.ListRoutesParams{Search: "monorail", Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, routes)
}

func TestGetRouteShape(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()
	ctx := context.Background()

	shape, err := manager.GetRouteShape(ctx, "R_RD")
	require.NoError(t, err)
	assert.Equal(t, "SHP_RD", shape.ShapeID)
	require.Len(t, shape.Points, 3)
	assert.Equal(t, rithala.Lat, shape.Points[0].Lat)
	assert.Equal(t, dilshadGarden.Lon, shape.Points[2].Lon)

	_, err = manager.GetRouteShape(ctx, "Y_HQ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetTripStops(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()
	ctx := context.Background()

	stops, err := manager.GetTripStops(ctx, "R_RD_005")
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Equal(t, TripStop{
		StopID: "KASHMERE_GATE", Name: "Kashmere Gate",
		Lat: kashmereGate.Lat, Lon: kashmereGate.Lon,
		ArrivalTime: "24:06:00", DepartureTime: "24:06:00", Sequence: 2,
	}, stops[1])

	_, err = manager.GetTripStops(ctx, "R_RD_999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetStop(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()

	stop, err := manager.GetStop(context.Background(), "RAJIV_CHOWK")
	require.NoError(t, err)
	assert.Equal(t, "Rajiv Chowk", stop.Name.String)

	_, err = manager.GetStop(context.Background(), "CHANDNI_CHOWK")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCalendarsAndStats(t *testing.T) {
	f := newFixture(t)
	seedNetwork(f)
	manager := f.manager()
	ctx := context.Background()

	calendars, err := manager.ListCalendars(ctx)
	require.NoError(t, err)
	assert.Len(t, calendars, 2)

	stats, err := manager.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, gtfsdb.Stats{Routes: 3, Stops: 5, Trips: 6, StopTimes: 17, Shapes: 1, Calendars: 2}, stats)

	broken := newTestManager(t, brokenRepo{Repository: f.queries})
	_, err = broken.ListCalendars(ctx)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}
