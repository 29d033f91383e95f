package gtfs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
)

// monday is 2024-06-10, a weekday inside the fixture calendars.
var monday = time.Date(2024, 6, 10, 5, 0, 0, 0, time.UTC)

func ns(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func ni(i int64) sql.NullInt64 {
	return sql.NullInt64{Int64: i, Valid: true}
}

type fixedEstimator struct{}

func (fixedEstimator) Estimate(route gtfsdb.Route, durationMinutes int) Estimate {
	return Estimate{Frequency: "fixed", Price: durationMinutes, Capacity: 1, CurrentPassengers: 0, Rating: 5}
}

// fixture seeds an in-memory store.
type fixture struct {
	t       *testing.T
	client  *gtfsdb.Client
	queries *gtfsdb.Queries
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	client, err := gtfsdb.NewClient(gtfsdb.Config{DBPath: ":memory:", Env: appconf.Test})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{t: t, client: client, queries: client.Queries}
	require.NoError(t, f.queries.CreateAgency(context.Background(), gtfsdb.Agency{
		ID: "DMRC", Name: "Delhi Metro Rail Corporation", Url: "https://www.delhimetrorail.com", Timezone: "Asia/Kolkata",
	}))
	return f
}

func (f *fixture) route(id, shortName, longName string, routeType int64, color string) {
	f.t.Helper()
	require.NoError(f.t, f.queries.CreateRoute(context.Background(), gtfsdb.Route{
		ID: id, AgencyID: "DMRC", ShortName: ns(shortName), LongName: ns(longName),
		Type: routeType, Color: ns(color), IsActive: 1,
	}))
}

func (f *fixture) stop(id, name, desc string, lat, lon float64) {
	f.t.Helper()
	require.NoError(f.t, f.queries.CreateStop(context.Background(), gtfsdb.Stop{
		ID: id, Name: ns(name), Desc: ns(desc), Lat: lat, Lon: lon, IsActive: 1,
	}))
}

func (f *fixture) calendar(id string, days [7]int64, start, end string) {
	f.t.Helper()
	require.NoError(f.t, f.queries.CreateCalendar(context.Background(), gtfsdb.Calendar{
		ID: id, Monday: days[0], Tuesday: days[1], Wednesday: days[2], Thursday: days[3],
		Friday: days[4], Saturday: days[5], Sunday: days[6],
		StartDate: start, EndDate: end, IsActive: 1,
	}))
}

// trip creates a trip calling at stops in order. calls alternate stop ID and "HH:MM:SS".
func (f *fixture) trip(id, routeID, serviceID, shapeID string, wheelchair int64, calls ...string) {
	f.t.Helper()
	ctx := context.Background()
	require.NoError(f.t, f.queries.CreateTrip(ctx, gtfsdb.Trip{
		ID: id, RouteID: routeID, ServiceID: serviceID, ShapeID: ns(shapeID),
		WheelchairAccessible: ni(wheelchair), DirectionID: ni(0), IsActive: 1,
	}))
	for i := 0; i+1 < len(calls); i += 2 {
		require.NoError(f.t, f.queries.CreateStopTime(ctx, gtfsdb.StopTime{
			TripID: id, StopID: calls[i], StopSequence: int64(i/2 + 1),
			ArrivalTime: calls[i+1], DepartureTime: calls[i+1],
		}))
	}
}

func (f *fixture) shape(id string, points ...Point) {
	f.t.Helper()
	for i, p := range points {
		require.NoError(f.t, f.queries.CreateShape(context.Background(), gtfsdb.Shape{
			ShapeID: id, Lat: p.Lat, Lon: p.Lon, ShapePtSequence: int64(i),
		}))
	}
}

func (f *fixture) manager() *Manager {
	f.t.Helper()
	return newTestManager(f.t, f.queries)
}

func newTestManager(t *testing.T, repo Repository) *Manager {
	t.Helper()
	manager, err := NewManager(repo, Config{Env: appconf.Test})
	require.NoError(t, err)
	manager.SetEstimator(fixedEstimator{})
	manager.SetClock(clock.NewMockClock(monday))
	return manager
}

var (
	weekdays = [7]int64{1, 1, 1, 1, 1, 0, 0}
	weekends = [7]int64{0, 0, 0, 0, 0, 1, 1}

	rithala       = Point{Lat: 28.7175, Lon: 77.1031}
	kashmereGate  = Point{Lat: 28.6675, Lon: 77.2282}
	dilshadGarden = Point{Lat: 28.6751, Lon: 77.3195}
	rajivChowk    = Point{Lat: 28.6328, Lon: 77.2197}
)

// seedScenario is the single-route, single-trip network of the end-to-end case.
func seedScenario(f *fixture) {
	f.route("R_RD", "R_RD", "RED_Rithala to Dilshad Garden", 1, "FF0000")
	f.stop("RITHALA", "Rithala", "", rithala.Lat, rithala.Lon)
	f.stop("DILSHAD_GARDEN", "Dilshad Garden", "", dilshadGarden.Lat, dilshadGarden.Lon)
	f.calendar("weekday", weekdays, "20240101", "20241231")
	f.trip("R_RD_001", "R_RD", "weekday", "", 1,
		"RITHALA", "06:00:00", "DILSHAD_GARDEN", "06:30:00")
}

// seedNetwork builds a small metro network with several trips per line.
func seedNetwork(f *fixture) {
	f.route("R_RD", "R_RD", "RED_Rithala to Dilshad Garden", 1, "FF0000")
	f.route("Y_HQ", "Y_HQ", "YELLOW_Samaypur Badli to HUDA City Centre", 1, "FFFF00")
	f.route("B_DN", "B_DN", "BLUE_Dwarka to Noida City Centre", 1, "0000FF")

	f.stop("RITHALA", "Rithala", "Red line terminus", rithala.Lat, rithala.Lon)
	f.stop("KASHMERE_GATE", "Kashmere Gate", "Red and yellow interchange", kashmereGate.Lat, kashmereGate.Lon)
	f.stop("DILSHAD_GARDEN", "Dilshad Garden", "", dilshadGarden.Lat, dilshadGarden.Lon)
	f.stop("DILSHAD_GARDEN_DEPOT", "Dilshad Garden Depot", "", 28.6790, 77.3230)
	f.stop("RAJIV_CHOWK", "Rajiv Chowk", "Blue and yellow interchange", rajivChowk.Lat, rajivChowk.Lon)

	f.calendar("weekday", weekdays, "20240101", "20241231")
	f.calendar("weekend", weekends, "20240101", "20241231")

	f.shape("SHP_RD", rithala, kashmereGate, dilshadGarden)

	f.trip("R_RD_001", "R_RD", "weekday", "SHP_RD", 1,
		"RITHALA", "06:00:00", "KASHMERE_GATE", "06:16:00", "DILSHAD_GARDEN", "06:30:00")
	f.trip("R_RD_002", "R_RD", "weekday", "SHP_RD", 0,
		"RITHALA", "08:00:00", "KASHMERE_GATE", "08:16:00", "DILSHAD_GARDEN", "08:35:00")
	f.trip("R_RD_003", "R_RD", "weekday", "SHP_RD", 1,
		"DILSHAD_GARDEN", "07:00:00", "KASHMERE_GATE", "07:14:00", "RITHALA", "07:30:00")
	f.trip("R_RD_004", "R_RD", "weekend", "SHP_RD", 1,
		"RITHALA", "09:00:00", "KASHMERE_GATE", "09:16:00", "DILSHAD_GARDEN", "09:30:00")
	f.trip("R_RD_005", "R_RD", "weekday", "SHP_RD", 1,
		"RITHALA", "23:50:00", "KASHMERE_GATE", "24:06:00", "DILSHAD_GARDEN", "24:20:00")
	f.trip("Y_HQ_001", "Y_HQ", "weekday", "", 1,
		"KASHMERE_GATE", "06:05:00", "RAJIV_CHOWK", "06:15:00")
}

var errStoreDown = errors.New("database is locked")

// brokenRepo fails every call that reaches the store.
type brokenRepo struct {
	Repository
}

func (brokenRepo) ListActiveRoutes(context.Context) ([]gtfsdb.Route, error) {
	return nil, errStoreDown
}

func (brokenRepo) ListActiveCalendars(context.Context) ([]gtfsdb.Calendar, error) {
	return nil, errStoreDown
}

func (brokenRepo) SearchStopsByText(context.Context, string) ([]gtfsdb.Stop, error) {
	return nil, errStoreDown
}
