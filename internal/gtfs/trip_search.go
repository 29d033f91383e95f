package gtfs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

const searchDateLayout = "2006-01-02"

// TripSearch is a stop-to-stop search. Each endpoint is given either as text
// or as a point; the point wins when both are set.
type TripSearch struct {
	From       string
	To         string
	FromPoint  *Point
	ToPoint    *Point
	Date       string // YYYY-MM-DD, today when empty
	Time       string // HH:MM, now when empty
	Wheelchair bool
}

// TripSearchResult is the outcome of SearchTrips with the resolved endpoints
// and the effective date and time.
type TripSearchResult struct {
	DirectTripsResult
	FromStop gtfsdb.Stop
	ToStop   gtfsdb.Stop
	Date     string
	Time     string
}

// SearchTrips resolves both endpoints and lists the direct trips between them.
func (manager *Manager) SearchTrips(ctx context.Context, search TripSearch) (*TripSearchResult, error) {
	if search.FromPoint == nil && strings.TrimSpace(search.From) == "" {
		return nil, fmt.Errorf("%w: from location is required", ErrInvalidArgument)
	}
	if search.ToPoint == nil && strings.TrimSpace(search.To) == "" {
		return nil, fmt.Errorf("%w: to location is required", ErrInvalidArgument)
	}

	now := manager.clock.Now()
	date, err := parseSearchDate(search.Date, now)
	if err != nil {
		return nil, err
	}
	timeOfDay, err := parseSearchTime(search.Time, now)
	if err != nil {
		return nil, err
	}

	fromStop, err := manager.resolveEndpoint(ctx, "from", search.From, search.FromPoint)
	if err != nil {
		return nil, err
	}
	toStop, err := manager.resolveEndpoint(ctx, "to", search.To, search.ToPoint)
	if err != nil {
		return nil, err
	}

	trips, err := manager.FindDirectTrips(ctx, fromStop.ID, toStop.ID, date, timeOfDay, search.Wheelchair)
	if err != nil {
		return nil, err
	}

	return &TripSearchResult{
		DirectTripsResult: *trips,
		FromStop:          *fromStop,
		ToStop:            *toStop,
		Date:              date.Format(searchDateLayout),
		Time:              utils.FormatClockMinutes(timeOfDay),
	}, nil
}

func (manager *Manager) resolveEndpoint(ctx context.Context, field, text string, point *Point) (*gtfsdb.Stop, error) {
	var (
		stop *gtfsdb.Stop
		err  error
	)
	if point != nil {
		stop, err = manager.FindStopByProximity(ctx, point.Lat, point.Lon, EndpointSearchRadiusMeters)
	} else {
		stop, err = manager.FindStopByText(ctx, text)
	}
	if err != nil {
		return nil, err
	}
	if stop == nil {
		if point != nil {
			return nil, fmt.Errorf("%w: no stop within %.0f m of %s location", ErrNotFound, EndpointSearchRadiusMeters, field)
		}
		return nil, fmt.Errorf("%w: no stop matches %s location %q", ErrNotFound, field, text)
	}
	return stop, nil
}

// parseSearchDate reads a YYYY-MM-DD date in the clock's location.
func parseSearchDate(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return now, nil
	}
	if err := utils.ValidateDate(value); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	date, err := time.ParseInLocation(searchDateLayout, value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return date, nil
}

func parseSearchTime(value string, now time.Time) (int, error) {
	if value == "" {
		return now.Hour()*60 + now.Minute(), nil
	}
	minutes, err := utils.ParseTimeOfDay(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return minutes, nil
}
