package gtfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// DefaultListingRadiusKm bounds a stop listing centred on a point when no radius is given.
const DefaultListingRadiusKm = 5.0

// StopListing selects one page of the stop directory. With Near set, stops
// within RadiusKm of it are listed nearest first; otherwise by name.
type StopListing struct {
	Search   string
	Near     *Point
	RadiusKm float64
	Limit    int
	Offset   int
}

// ListStops pages through active stops. The second value is the total match
// count before paging. Distances are only set for listings around a point.
func (manager *Manager) ListStops(ctx context.Context, listing StopListing) ([]NearbyStop, int64, error) {
	if listing.Limit <= 0 || listing.Offset < 0 {
		return nil, 0, fmt.Errorf("%w: limit must be positive and offset non-negative", ErrInvalidArgument)
	}

	if listing.Near == nil {
		stops, total, err := manager.repo.ListStops(ctx, gtfsdb.ListStopsParams{
			Search: listing.Search,
			Limit:  int64(listing.Limit),
			Offset: int64(listing.Offset),
		})
		if err != nil {
			return nil, 0, upstreamError(ctx, "list_stops", err)
		}
		page := make([]NearbyStop, len(stops))
		for i, s := range stops {
			page[i] = NearbyStop{Stop: s}
		}
		return page, total, nil
	}

	if err := validatePoint(listing.Near.Lat, listing.Near.Lon); err != nil {
		return nil, 0, err
	}
	radiusKm := listing.RadiusKm
	if radiusKm == 0 {
		radiusKm = DefaultListingRadiusKm
	}
	if err := utils.ValidateRadiusKm(radiusKm); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if ctx.Err() != nil {
		return nil, 0, ctx.Err()
	}

	nearby := manager.indexedStops().within(listing.Near.Lat, listing.Near.Lon, radiusKm*1000)
	if needle := strings.ToLower(listing.Search); needle != "" {
		matches := nearby[:0]
		for _, n := range nearby {
			if strings.Contains(strings.ToLower(n.Stop.Name.String), needle) ||
				strings.Contains(strings.ToLower(n.Stop.Desc.String), needle) {
				matches = append(matches, n)
			}
		}
		nearby = matches
	}

	total := int64(len(nearby))
	if listing.Offset >= len(nearby) {
		return []NearbyStop{}, total, nil
	}
	nearby = nearby[listing.Offset:]
	if len(nearby) > listing.Limit {
		nearby = nearby[:listing.Limit]
	}
	return nearby, total, nil
}
