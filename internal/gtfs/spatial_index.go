package gtfs

import (
	"context"
	"sort"

	"github.com/tidwall/rtree"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// stopIndex is an immutable R-tree of stop positions keyed [lat, lon].
// A new one is built on every static load and swapped in whole.
type stopIndex struct {
	tree  rtree.RTree
	count int
}

func buildStopIndex(ctx context.Context, repo Repository) (*stopIndex, error) {
	stops, err := repo.ListActiveStops(ctx)
	if err != nil {
		return nil, err
	}

	index := &stopIndex{count: len(stops)}
	for i := range stops {
		point := [2]float64{stops[i].Lat, stops[i].Lon}
		index.tree.Insert(point, point, &stops[i])
	}
	return index, nil
}

// within returns the stops within radius meters of (lat, lon), by distance then ID.
// The bounding box query only narrows the candidates; the haversine check decides.
func (index *stopIndex) within(lat, lon, radius float64) []NearbyStop {
	if index == nil || index.count == 0 {
		return []NearbyStop{}
	}

	bounds := utils.CalculateBounds(lat, lon, radius)
	found := []NearbyStop{}
	index.tree.Search(
		[2]float64{min(bounds.MinLat, bounds.MaxLat), min(bounds.MinLon, bounds.MaxLon)},
		[2]float64{max(bounds.MinLat, bounds.MaxLat), max(bounds.MinLon, bounds.MaxLon)},
		func(_, _ [2]float64, data interface{}) bool {
			stop, ok := data.(*gtfsdb.Stop)
			if !ok {
				return true
			}
			if d := utils.Distance(lat, lon, stop.Lat, stop.Lon); d <= radius {
				found = append(found, NearbyStop{Stop: *stop, Distance: d})
			}
			return true
		},
	)

	sort.Slice(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		return found[i].Stop.ID < found[j].Stop.ID
	})
	return found
}
