package gtfs

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/twpayne/go-polyline"
	"golang.org/x/sync/singleflight"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// RouteProposal is a planned route to compare against the network. Path takes
// precedence over EncodedPath, a Google encoded polyline.
type RouteProposal struct {
	Name        string
	Path        []Point
	EncodedPath string
}

// routePathCache holds the network geometry for one static data generation.
type routePathCache struct {
	mu         sync.RWMutex
	generation uint64
	paths      []RoutePath
	valid      bool
	group      singleflight.Group
}

func (c *routePathCache) get(generation uint64) ([]RoutePath, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.valid || c.generation != generation {
		return nil, false
	}
	return c.paths, true
}

func (c *routePathCache) put(generation uint64, paths []RoutePath) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation = generation
	c.paths = paths
	c.valid = true
}

func (c *routePathCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = nil
	c.valid = false
}

// AnalyzeRouteOverlap compares a proposal with every active route's geometry.
func (manager *Manager) AnalyzeRouteOverlap(ctx context.Context, proposal RouteProposal) (*OverlapResult, error) {
	path, err := ProposalPath(proposal)
	if err != nil {
		return nil, err
	}

	cfg := OverlapConfig{ThresholdMeters: manager.OverlapThreshold()}
	if len(path) < 2 {
		result := ComputeOverlap(path, nil, cfg)
		return &result, nil
	}

	routes, err := manager.RoutePaths(ctx)
	if err != nil {
		return nil, err
	}

	result := ComputeOverlap(path, routes, cfg)
	return &result, nil
}

// ProposalPath returns the proposal's points, decoding EncodedPath when no
// explicit path is given.
func ProposalPath(proposal RouteProposal) ([]Point, error) {
	path := proposal.Path
	if len(path) == 0 && strings.TrimSpace(proposal.EncodedPath) != "" {
		coords, _, err := polyline.DecodeCoords([]byte(strings.TrimSpace(proposal.EncodedPath)))
		if err != nil {
			return nil, fmt.Errorf("%w: encodedPath: %v", ErrInvalidArgument, err)
		}
		path = make([]Point, len(coords))
		for i, c := range coords {
			path[i] = Point{Lat: c[0], Lon: c[1]}
		}
	}

	for i, p := range path {
		if err := validatePoint(p.Lat, p.Lon); err != nil {
			return nil, fmt.Errorf("path[%d]: %w", i, err)
		}
	}
	return path, nil
}

// EncodePath renders points as a Google encoded polyline.
func EncodePath(points []Point) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lon}
	}
	return string(polyline.EncodeCoords(coords))
}

// RoutePaths returns the geometry of every active route, built once per
// static data generation.
func (manager *Manager) RoutePaths(ctx context.Context) ([]RoutePath, error) {
	generation := manager.Generation()
	if paths, ok := manager.routePaths.get(generation); ok {
		return paths, nil
	}

	v, err, _ := manager.routePaths.group.Do(strconv.FormatUint(generation, 10), func() (interface{}, error) {
		paths, err := manager.loadRoutePaths(ctx)
		if err != nil {
			return nil, err
		}
		manager.routePaths.put(generation, paths)
		return paths, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]RoutePath), nil
}

// loadRoutePaths uses each route's first shape, falling back to the stop
// sequence of its sample trip. Routes with neither are left out.
func (manager *Manager) loadRoutePaths(ctx context.Context) ([]RoutePath, error) {
	routes, err := manager.repo.ListActiveRoutes(ctx)
	if err != nil {
		return nil, upstreamError(ctx, "list_active_routes", err)
	}
	pairs, err := manager.repo.ListRouteShapes(ctx)
	if err != nil {
		return nil, upstreamError(ctx, "list_route_shapes", err)
	}
	samples, err := manager.repo.ListRouteSampleTrips(ctx)
	if err != nil {
		return nil, upstreamError(ctx, "list_route_sample_trips", err)
	}

	firstShape := make(map[string]string)
	var shapeIDs []string
	for _, pair := range pairs {
		if _, ok := firstShape[pair.RouteID]; ok {
			continue
		}
		firstShape[pair.RouteID] = pair.ShapeID
		shapeIDs = append(shapeIDs, pair.ShapeID)
	}

	shapePoints, err := manager.repo.GetShapePointsByIDs(ctx, shapeIDs)
	if err != nil {
		return nil, upstreamError(ctx, "get_shape_points_by_ids", err)
	}
	byShape := make(map[string][]gtfsdb.Shape)
	for _, p := range shapePoints {
		byShape[p.ShapeID] = append(byShape[p.ShapeID], p)
	}

	paths := make(map[string][]Point)
	for routeID, shapeID := range firstShape {
		points := byShape[shapeID]
		if len(points) == 0 {
			continue
		}
		sort.Slice(points, func(i, j int) bool { return points[i].ShapePtSequence < points[j].ShapePtSequence })
		path := make([]Point, len(points))
		for i, p := range points {
			path[i] = Point{Lat: p.Lat, Lon: p.Lon}
		}
		paths[routeID] = path
	}

	sampleTrip := make(map[string]string)
	var tripIDs []string
	for _, sample := range samples {
		if _, ok := paths[sample.RouteID]; ok {
			continue
		}
		sampleTrip[sample.TripID] = sample.RouteID
		tripIDs = append(tripIDs, sample.TripID)
	}
	if err := manager.addStopSequencePaths(ctx, tripIDs, sampleTrip, paths); err != nil {
		return nil, err
	}

	result := make([]RoutePath, 0, len(routes))
	for _, route := range routes {
		if path, ok := paths[route.ID]; ok {
			result = append(result, RoutePath{RouteID: route.ID, Points: path})
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RouteID < result[j].RouteID })
	return result, nil
}

func (manager *Manager) addStopSequencePaths(ctx context.Context, tripIDs []string, routeForTrip map[string]string, paths map[string][]Point) error {
	if len(tripIDs) == 0 {
		return nil
	}

	stopTimes, err := manager.repo.GetStopTimesForTrips(ctx, tripIDs)
	if err != nil {
		return upstreamError(ctx, "get_stop_times_for_trips", err)
	}

	var stopIDs []string
	seen := make(map[string]struct{})
	for _, st := range stopTimes {
		if _, ok := seen[st.StopID]; !ok {
			seen[st.StopID] = struct{}{}
			stopIDs = append(stopIDs, st.StopID)
		}
	}
	stops, err := manager.repo.GetStopsByIDs(ctx, stopIDs)
	if err != nil {
		return upstreamError(ctx, "get_stops_by_ids", err)
	}
	stopMap := make(map[string]gtfsdb.Stop, len(stops))
	for _, stop := range stops {
		stopMap[stop.ID] = stop
	}

	// Stop times arrive ordered by trip and sequence.
	for _, st := range stopTimes {
		stop, ok := stopMap[st.StopID]
		if !ok {
			continue
		}
		routeID := routeForTrip[st.TripID]
		paths[routeID] = append(paths[routeID], Point{Lat: stop.Lat, Lon: stop.Lon})
	}
	return nil
}

// RouteShape is the ordered geometry of a route's first shape.
type RouteShape struct {
	RouteID string
	ShapeID string
	Points  []gtfsdb.Shape
}

// GetRouteShape returns the first shape used by the route's active trips.
func (manager *Manager) GetRouteShape(ctx context.Context, routeID string) (*RouteShape, error) {
	if err := utils.ValidateID(routeID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	trips, err := manager.repo.GetTripsForRoute(ctx, gtfsdb.GetTripsForRouteParams{RouteID: routeID})
	if err != nil {
		return nil, upstreamError(ctx, "get_trips_for_route", err)
	}

	for _, trip := range trips {
		if !trip.ShapeID.Valid || trip.ShapeID.String == "" {
			continue
		}
		points, err := manager.repo.GetShapePoints(ctx, trip.ShapeID.String)
		if err != nil {
			return nil, upstreamError(ctx, "get_shape_points", err)
		}
		if len(points) == 0 {
			continue
		}
		return &RouteShape{RouteID: routeID, ShapeID: trip.ShapeID.String, Points: points}, nil
	}
	return nil, fmt.Errorf("%w: no shape for route %s", ErrNotFound, routeID)
}
