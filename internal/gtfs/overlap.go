package gtfs

import (
	"math"
	"sort"

	"github.com/Niyant4280/bus-niyojak/internal/utils"

	"github.com/tidwall/rtree"
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// RoutePath is an existing route's geometry in travel order.
type RoutePath struct {
	RouteID string
	Points  []Point
}

type OverlapConfig struct {
	ThresholdMeters float64
}

func DefaultOverlapConfig() OverlapConfig {
	return OverlapConfig{ThresholdMeters: DefaultOverlapThresholdMeters}
}

// RouteOverlap is the share of proposed segments that pass near one route.
// OverlappingSegments holds the indices of those segments in path order.
type RouteOverlap struct {
	RouteID             string
	Percent             int
	OverlappingSegments []int
}

type OverlapResult struct {
	OverlapRatio    float64
	PerRoute        []RouteOverlap
	TotalSegments   int
	ThresholdMeters float64
}

// existingSegment is a route segment projected into the local meter frame.
type existingSegment struct {
	route          int
	ax, ay, bx, by float64
}

// ComputeOverlap measures how much of path runs within cfg.ThresholdMeters of
// the existing routes. A proposed segment overlaps a route when its minimum
// distance to any segment of that route is within the threshold. PerRoute lists
// only routes with at least one overlapping segment, highest percent first.
func ComputeOverlap(path []Point, routes []RoutePath, cfg OverlapConfig) OverlapResult {
	threshold := cfg.ThresholdMeters
	if threshold <= 0 {
		threshold = DefaultOverlapThresholdMeters
	}

	result := OverlapResult{
		PerRoute:        []RouteOverlap{},
		ThresholdMeters: threshold,
	}
	if len(path) < 2 {
		return result
	}
	result.TotalSegments = len(path) - 1
	if len(routes) == 0 {
		return result
	}

	// Frame centered on the path's extent, so a reversed path projects identically.
	extent := pathBounds(path)
	proj := utils.NewLocalProjection((extent.MinLat+extent.MaxLat)/2, (extent.MinLon+extent.MaxLon)/2)
	index := indexRouteSegments(routes, proj)

	segmentsByRoute := make([][]int, len(routes))
	overlapping := 0
	for i := 0; i < result.TotalSegments; i++ {
		a, b := path[i], path[i+1]
		ax, ay := proj.Project(a.Lat, a.Lon)
		bx, by := proj.Project(b.Lat, b.Lon)

		bounds := proj.Buffer(segmentBounds(a, b), threshold)
		hit := make(map[int]struct{})
		index.Search(
			[2]float64{bounds.MinLat, bounds.MinLon},
			[2]float64{bounds.MaxLat, bounds.MaxLon},
			func(_, _ [2]float64, data interface{}) bool {
				seg := data.(existingSegment)
				if _, done := hit[seg.route]; done {
					return true
				}
				if utils.SegmentDistance(ax, ay, bx, by, seg.ax, seg.ay, seg.bx, seg.by) <= threshold {
					hit[seg.route] = struct{}{}
				}
				return true
			},
		)

		if len(hit) > 0 {
			overlapping++
		}
		for route := range hit {
			segmentsByRoute[route] = append(segmentsByRoute[route], i)
		}
	}

	result.OverlapRatio = math.Min(1, float64(overlapping)/float64(result.TotalSegments))

	for route, segments := range segmentsByRoute {
		if len(segments) == 0 {
			continue
		}
		sort.Ints(segments)
		result.PerRoute = append(result.PerRoute, RouteOverlap{
			RouteID:             routes[route].RouteID,
			Percent:             int(math.Round(float64(len(segments)) / float64(result.TotalSegments) * 100)),
			OverlappingSegments: segments,
		})
	}
	sort.SliceStable(result.PerRoute, func(i, j int) bool {
		if result.PerRoute[i].Percent != result.PerRoute[j].Percent {
			return result.PerRoute[i].Percent > result.PerRoute[j].Percent
		}
		return result.PerRoute[i].RouteID < result.PerRoute[j].RouteID
	})

	return result
}

// indexRouteSegments inserts every route segment into an R-tree keyed by its
// lat/lon bounding box. A single-point route becomes a zero-length segment.
func indexRouteSegments(routes []RoutePath, proj utils.LocalProjection) *rtree.RTree {
	tree := &rtree.RTree{}
	for ri, route := range routes {
		points := route.Points
		if len(points) == 1 {
			points = []Point{points[0], points[0]}
		}
		for i := 0; i+1 < len(points); i++ {
			a, b := points[i], points[i+1]
			ax, ay := proj.Project(a.Lat, a.Lon)
			bx, by := proj.Project(b.Lat, b.Lon)
			bounds := segmentBounds(a, b)
			tree.Insert(
				[2]float64{bounds.MinLat, bounds.MinLon},
				[2]float64{bounds.MaxLat, bounds.MaxLon},
				existingSegment{route: ri, ax: ax, ay: ay, bx: bx, by: by},
			)
		}
	}
	return tree
}

func segmentBounds(a, b Point) utils.CoordinateBounds {
	return utils.CoordinateBounds{
		MinLat: math.Min(a.Lat, b.Lat),
		MaxLat: math.Max(a.Lat, b.Lat),
		MinLon: math.Min(a.Lon, b.Lon),
		MaxLon: math.Max(a.Lon, b.Lon),
	}
}

func pathBounds(path []Point) utils.CoordinateBounds {
	bounds := segmentBounds(path[0], path[0])
	for _, p := range path[1:] {
		bounds.MinLat = math.Min(bounds.MinLat, p.Lat)
		bounds.MaxLat = math.Max(bounds.MaxLat, p.Lat)
		bounds.MinLon = math.Min(bounds.MinLon, p.Lon)
		bounds.MaxLon = math.Max(bounds.MaxLon, p.Lon)
	}
	return bounds
}
