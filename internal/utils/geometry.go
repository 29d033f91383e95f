package utils

import "math"

const (
	// RadiusOfEarthInMeters is RADIUS_OF_EARTH_IN_KM * 1000
	RadiusOfEarthInMeters = 6371010.0
)

// CoordinateBounds represents a bounding box with min/max latitude and longitude
type CoordinateBounds struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// Distance calculates the distance in meters between two points on the Earth.
// Short distances (under ~22km) use an equirectangular approximation; longer ones
// fall back to the exact great-circle formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	if math.Abs(lat2-lat1) < 0.2 && math.Abs(lon2-lon1) < 0.2 {
		lat1Rad := lat1 * (math.Pi / 180)
		lat2Rad := lat2 * (math.Pi / 180)
		dLatRad := (lat2 - lat1) * (math.Pi / 180)
		dLonRad := (lon2 - lon1) * (math.Pi / 180)

		x := dLonRad * math.Cos((lat1Rad+lat2Rad)/2)
		y := dLatRad
		return RadiusOfEarthInMeters * math.Sqrt(x*x+y*y)
	}

	lat1Rad := lat1 * (math.Pi / 180)
	lon1Rad := lon1 * (math.Pi / 180)
	lat2Rad := lat2 * (math.Pi / 180)
	lon2Rad := lon2 * (math.Pi / 180)

	deltaLon := lon2Rad - lon1Rad

	y := math.Sqrt(math.Pow(math.Cos(lat2Rad)*math.Sin(deltaLon), 2) +
		math.Pow(math.Cos(lat1Rad)*math.Sin(lat2Rad)-math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon), 2))
	x := math.Sin(lat1Rad)*math.Sin(lat2Rad) + math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Cos(deltaLon)

	return RadiusOfEarthInMeters * math.Atan2(y, x)
}

// CalculateBounds returns the box extending distance meters around (lat, lon).
func CalculateBounds(lat, lon, distance float64) CoordinateBounds {
	latRadians := lat * math.Pi / 180
	lonRadians := lon * math.Pi / 180

	latRadius := RadiusOfEarthInMeters
	lonRadius := math.Cos(latRadians) * RadiusOfEarthInMeters

	latOffset := distance / latRadius
	lonOffset := distance / lonRadius

	return CoordinateBounds{
		MinLat: (latRadians - latOffset) * 180 / math.Pi,
		MaxLat: (latRadians + latOffset) * 180 / math.Pi,
		MinLon: (lonRadians - lonOffset) * 180 / math.Pi,
		MaxLon: (lonRadians + lonOffset) * 180 / math.Pi,
	}
}

// IsOutOfBounds returns true only if the inner bounds have no overlap
// with the outer bounds.
func IsOutOfBounds(inner, outer CoordinateBounds) bool {
	return inner.MaxLat < outer.MinLat ||
		inner.MinLat > outer.MaxLat ||
		inner.MaxLon < outer.MinLon ||
		inner.MinLon > outer.MaxLon
}

// LocalProjection maps lat/lon to planar meters around a reference point.
// Accurate for the few kilometers a transit segment spans.
type LocalProjection struct {
	refLat float64
	refLon float64
	cosLat float64
}

func NewLocalProjection(refLat, refLon float64) LocalProjection {
	return LocalProjection{
		refLat: refLat,
		refLon: refLon,
		cosLat: math.Cos(refLat * math.Pi / 180),
	}
}

// Project returns (x, y) in meters east and north of the reference point.
func (p LocalProjection) Project(lat, lon float64) (x, y float64) {
	x = (lon - p.refLon) * math.Pi / 180 * p.cosLat * RadiusOfEarthInMeters
	y = (lat - p.refLat) * math.Pi / 180 * RadiusOfEarthInMeters
	return x, y
}

// Buffer grows b by meters as measured in this projection's plane.
func (p LocalProjection) Buffer(b CoordinateBounds, meters float64) CoordinateBounds {
	latOffset := meters / RadiusOfEarthInMeters * 180 / math.Pi
	lonOffset := latOffset / p.cosLat

	return CoordinateBounds{
		MinLat: b.MinLat - latOffset,
		MaxLat: b.MaxLat + latOffset,
		MinLon: b.MinLon - lonOffset,
		MaxLon: b.MaxLon + lonOffset,
	}
}

// PointToSegmentDistance is the planar distance from p to the closest point of segment a-b.
func PointToSegmentDistance(px, py, ax, ay, bx, by float64) float64 {
	dx := bx - ax
	dy := by - ay

	if dx == 0 && dy == 0 {
		return math.Hypot(px-ax, py-ay)
	}

	t := ((px-ax)*dx + (py-ay)*dy) / (dx*dx + dy*dy)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// SegmentsIntersect reports whether planar segments p1-p2 and q1-q2 share a point.
func SegmentsIntersect(p1x, p1y, p2x, p2y, q1x, q1y, q2x, q2y float64) bool {
	d1 := orientation(q1x, q1y, q2x, q2y, p1x, p1y)
	d2 := orientation(q1x, q1y, q2x, q2y, p2x, p2y)
	d3 := orientation(p1x, p1y, p2x, p2y, q1x, q1y)
	d4 := orientation(p1x, p1y, p2x, p2y, q2x, q2y)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(q1x, q1y, q2x, q2y, p1x, p1y)) ||
		(d2 == 0 && onSegment(q1x, q1y, q2x, q2y, p2x, p2y)) ||
		(d3 == 0 && onSegment(p1x, p1y, p2x, p2y, q1x, q1y)) ||
		(d4 == 0 && onSegment(p1x, p1y, p2x, p2y, q2x, q2y))
}

// SegmentDistance is the minimum planar distance between segments p1-p2 and q1-q2.
// Crossing segments are at distance 0.
func SegmentDistance(p1x, p1y, p2x, p2y, q1x, q1y, q2x, q2y float64) float64 {
	if SegmentsIntersect(p1x, p1y, p2x, p2y, q1x, q1y, q2x, q2y) {
		return 0
	}

	return math.Min(
		math.Min(
			PointToSegmentDistance(p1x, p1y, q1x, q1y, q2x, q2y),
			PointToSegmentDistance(p2x, p2y, q1x, q1y, q2x, q2y)),
		math.Min(
			PointToSegmentDistance(q1x, q1y, p1x, p1y, p2x, p2y),
			PointToSegmentDistance(q2x, q2y, p1x, p1y, p2x, p2y)))
}

func orientation(ax, ay, bx, by, cx, cy float64) float64 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func onSegment(ax, ay, bx, by, px, py float64) bool {
	return px >= math.Min(ax, bx) && px <= math.Max(ax, bx) &&
		py >= math.Min(ay, by) && py <= math.Max(ay, by)
}
