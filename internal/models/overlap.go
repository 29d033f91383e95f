package models

// LatLng is a coordinate in request and response bodies.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// OverlapRequest is a proposed route. Path wins over EncodedPath when both are set.
type OverlapRequest struct {
	Name        string   `json:"name"`
	Path        []LatLng `json:"path"`
	EncodedPath string   `json:"encodedPath"`
}

type RouteOverlap struct {
	RouteID             string `json:"routeId"`
	ShortName           string `json:"shortName"`
	LongName            string `json:"longName"`
	Percent             int    `json:"percent"`
	OverlappingSegments []int  `json:"overlappingSegments"`
}

type OverlapEntry struct {
	Name            string         `json:"name,omitempty"`
	OverlapRatio    float64        `json:"overlapRatio"`
	TotalSegments   int            `json:"totalSegments"`
	ThresholdMeters float64        `json:"thresholdMeters"`
	PerRoute        []RouteOverlap `json:"perRoute"`
}
