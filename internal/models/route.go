package models

import (
	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

type Route struct {
	ID          string `json:"id"`
	AgencyID    string `json:"agencyId"`
	ShortName   string `json:"shortName"`
	LongName    string `json:"longName"`
	Description string `json:"description"`
	Type        int    `json:"type"`
	URL         string `json:"url"`
	Color       string `json:"color"`
	TextColor   string `json:"textColor"`
}

func NewRoute(route gtfsdb.Route) Route {
	return Route{
		ID:          route.ID,
		AgencyID:    route.AgencyID,
		ShortName:   utils.NullStringOrEmpty(route.ShortName),
		LongName:    utils.NullStringOrEmpty(route.LongName),
		Description: utils.NullStringOrEmpty(route.Desc),
		Type:        int(route.Type),
		URL:         utils.NullStringOrEmpty(route.Url),
		Color:       utils.NullStringOrEmpty(route.Color),
		TextColor:   utils.NullStringOrEmpty(route.TextColor),
	}
}

func NewRoutes(routes []gtfsdb.Route) []Route {
	out := make([]Route, len(routes))
	for i, route := range routes {
		out[i] = NewRoute(route)
	}
	return out
}

type ScoredRoute struct {
	Route
	Score int `json:"score"`
}

// RouteSearchEntry is one ranked route search. Degraded marks the
// fallback list returned when nothing scored high enough.
type RouteSearchEntry struct {
	Query         string        `json:"query,omitempty"`
	From          string        `json:"from"`
	To            string        `json:"to"`
	Degraded      bool          `json:"degraded"`
	TotalRoutes   int           `json:"totalRoutes"`
	SelectedCount int           `json:"selectedCount"`
	Routes        []ScoredRoute `json:"routes"`
	FromStops     []Stop        `json:"fromStops"`
	ToStops       []Stop        `json:"toStops"`
}

type RouteStatistics struct {
	TotalTrips        int      `json:"totalTrips"`
	TotalStops        int      `json:"totalStops"`
	EstimatedDuration int      `json:"estimatedDuration"`
	Frequency         string   `json:"frequency"`
	OperatingDays     []string `json:"operatingDays"`
}

type RouteDetails struct {
	Route      Route           `json:"route"`
	Stops      []TripStop      `json:"stops"`
	Statistics RouteStatistics `json:"statistics"`
	Trips      []Trip          `json:"trips"`
}

type ShapePoint struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Sequence int64   `json:"sequence"`
}

// RouteShape carries the ordered points and the same path as a Google encoded polyline.
type RouteShape struct {
	RouteID         string       `json:"routeId"`
	ShapeID         string       `json:"shapeId"`
	Points          []ShapePoint `json:"points"`
	EncodedPolyline string       `json:"encodedPolyline"`
	Length          int          `json:"length"`
}
