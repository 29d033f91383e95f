package gtfs

import (
	"context"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// matchedStopsLimit caps the from/to stop echoes of a route search.
const matchedStopsLimit = 10

// LengthBand adds Bonus when a name's length in runes falls in [Min, Max].
type LengthBand struct {
	Min   int
	Max   int
	Bonus int
}

func (b LengthBand) contains(n int) bool {
	return n >= b.Min && n <= b.Max
}

// ScoringConfig holds the weights of the route relevance heuristic.
type ScoringConfig struct {
	TypeBonus         map[int64]int
	ExactMatchBonus   int
	PartialMatchBonus int
	TokenBonus        int
	MinTokenLength    int
	// The first band containing the length applies.
	LongNameBands  []LengthBand
	ShortNameBands []LengthBand
	ColorBonus     int
	DefaultColors  []string
	// Routes scoring at or below MinScore are dropped.
	MinScore      int
	FallbackScore int
}

func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		TypeBonus:         map[int64]int{1: 2, 2: 1},
		ExactMatchBonus:   50,
		PartialMatchBonus: 20,
		TokenBonus:        5,
		MinTokenLength:    3,
		LongNameBands: []LengthBand{
			{Min: 0, Max: 29, Bonus: 5},
			{Min: 30, Max: 49, Bonus: 3},
			{Min: 81, Max: math.MaxInt, Bonus: -2},
		},
		ShortNameBands: []LengthBand{
			{Min: 0, Max: 3, Bonus: 3},
			{Min: 4, Max: 5, Bonus: 1},
		},
		ColorBonus:    2,
		DefaultColors: []string{"", "000000", "FFFFFF"},
		MinScore:      10,
		FallbackScore: 1,
	}
}

// ScoredRoute is a route with its relevance score.
type ScoredRoute struct {
	Route gtfsdb.Route
	Score int
}

// RouteRanking is the ordered outcome of RankRoutes. Degraded is set when no
// route passed the relevance filter and every route was returned instead.
type RouteRanking struct {
	Routes   []ScoredRoute
	Degraded bool
}

// ScoreRoute rates how well route matches the from/to search terms.
// Matching is case-insensitive and the result is never negative.
func ScoreRoute(route gtfsdb.Route, from, to string, cfg ScoringConfig) int {
	score := cfg.TypeBonus[route.Type]

	longName := utils.NullStringOrEmpty(route.LongName)
	haystack := strings.ToLower(longName)
	fromLower := strings.ToLower(strings.TrimSpace(from))
	toLower := strings.ToLower(strings.TrimSpace(to))

	hasFrom := fromLower != "" && strings.Contains(haystack, fromLower)
	hasTo := toLower != "" && strings.Contains(haystack, toLower)

	switch {
	case hasFrom && hasTo:
		score += cfg.ExactMatchBonus
	case hasFrom || hasTo:
		score += cfg.PartialMatchBonus
	default:
		for _, token := range strings.Fields(fromLower + " " + toLower) {
			if utf8.RuneCountInString(token) < cfg.MinTokenLength {
				continue
			}
			if strings.Contains(haystack, token) {
				score += cfg.TokenBonus
			}
		}
	}

	score += bandBonus(cfg.LongNameBands, utf8.RuneCountInString(longName))
	score += bandBonus(cfg.ShortNameBands, utf8.RuneCountInString(utils.NullStringOrEmpty(route.ShortName)))

	if !isDefaultColor(utils.NullStringOrEmpty(route.Color), cfg.DefaultColors) {
		score += cfg.ColorBonus
	}

	return max(score, 0)
}

func bandBonus(bands []LengthBand, n int) int {
	for _, band := range bands {
		if band.contains(n) {
			return band.Bonus
		}
	}
	return 0
}

func isDefaultColor(color string, defaults []string) bool {
	color = strings.TrimPrefix(strings.TrimSpace(color), "#")
	for _, d := range defaults {
		if strings.EqualFold(color, d) {
			return true
		}
	}
	return false
}

// RankRoutes scores routes against from/to, keeps those above cfg.MinScore and
// orders them by score, short name and ID. Duplicate IDs keep their first entry.
// If nothing passes, all routes come back with cfg.FallbackScore ordered by
// short name and the ranking is marked Degraded.
func RankRoutes(routes []gtfsdb.Route, from, to string, cfg ScoringConfig) RouteRanking {
	scored := make([]ScoredRoute, 0, len(routes))
	for _, route := range routes {
		score := ScoreRoute(route, from, to, cfg)
		if score > cfg.MinScore {
			scored = append(scored, ScoredRoute{Route: route, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return routeLess(scored[i].Route, scored[j].Route)
	})
	scored = dedupeRoutes(scored)

	if len(scored) > 0 || len(routes) == 0 {
		return RouteRanking{Routes: scored}
	}

	return RouteRanking{
		Routes:   listRoutesByName(routes, cfg.FallbackScore),
		Degraded: true,
	}
}

// listRoutesByName gives every route the same score, ordered by short name then ID.
func listRoutesByName(routes []gtfsdb.Route, score int) []ScoredRoute {
	listed := make([]ScoredRoute, len(routes))
	for i, route := range routes {
		listed[i] = ScoredRoute{Route: route, Score: score}
	}
	sort.SliceStable(listed, func(i, j int) bool {
		return routeLess(listed[i].Route, listed[j].Route)
	})
	return dedupeRoutes(listed)
}

func routeLess(a, b gtfsdb.Route) bool {
	aName := utils.NullStringOrEmpty(a.ShortName)
	bName := utils.NullStringOrEmpty(b.ShortName)
	if aName != bName {
		return aName < bName
	}
	return a.ID < b.ID
}

func dedupeRoutes(routes []ScoredRoute) []ScoredRoute {
	seen := make(map[string]struct{}, len(routes))
	unique := routes[:0]
	for _, r := range routes {
		if _, ok := seen[r.Route.ID]; ok {
			continue
		}
		seen[r.Route.ID] = struct{}{}
		unique = append(unique, r)
	}
	return unique
}

// RouteSearch is a route-number search request. A bare Query is scored as From.
type RouteSearch struct {
	Query string
	From  string
	To    string
}

// RouteSearchResult is a ranked route listing plus the stops matched by the search terms.
type RouteSearchResult struct {
	RouteRanking
	From          string
	To            string
	FromStops     []gtfsdb.Stop
	ToStops       []gtfsdb.Stop
	TotalRoutes   int
	SelectedCount int
}

// SearchRoutes ranks every active route against the search terms. With no terms
// at all it lists every active route by short name.
func (manager *Manager) SearchRoutes(ctx context.Context, search RouteSearch) (*RouteSearchResult, error) {
	from := strings.TrimSpace(search.From)
	to := strings.TrimSpace(search.To)
	if from == "" && to == "" {
		from = strings.TrimSpace(search.Query)
	}

	routes, err := manager.repo.ListActiveRoutes(ctx)
	if err != nil {
		return nil, upstreamError(ctx, "list_active_routes", err)
	}

	result := &RouteSearchResult{
		From:        from,
		To:          to,
		FromStops:   []gtfsdb.Stop{},
		ToStops:     []gtfsdb.Stop{},
		TotalRoutes: len(routes),
	}

	if from == "" && to == "" {
		result.RouteRanking = RouteRanking{Routes: listRoutesByName(routes, 0)}
		result.SelectedCount = len(result.Routes)
		return result, nil
	}

	if from != "" {
		if result.FromStops, err = manager.MatchStops(ctx, from, matchedStopsLimit); err != nil {
			return nil, err
		}
	}
	if to != "" {
		if result.ToStops, err = manager.MatchStops(ctx, to, matchedStopsLimit); err != nil {
			return nil, err
		}
	}

	result.RouteRanking = RankRoutes(routes, from, to, manager.scoring)
	result.SelectedCount = len(result.Routes)
	return result, nil
}
