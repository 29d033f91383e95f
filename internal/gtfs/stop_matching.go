package gtfs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

const (
	// DefaultNearbyRadiusKm and DefaultNearbyLimit apply when a nearby search omits them.
	DefaultNearbyRadiusKm = 2.0
	DefaultNearbyLimit    = 20

	// EndpointSearchRadiusMeters bounds coordinate resolution of trip search endpoints.
	EndpointSearchRadiusMeters = 2000.0
)

// Text match quality, best first.
const (
	matchExactName = iota
	matchNamePrefix
	matchWordPrefix
	matchNameSubstring
	matchDescription
	matchNone
)

// NearbyStop is a stop with its distance from the query point in meters.
type NearbyStop struct {
	Stop     gtfsdb.Stop
	Distance float64
}

type rankedStop struct {
	stop gtfsdb.Stop
	name string
	rank int
}

// FindStopByText returns the best textual match for query, or nil when nothing matches.
func (manager *Manager) FindStopByText(ctx context.Context, query string) (*gtfsdb.Stop, error) {
	stops, err := manager.MatchStops(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(stops) == 0 {
		return nil, nil
	}
	return &stops[0], nil
}

// MatchStops returns active stops whose name or description contains query,
// ranked by match quality. A limit of zero or less returns every match.
func (manager *Manager) MatchStops(ctx context.Context, query string, limit int) ([]gtfsdb.Stop, error) {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return nil, fmt.Errorf("%w: stop query is required", ErrInvalidArgument)
	}

	candidates, err := manager.repo.SearchStopsByText(ctx, needle)
	if err != nil {
		return nil, upstreamError(ctx, "search_stops_by_text", err)
	}

	return rankStopMatches(candidates, needle, limit), nil
}

func rankStopMatches(candidates []gtfsdb.Stop, query string, limit int) []gtfsdb.Stop {
	needle := strings.ToLower(strings.TrimSpace(query))

	ranked := make([]rankedStop, 0, len(candidates))
	for _, stop := range candidates {
		name := strings.ToLower(utils.NullStringOrEmpty(stop.Name))
		rank := stopMatchRank(name, strings.ToLower(utils.NullStringOrEmpty(stop.Desc)), needle)
		if rank == matchNone {
			continue
		}
		ranked = append(ranked, rankedStop{stop: stop, name: name, rank: rank})
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.rank != b.rank {
			return a.rank < b.rank
		}
		if len(a.name) != len(b.name) {
			return len(a.name) < len(b.name)
		}
		if a.name != b.name {
			return a.name < b.name
		}
		return a.stop.ID < b.stop.ID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	stops := make([]gtfsdb.Stop, len(ranked))
	for i, r := range ranked {
		stops[i] = r.stop
	}
	return stops
}

// stopMatchRank grades how well a lower-cased name and description match needle.
func stopMatchRank(name, desc, needle string) int {
	switch {
	case needle == "":
		return matchNone
	case name == needle:
		return matchExactName
	case strings.HasPrefix(name, needle):
		return matchNamePrefix
	case hasWordPrefix(name, needle):
		return matchWordPrefix
	case strings.Contains(name, needle):
		return matchNameSubstring
	case strings.Contains(desc, needle):
		return matchDescription
	default:
		return matchNone
	}
}

// hasWordPrefix reports whether needle occurs in s right after a non-alphanumeric rune.
func hasWordPrefix(s, needle string) bool {
	for offset := 0; offset < len(s); {
		idx := strings.Index(s[offset:], needle)
		if idx < 0 {
			return false
		}
		pos := offset + idx
		if pos > 0 {
			r, _ := utf8.DecodeLastRuneInString(s[:pos])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return true
			}
		}
		offset = pos + 1
	}
	return false
}

// FindStopByProximity returns the nearest active stop within maxDistanceMeters,
// or nil when none is in range.
func (manager *Manager) FindStopByProximity(ctx context.Context, lat, lon, maxDistanceMeters float64) (*gtfsdb.Stop, error) {
	if err := validatePoint(lat, lon); err != nil {
		return nil, err
	}
	if maxDistanceMeters <= 0 {
		return nil, fmt.Errorf("%w: distance must be positive", ErrInvalidArgument)
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	nearby := manager.indexedStops().within(lat, lon, maxDistanceMeters)
	if len(nearby) == 0 {
		return nil, nil
	}
	return &nearby[0].Stop, nil
}

// FindStopsNear returns up to limit active stops within radiusKm, nearest first.
// Zero values fall back to DefaultNearbyRadiusKm and DefaultNearbyLimit.
func (manager *Manager) FindStopsNear(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]NearbyStop, error) {
	if err := validatePoint(lat, lon); err != nil {
		return nil, err
	}
	if radiusKm == 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	if err := utils.ValidateRadiusKm(radiusKm); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	nearby := manager.indexedStops().within(lat, lon, radiusKm*1000)
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}
	return nearby, nil
}

func validatePoint(lat, lon float64) error {
	if err := utils.ValidateLatitude(lat); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := utils.ValidateLongitude(lon); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}
