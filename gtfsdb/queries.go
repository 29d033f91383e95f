package gtfsdb

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
)

// Queries runs the hand-written statements against a database or transaction.
type Queries struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sqlx.Tx) *Queries {
	return &Queries{db: tx}
}

// maxInParams bounds the IDs bound into a single IN (?) list, well under
// SQLite's bound-variable limit.
var maxInParams = 10000

// selectIn runs query, whose only parameter is an IN (?) list, once per batch
// of ids. The IDs are deduplicated and sorted first, so rows ordered by the
// IN column stay ordered across batches.
func selectIn[T any](ctx context.Context, q *Queries, query string, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var rows []T
	for start := 0; start < len(sorted); start += maxInParams {
		end := min(start+maxInParams, len(sorted))
		expanded, args, err := sqlx.In(query, sorted[start:end])
		if err != nil {
			return nil, err
		}
		var batch []T
		if err := sqlx.SelectContext(ctx, q.db, &batch, q.db.Rebind(expanded), args...); err != nil {
			return nil, err
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

// listPage counts the rows of table matching where and returns one page of
// them. A non-nil keep re-checks every candidate in Go; counting and paging
// then happen in memory.
func listPage[T any](ctx context.Context, q *Queries, columns, table, where, orderBy string, args []interface{}, limit, offset int64, keep func(T) bool) ([]T, int64, error) {
	selectAll := `SELECT ` + columns + ` FROM ` + table + ` ` + where + ` ORDER BY ` + orderBy

	if keep == nil {
		var total int64
		if err := sqlx.GetContext(ctx, q.db, &total, `SELECT COUNT(*) FROM `+table+` `+where, args...); err != nil {
			return nil, 0, err
		}
		var rows []T
		pageArgs := append(slices.Clone(args), limit, offset)
		err := sqlx.SelectContext(ctx, q.db, &rows, selectAll+` LIMIT ? OFFSET ?`, pageArgs...)
		return rows, total, err
	}

	var candidates []T
	if err := sqlx.SelectContext(ctx, q.db, &candidates, selectAll, args...); err != nil {
		return nil, 0, err
	}
	matches := candidates[:0]
	for _, row := range candidates {
		if keep(row) {
			matches = append(matches, row)
		}
	}

	total := int64(len(matches))
	if offset >= total {
		return nil, total, nil
	}
	matches = matches[offset:]
	if limit >= 0 && limit < int64(len(matches)) {
		matches = matches[:limit]
	}
	return matches, total, nil
}

const routeColumns = `id, agency_id, short_name, long_name, "desc", type, url, color, text_color, sort_order, is_active`

const stopColumns = `id, code, name, "desc", lat, lon, location_type, wheelchair_boarding, is_active`

const tripColumns = `id, route_id, service_id, headsign, direction_id, block_id, shape_id,
    wheelchair_accessible, bikes_allowed, is_active`

const stopTimeColumns = `trip_id, stop_id, stop_sequence, arrival_time, departure_time, pickup_type, drop_off_type`

const calendarColumns = `id, monday, tuesday, wednesday, thursday, friday, saturday, sunday,
    start_date, end_date, is_active`

// Routes

func (q *Queries) GetRoute(ctx context.Context, id string) (Route, error) {
	var r Route
	err := sqlx.GetContext(ctx, q.db, &r, `SELECT `+routeColumns+` FROM routes WHERE id = ?`, id)
	return r, err
}

func (q *Queries) ListActiveRoutes(ctx context.Context) ([]Route, error) {
	var routes []Route
	err := sqlx.SelectContext(ctx, q.db, &routes, `
SELECT `+routeColumns+`
FROM routes
WHERE is_active = 1
ORDER BY short_name, id`)
	return routes, err
}

func (q *Queries) GetRoutesByIDs(ctx context.Context, ids []string) ([]Route, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return selectIn[Route](ctx, q, `SELECT `+routeColumns+` FROM routes WHERE id IN (?)`, ids)
}

type ListRoutesParams struct {
	Search string
	Type   sql.NullInt64
	Limit  int64
	Offset int64
}

// ListRoutes pages through active routes matching an optional name search and type.
// The second return value is the total number of matches before paging.
func (q *Queries) ListRoutes(ctx context.Context, arg ListRoutesParams) ([]Route, int64, error) {
	var where strings.Builder
	args := []interface{}{}
	where.WriteString(`WHERE is_active = 1`)
	var keep func(Route) bool
	if arg.Search != "" {
		pattern := likePattern(arg.Search)
		where.WriteString(` AND (LOWER(short_name) LIKE ? ESCAPE '\' OR LOWER(long_name) LIKE ? ESCAPE '\' OR LOWER(id) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern)
		if !isASCII(arg.Search) {
			keep = func(r Route) bool {
				return containsFold(r.ShortName.String, arg.Search) ||
					containsFold(r.LongName.String, arg.Search) ||
					containsFold(r.ID, arg.Search)
			}
		}
	}
	if arg.Type.Valid {
		where.WriteString(` AND type = ?`)
		args = append(args, arg.Type.Int64)
	}

	return listPage(ctx, q, routeColumns, "routes", where.String(), "short_name, id", args, arg.Limit, arg.Offset, keep)
}

// Stops

func (q *Queries) GetStop(ctx context.Context, id string) (Stop, error) {
	var s Stop
	err := sqlx.GetContext(ctx, q.db, &s, `SELECT `+stopColumns+` FROM stops WHERE id = ?`, id)
	return s, err
}

func (q *Queries) GetStopsByIDs(ctx context.Context, ids []string) ([]Stop, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return selectIn[Stop](ctx, q, `SELECT `+stopColumns+` FROM stops WHERE id IN (?)`, ids)
}

func (q *Queries) ListActiveStops(ctx context.Context) ([]Stop, error) {
	var stops []Stop
	err := sqlx.SelectContext(ctx, q.db, &stops, `SELECT `+stopColumns+` FROM stops WHERE is_active = 1 ORDER BY id`)
	return stops, err
}

// SearchStopsByText returns active stops whose name or description contains text,
// case-insensitively. Ranking is left to the caller.
func (q *Queries) SearchStopsByText(ctx context.Context, text string) ([]Stop, error) {
	pattern := likePattern(text)
	var stops []Stop
	err := sqlx.SelectContext(ctx, q.db, &stops, `
SELECT `+stopColumns+`
FROM stops
WHERE is_active = 1
  AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER("desc") LIKE ? ESCAPE '\')
ORDER BY id`, pattern, pattern)
	if err != nil || isASCII(text) {
		return stops, err
	}
	return slices.DeleteFunc(stops, func(s Stop) bool { return !stopMentions(s, text) }), nil
}

type ListStopsParams struct {
	Search string
	Limit  int64
	Offset int64
}

// ListStops pages through active stops by name, optionally filtered by a search
// on name or description. The second return value is the total number of matches.
func (q *Queries) ListStops(ctx context.Context, arg ListStopsParams) ([]Stop, int64, error) {
	where := `WHERE is_active = 1`
	args := []interface{}{}
	var keep func(Stop) bool
	if arg.Search != "" {
		pattern := likePattern(arg.Search)
		where += ` AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER("desc") LIKE ? ESCAPE '\')`
		args = append(args, pattern, pattern)
		if !isASCII(arg.Search) {
			keep = func(s Stop) bool { return stopMentions(s, arg.Search) }
		}
	}

	return listPage(ctx, q, stopColumns, "stops", where, "name, id", args, arg.Limit, arg.Offset, keep)
}

func stopMentions(s Stop, text string) bool {
	return containsFold(s.Name.String, text) || containsFold(s.Desc.String, text)
}

// Trips

func (q *Queries) GetTrip(ctx context.Context, id string) (Trip, error) {
	var t Trip
	err := sqlx.GetContext(ctx, q.db, &t, `SELECT `+tripColumns+` FROM trips WHERE id = ?`, id)
	return t, err
}

func (q *Queries) GetTripsByIDs(ctx context.Context, ids []string) ([]Trip, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return selectIn[Trip](ctx, q, `SELECT `+tripColumns+` FROM trips WHERE id IN (?)`, ids)
}

type GetTripsForRouteParams struct {
	RouteID     string
	ServiceID   sql.NullString
	DirectionID sql.NullInt64
}

func (q *Queries) GetTripsForRoute(ctx context.Context, arg GetTripsForRouteParams) ([]Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE route_id = ? AND is_active = 1`
	args := []interface{}{arg.RouteID}
	if arg.ServiceID.Valid {
		query += ` AND service_id = ?`
		args = append(args, arg.ServiceID.String)
	}
	if arg.DirectionID.Valid {
		query += ` AND direction_id = ?`
		args = append(args, arg.DirectionID.Int64)
	}
	query += ` ORDER BY id`

	var trips []Trip
	err := sqlx.SelectContext(ctx, q.db, &trips, query, args...)
	return trips, err
}

// ListRouteShapes returns every (route, shape) pair of active trips, ordered so the
// first row per route comes from its lowest trip ID.
func (q *Queries) ListRouteShapes(ctx context.Context) ([]RouteShape, error) {
	var pairs []RouteShape
	err := sqlx.SelectContext(ctx, q.db, &pairs, `
SELECT route_id, shape_id
FROM trips
WHERE is_active = 1 AND shape_id IS NOT NULL AND shape_id != ''
ORDER BY route_id, id`)
	return pairs, err
}

func (q *Queries) ListRouteSampleTrips(ctx context.Context) ([]RouteSampleTrip, error) {
	var samples []RouteSampleTrip
	err := sqlx.SelectContext(ctx, q.db, &samples, `
SELECT route_id, MIN(id) AS trip_id
FROM trips
WHERE is_active = 1
GROUP BY route_id
ORDER BY route_id`)
	return samples, err
}

// Stop times

func (q *Queries) GetStopTimesForStop(ctx context.Context, stopID string) ([]StopTime, error) {
	var stopTimes []StopTime
	err := sqlx.SelectContext(ctx, q.db, &stopTimes, `
SELECT `+stopTimeColumns+`
FROM stop_times
WHERE stop_id = ?
ORDER BY trip_id, stop_sequence`, stopID)
	return stopTimes, err
}

func (q *Queries) GetStopTimesForTrip(ctx context.Context, tripID string) ([]StopTime, error) {
	var stopTimes []StopTime
	err := sqlx.SelectContext(ctx, q.db, &stopTimes, `
SELECT `+stopTimeColumns+`
FROM stop_times
WHERE trip_id = ?
ORDER BY stop_sequence`, tripID)
	return stopTimes, err
}

func (q *Queries) GetStopTimesForTrips(ctx context.Context, tripIDs []string) ([]StopTime, error) {
	if len(tripIDs) == 0 {
		return nil, nil
	}
	return selectIn[StopTime](ctx, q, `
SELECT `+stopTimeColumns+`
FROM stop_times
WHERE trip_id IN (?)
ORDER BY trip_id, stop_sequence`, tripIDs)
}

// Calendars

func (q *Queries) ListActiveCalendars(ctx context.Context) ([]Calendar, error) {
	var calendars []Calendar
	err := sqlx.SelectContext(ctx, q.db, &calendars, `SELECT `+calendarColumns+` FROM calendar WHERE is_active = 1 ORDER BY id`)
	return calendars, err
}

func (q *Queries) GetCalendarsByIDs(ctx context.Context, ids []string) ([]Calendar, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return selectIn[Calendar](ctx, q, `SELECT `+calendarColumns+` FROM calendar WHERE id IN (?) ORDER BY id`, ids)
}

// Shapes

func (q *Queries) GetShapePoints(ctx context.Context, shapeID string) ([]Shape, error) {
	var points []Shape
	err := sqlx.SelectContext(ctx, q.db, &points, `
SELECT shape_id, lat, lon, shape_pt_sequence
FROM shapes
WHERE shape_id = ?
ORDER BY shape_pt_sequence`, shapeID)
	return points, err
}

func (q *Queries) GetShapePointsByIDs(ctx context.Context, shapeIDs []string) ([]Shape, error) {
	if len(shapeIDs) == 0 {
		return nil, nil
	}
	return selectIn[Shape](ctx, q, `
SELECT shape_id, lat, lon, shape_pt_sequence
FROM shapes
WHERE shape_id IN (?)
ORDER BY shape_id, shape_pt_sequence`, shapeIDs)
}

// Stats

func (q *Queries) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := sqlx.GetContext(ctx, q.db, &stats, `
SELECT
    (SELECT COUNT(*) FROM routes WHERE is_active = 1) AS routes,
    (SELECT COUNT(*) FROM stops WHERE is_active = 1) AS stops,
    (SELECT COUNT(*) FROM trips WHERE is_active = 1) AS trips,
    (SELECT COUNT(*) FROM stop_times) AS stop_times,
    (SELECT COUNT(DISTINCT shape_id) FROM shapes) AS shapes,
    (SELECT COUNT(*) FROM calendar WHERE is_active = 1) AS calendars`)
	return stats, err
}

// Import metadata

func (q *Queries) GetImportMetadata(ctx context.Context) (ImportMetadatum, error) {
	var m ImportMetadatum
	err := sqlx.GetContext(ctx, q.db, &m, `SELECT file_hash, file_source, import_time FROM import_metadata WHERE id = 1`)
	return m, err
}

func (q *Queries) UpsertImportMetadata(ctx context.Context, arg ImportMetadatum) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT INTO import_metadata (id, file_hash, file_source, import_time)
VALUES (1, :file_hash, :file_source, :import_time)
ON CONFLICT (id) DO UPDATE SET
    file_hash = excluded.file_hash,
    file_source = excluded.file_source,
    import_time = excluded.import_time`, arg)
	return err
}

// IsNoRows reports whether err is the empty-result error of a single-row query.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// likePattern builds a substring LIKE pattern for text, lowered to match the
// LOWER() of the column. SQLite's LOWER only folds ASCII, so each non-ASCII
// rune becomes a single-character wildcard and callers re-check those
// candidates with containsFold.
func likePattern(text string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range text {
		switch {
		case r >= utf8.RuneSelf:
			b.WriteByte('_')
		case r == '\\' || r == '%' || r == '_':
			b.WriteByte('\\')
			b.WriteRune(r)
		case 'A' <= r && r <= 'Z':
			b.WriteRune(r + 'a' - 'A')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('%')
	return b.String()
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func containsFold(field, text string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(text))
}
