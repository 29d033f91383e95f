package gtfsdb

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func (q *Queries) CreateAgency(ctx context.Context, arg Agency) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT OR REPLACE INTO agencies (id, name, url, timezone)
VALUES (:id, :name, :url, :timezone)`, arg)
	return err
}

func (q *Queries) CreateRoute(ctx context.Context, arg Route) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT OR REPLACE INTO routes (`+routeColumns+`)
VALUES (:id, :agency_id, :short_name, :long_name, :desc, :type, :url, :color, :text_color, :sort_order, :is_active)`, arg)
	return err
}

func (q *Queries) CreateStop(ctx context.Context, arg Stop) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT OR REPLACE INTO stops (`+stopColumns+`)
VALUES (:id, :code, :name, :desc, :lat, :lon, :location_type, :wheelchair_boarding, :is_active)`, arg)
	return err
}

func (q *Queries) CreateCalendar(ctx context.Context, arg Calendar) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT OR REPLACE INTO calendar (`+calendarColumns+`)
VALUES (:id, :monday, :tuesday, :wednesday, :thursday, :friday, :saturday, :sunday,
        :start_date, :end_date, :is_active)`, arg)
	return err
}

func (q *Queries) CreateTrip(ctx context.Context, arg Trip) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT OR REPLACE INTO trips (`+tripColumns+`)
VALUES (:id, :route_id, :service_id, :headsign, :direction_id, :block_id, :shape_id,
        :wheelchair_accessible, :bikes_allowed, :is_active)`, arg)
	return err
}

func (q *Queries) CreateStopTime(ctx context.Context, arg StopTime) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT OR REPLACE INTO stop_times (`+stopTimeColumns+`)
VALUES (:trip_id, :stop_id, :stop_sequence, :arrival_time, :departure_time, :pickup_type, :drop_off_type)`, arg)
	return err
}

func (q *Queries) CreateShape(ctx context.Context, arg Shape) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, `
INSERT INTO shapes (shape_id, lat, lon, shape_pt_sequence)
VALUES (:shape_id, :lat, :lon, :shape_pt_sequence)`, arg)
	return err
}

// SetRouteActive soft-deletes or restores a route.
func (q *Queries) SetRouteActive(ctx context.Context, id string, active bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE routes SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	return err
}

// SetStopActive soft-deletes or restores a stop.
func (q *Queries) SetStopActive(ctx context.Context, id string, active bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE stops SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	return err
}

func (q *Queries) ClearStopTimes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM stop_times`)
	return err
}

func (q *Queries) ClearShapes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM shapes`)
	return err
}

func (q *Queries) ClearTrips(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM trips`)
	return err
}

func (q *Queries) ClearCalendar(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM calendar`)
	return err
}

func (q *Queries) ClearStops(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM stops`)
	return err
}

func (q *Queries) ClearRoutes(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM routes`)
	return err
}

func (q *Queries) ClearAgencies(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM agencies`)
	return err
}
