package gtfsdb

import "database/sql"

type Agency struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Url      string `db:"url"`
	Timezone string `db:"timezone"`
}

type Route struct {
	ID        string         `db:"id"`
	AgencyID  string         `db:"agency_id"`
	ShortName sql.NullString `db:"short_name"`
	LongName  sql.NullString `db:"long_name"`
	Desc      sql.NullString `db:"desc"`
	Type      int64          `db:"type"`
	Url       sql.NullString `db:"url"`
	Color     sql.NullString `db:"color"`
	TextColor sql.NullString `db:"text_color"`
	SortOrder sql.NullInt64  `db:"sort_order"`
	IsActive  int64          `db:"is_active"`
}

type Stop struct {
	ID                 string         `db:"id"`
	Code               sql.NullString `db:"code"`
	Name               sql.NullString `db:"name"`
	Desc               sql.NullString `db:"desc"`
	Lat                float64        `db:"lat"`
	Lon                float64        `db:"lon"`
	LocationType       sql.NullInt64  `db:"location_type"`
	WheelchairBoarding sql.NullInt64  `db:"wheelchair_boarding"`
	IsActive           int64          `db:"is_active"`
}

type Calendar struct {
	ID        string `db:"id"`
	Monday    int64  `db:"monday"`
	Tuesday   int64  `db:"tuesday"`
	Wednesday int64  `db:"wednesday"`
	Thursday  int64  `db:"thursday"`
	Friday    int64  `db:"friday"`
	Saturday  int64  `db:"saturday"`
	Sunday    int64  `db:"sunday"`
	StartDate string `db:"start_date"`
	EndDate   string `db:"end_date"`
	IsActive  int64  `db:"is_active"`
}

type Trip struct {
	ID                   string         `db:"id"`
	RouteID              string         `db:"route_id"`
	ServiceID            string         `db:"service_id"`
	Headsign             sql.NullString `db:"headsign"`
	DirectionID          sql.NullInt64  `db:"direction_id"`
	BlockID              sql.NullString `db:"block_id"`
	ShapeID              sql.NullString `db:"shape_id"`
	WheelchairAccessible sql.NullInt64  `db:"wheelchair_accessible"`
	BikesAllowed         sql.NullInt64  `db:"bikes_allowed"`
	IsActive             int64          `db:"is_active"`
}

// StopTime times are "HH:MM:SS" and may exceed 24:00:00 for trips running past midnight.
type StopTime struct {
	TripID        string        `db:"trip_id"`
	StopID        string        `db:"stop_id"`
	StopSequence  int64         `db:"stop_sequence"`
	ArrivalTime   string        `db:"arrival_time"`
	DepartureTime string        `db:"departure_time"`
	PickupType    sql.NullInt64 `db:"pickup_type"`
	DropOffType   sql.NullInt64 `db:"drop_off_type"`
}

type Shape struct {
	ShapeID         string  `db:"shape_id"`
	Lat             float64 `db:"lat"`
	Lon             float64 `db:"lon"`
	ShapePtSequence int64   `db:"shape_pt_sequence"`
}

type ImportMetadatum struct {
	FileHash   string `db:"file_hash"`
	FileSource string `db:"file_source"`
	ImportTime int64  `db:"import_time"`
}

// RouteShape pairs a route with one shape used by its trips.
type RouteShape struct {
	RouteID string `db:"route_id"`
	ShapeID string `db:"shape_id"`
}

// RouteSampleTrip is the lowest-ID active trip of a route.
type RouteSampleTrip struct {
	RouteID string `db:"route_id"`
	TripID  string `db:"trip_id"`
}

// Stats holds row counts for the main tables.
type Stats struct {
	Routes    int64 `db:"routes"`
	Stops     int64 `db:"stops"`
	Trips     int64 `db:"trips"`
	StopTimes int64 `db:"stop_times"`
	Shapes    int64 `db:"shapes"`
	Calendars int64 `db:"calendars"`
}
