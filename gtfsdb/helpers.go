package gtfsdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/OneBusAway/go-gtfs"
	"github.com/jmoiron/sqlx"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

//go:embed schema.sql
var ddl string

// createDB creates a new SQLite database with tables for static GTFS data
func createDB(config Config) (*sqlx.DB, error) {
	if config.Env == appconf.Test && config.DBPath != ":memory:" {
		return nil, fmt.Errorf("test database must use in-memory storage, got path: %s", config.DBPath)
	}

	driver := config.GetDriver()
	if driver != DriverCGo && driver != DriverPureGo {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, config.DBPath)
	if err != nil {
		return nil, err
	}

	// Pool size must be fixed before the first connection so :memory: stays a single database.
	configureConnectionPool(db.DB, config)

	ctx := context.Background()
	if err := configureSQLitePerformance(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error configuring SQLite performance: %w", err)
	}

	if err := performDatabaseMigration(ctx, db.DB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return db, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func (c *Client) processAndStoreGTFSDataWithSource(ctx context.Context, b []byte, source string) error {
	logger := slog.Default().With(slog.String("component", "gtfs_importer"))

	startTime := time.Now()
	defer func() {
		c.importRuntime = time.Since(startTime)

		logging.LogOperation(logger, "gtfs_data_import_completed",
			slog.Duration("duration", c.importRuntime),
			slog.String("source", source))
	}()

	hash := sha256.Sum256(b)
	hashStr := hex.EncodeToString(hash[:])

	existingMetadata, err := c.Queries.GetImportMetadata(ctx)
	if err == nil {
		if existingMetadata.FileHash == hashStr && existingMetadata.FileSource == source {
			logging.LogOperation(logger, "gtfs_data_unchanged_skipping_import",
				slog.String("hash", hashStr[:8]))
			return nil
		}
		logging.LogOperation(logger, "gtfs_data_changed_reimporting",
			slog.String("old_hash", shortHash(existingMetadata.FileHash)),
			slog.String("new_hash", hashStr[:8]))
		if err := c.clearAllGTFSData(ctx); err != nil {
			return fmt.Errorf("error clearing existing GTFS data: %w", err)
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("error checking import metadata: %w", err)
	}

	staticData, err := gtfs.ParseStatic(b, gtfs.ParseStaticOptions{})
	if err != nil {
		return fmt.Errorf("error parsing GTFS data: %w", err)
	}

	logging.LogOperation(logger, "retrieved_static_data",
		slog.Int("warnings", len(staticData.Warnings)),
		slog.Any("counts", c.staticDataCounts(staticData)))
	if c.config.verbose {
		DumpStaticSummary(logger, staticData)
	}

	if err := c.storeStaticData(ctx, staticData); err != nil {
		return err
	}

	logging.LogOperation(logger, "updating_import_metadata",
		slog.String("hash", hashStr[:8]),
		slog.String("source", source))

	err = c.Queries.UpsertImportMetadata(ctx, ImportMetadatum{
		FileHash:   hashStr,
		ImportTime: time.Now().Unix(),
		FileSource: source,
	})
	if err != nil {
		logging.LogError(logger, "Error updating import metadata", err)
		return fmt.Errorf("error updating import metadata: %w", err)
	}

	return nil
}

func (c *Client) storeStaticData(ctx context.Context, staticData *gtfs.Static) error {
	agencies := make([]Agency, 0, len(staticData.Agencies))
	for _, a := range staticData.Agencies {
		agencies = append(agencies, Agency{ID: a.Id, Name: a.Name, Url: a.Url, Timezone: a.Timezone})
	}
	if err := bulkInsertRows(ctx, c, "agencies", agencies, (*Queries).CreateAgency); err != nil {
		return fmt.Errorf("unable to create agencies: %w", err)
	}

	singleAgencyID := ""
	if len(staticData.Agencies) == 1 {
		singleAgencyID = staticData.Agencies[0].Id
	}

	routes := make([]Route, 0, len(staticData.Routes))
	for i, r := range staticData.Routes {
		agencyID := singleAgencyID
		if r.Agency != nil {
			agencyID = pickFirstAvailable(r.Agency.Id, singleAgencyID)
		}
		routes = append(routes, Route{
			ID:        r.Id,
			AgencyID:  agencyID,
			ShortName: toNullString(r.ShortName),
			LongName:  toNullString(r.LongName),
			Desc:      toNullString(r.Description),
			Type:      int64(r.Type),
			Url:       toNullString(r.Url),
			Color:     toNullString(r.Color),
			TextColor: toNullString(r.TextColor),
			SortOrder: sql.NullInt64{Int64: int64(i), Valid: true},
			IsActive:  1,
		})
	}
	if err := bulkInsertRows(ctx, c, "routes", routes, (*Queries).CreateRoute); err != nil {
		return fmt.Errorf("unable to create routes: %w", err)
	}

	stops := make([]Stop, 0, len(staticData.Stops))
	for _, s := range staticData.Stops {
		// Stops without coordinates (generic nodes, boarding areas) cannot be
		// placed in the spatial index, so they are not stored.
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		stops = append(stops, Stop{
			ID:                 s.Id,
			Code:               toNullString(s.Code),
			Name:               toNullString(s.Name),
			Desc:               toNullString(s.Description),
			Lat:                *s.Latitude,
			Lon:                *s.Longitude,
			LocationType:       sql.NullInt64{Int64: int64(s.Type), Valid: true},
			WheelchairBoarding: sql.NullInt64{Int64: int64(s.WheelchairBoarding), Valid: true},
			IsActive:           1,
		})
	}
	if err := c.bulkInsertStops(ctx, stops); err != nil {
		return fmt.Errorf("unable to create stops: %w", err)
	}

	calendars := make([]Calendar, 0, len(staticData.Services))
	for _, s := range staticData.Services {
		calendars = append(calendars, Calendar{
			ID:        s.Id,
			Monday:    boolToInt(s.Monday),
			Tuesday:   boolToInt(s.Tuesday),
			Wednesday: boolToInt(s.Wednesday),
			Thursday:  boolToInt(s.Thursday),
			Friday:    boolToInt(s.Friday),
			Saturday:  boolToInt(s.Saturday),
			Sunday:    boolToInt(s.Sunday),
			StartDate: s.StartDate.Format("20060102"),
			EndDate:   s.EndDate.Format("20060102"),
			IsActive:  1,
		})
	}
	if err := bulkInsertRows(ctx, c, "calendar", calendars, (*Queries).CreateCalendar); err != nil {
		return fmt.Errorf("unable to create calendar: %w", err)
	}

	trips := make([]Trip, 0, len(staticData.Trips))
	var stopTimes []StopTime
	for _, t := range staticData.Trips {
		// shapes.txt is optional in GTFS
		var shapeID string
		if t.Shape != nil {
			shapeID = t.Shape.ID
		}

		trips = append(trips, Trip{
			ID:                   t.ID,
			RouteID:              t.Route.Id,
			ServiceID:            t.Service.Id,
			Headsign:             toNullString(t.Headsign),
			DirectionID:          sql.NullInt64{Int64: int64(t.DirectionId), Valid: true},
			BlockID:              toNullString(t.BlockID),
			ShapeID:              toNullString(shapeID),
			WheelchairAccessible: sql.NullInt64{Int64: int64(t.WheelchairAccessible), Valid: true},
			BikesAllowed:         sql.NullInt64{Int64: int64(t.BikesAllowed), Valid: true},
			IsActive:             1,
		})

		for _, st := range t.StopTimes {
			stopTimes = append(stopTimes, StopTime{
				TripID:        t.ID,
				StopID:        st.Stop.Id,
				StopSequence:  int64(st.StopSequence),
				ArrivalTime:   utils.FormatGTFSTime(st.ArrivalTime),
				DepartureTime: utils.FormatGTFSTime(st.DepartureTime),
				PickupType:    sql.NullInt64{Int64: int64(st.PickupType), Valid: true},
				DropOffType:   sql.NullInt64{Int64: int64(st.DropOffType), Valid: true},
			})
		}
	}
	if err := c.bulkInsertTrips(ctx, trips); err != nil {
		return fmt.Errorf("unable to create trips: %w", err)
	}
	if err := c.bulkInsertStopTimes(ctx, stopTimes); err != nil {
		return fmt.Errorf("unable to create stop times: %w", err)
	}

	var shapes []Shape
	for _, s := range staticData.Shapes {
		for idx, pt := range s.Points {
			shapes = append(shapes, Shape{
				ShapeID:         s.ID,
				Lat:             pt.Latitude,
				Lon:             pt.Longitude,
				ShapePtSequence: int64(idx),
			})
		}
	}
	if err := c.bulkInsertShapes(ctx, shapes); err != nil {
		return fmt.Errorf("unable to create shapes: %w", err)
	}

	return nil
}

// clearAllGTFSData clears all GTFS data from the database, dependents first.
func (c *Client) clearAllGTFSData(ctx context.Context) error {
	clears := []struct {
		table string
		clear func(context.Context) error
	}{
		{"stop_times", c.Queries.ClearStopTimes},
		{"shapes", c.Queries.ClearShapes},
		{"trips", c.Queries.ClearTrips},
		{"calendar", c.Queries.ClearCalendar},
		{"stops", c.Queries.ClearStops},
		{"routes", c.Queries.ClearRoutes},
		{"agencies", c.Queries.ClearAgencies},
	}
	for _, step := range clears {
		if err := step.clear(ctx); err != nil {
			return fmt.Errorf("error clearing %s: %w", step.table, err)
		}
	}
	return nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// toNullString converts a string to sql.NullString, with empty strings becoming NULL
func toNullString(s string) sql.NullString {
	return sql.NullString{
		String: s,
		Valid:  s != "",
	}
}

// ToNullString converts a string to sql.NullString, with empty strings becoming NULL (exported).
func ToNullString(s string) sql.NullString {
	return toNullString(s)
}

func pickFirstAvailable(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func shortHash(hash string) string {
	if len(hash) < 8 {
		return hash
	}
	return hash[:8]
}

// bulkInsertRows inserts rows one statement at a time inside a single transaction.
func bulkInsertRows[T any](ctx context.Context, c *Client, table string, rows []T, insert func(*Queries, context.Context, T) error) error {
	logger := slog.Default().With(slog.String("component", "bulk_insert"))

	logging.LogOperation(logger, "inserting_"+table,
		slog.Int("count", len(rows)))

	tx, err := c.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "bulk_insert_"+table)

	qtx := c.Queries.WithTx(tx)
	for _, row := range rows {
		if err := insert(qtx, ctx, row); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logging.LogOperation(logger, table+"_inserted",
		slog.Int("count", len(rows)))

	return nil
}

func (c *Client) bulkInsertStops(ctx context.Context, stops []Stop) error {
	return bulkInsertRows(ctx, c, "stops", stops, (*Queries).CreateStop)
}

func (c *Client) bulkInsertTrips(ctx context.Context, trips []Trip) error {
	return bulkInsertRows(ctx, c, "trips", trips, (*Queries).CreateTrip)
}

// preparedBatch holds a prepared multi-row INSERT with its arguments
type preparedBatch struct {
	query string
	args  []interface{}
	index int // Original index for ordering
	end   int // End position for progress logging
}

// prepareBatches builds multi-row INSERT statements on a worker pool. Only
// placeholders are written into the query text.
func prepareBatches(ctx context.Context, baseQuery string, placeholders string, total, batchSize int, argsFor func(i int) []interface{}) ([]preparedBatch, error) {
	numBatches := (total + batchSize - 1) / batchSize

	numWorkers := runtime.NumCPU()
	batchChan := make(chan int, numWorkers)
	resultsChan := make(chan preparedBatch, numWorkers*4)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for batchIndex := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				start := batchIndex * batchSize
				end := min(start+batchSize, total)

				var query strings.Builder
				query.WriteString(baseQuery)
				var args []interface{}
				for j := start; j < end; j++ {
					if j > start {
						query.WriteString(", ")
					}
					query.WriteString(placeholders)
					args = append(args, argsFor(j)...)
				}

				resultsChan <- preparedBatch{
					query: query.String(),
					args:  args,
					index: batchIndex,
					end:   end,
				}
			}
		}()
	}

	go func() {
		defer close(batchChan)
		for i := 0; i < numBatches; i++ {
			select {
			case <-ctx.Done():
				return
			case batchChan <- i:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	prepared := make([]preparedBatch, 0, numBatches)
	for batch := range resultsChan {
		prepared = append(prepared, batch)
	}

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	sort.Slice(prepared, func(i, j int) bool {
		return prepared[i].index < prepared[j].index
	})
	return prepared, nil
}

// executeBatches runs prepared batches in order inside one transaction.
func (c *Client) executeBatches(ctx context.Context, table string, batches []preparedBatch, total, progressEvery int) error {
	logger := slog.Default().With(slog.String("component", "bulk_insert"))

	tx, err := c.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer logging.SafeRollbackWithLogging(tx, logger, "bulk_insert_"+table)

	for _, batch := range batches {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if _, err := tx.ExecContext(ctx, batch.query, batch.args...); err != nil {
			return fmt.Errorf("failed to insert %s batch: %w", table, err)
		}

		if batch.end%progressEvery == 0 || batch.end == total {
			logging.LogOperation(logger, table+"_progress",
				slog.Int("inserted", batch.end),
				slog.Int("total", total))
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	logging.LogOperation(logger, table+"_inserted",
		slog.Int("count", total))
	return nil
}

func (c *Client) bulkInsertStopTimes(ctx context.Context, stopTimes []StopTime) error {
	const baseQuery = `INSERT OR REPLACE INTO stop_times (
		trip_id, stop_id, stop_sequence, arrival_time, departure_time, pickup_type, drop_off_type
	) VALUES `

	batches, err := prepareBatches(ctx, baseQuery, "(?, ?, ?, ?, ?, ?, ?)", len(stopTimes), c.config.GetBulkInsertBatchSize(),
		func(i int) []interface{} {
			st := stopTimes[i]
			return []interface{}{st.TripID, st.StopID, st.StopSequence, st.ArrivalTime, st.DepartureTime, st.PickupType, st.DropOffType}
		})
	if err != nil {
		return err
	}

	return c.executeBatches(ctx, "stop_times", batches, len(stopTimes), 100000)
}

func (c *Client) bulkInsertShapes(ctx context.Context, shapes []Shape) error {
	const baseQuery = `INSERT INTO shapes (shape_id, lat, lon, shape_pt_sequence) VALUES `

	batches, err := prepareBatches(ctx, baseQuery, "(?, ?, ?, ?)", len(shapes), c.config.GetBulkInsertBatchSize(),
		func(i int) []interface{} {
			s := shapes[i]
			return []interface{}{s.ShapeID, s.Lat, s.Lon, s.ShapePtSequence}
		})
	if err != nil {
		return err
	}

	return c.executeBatches(ctx, "shapes", batches, len(shapes), 50000)
}

// configureSQLitePerformance applies PRAGMA settings to optimize SQLite performance
// for bulk GTFS data imports and queries.
func configureSQLitePerformance(ctx context.Context, db *sql.DB) error {
	pragmas := []struct {
		name        string
		description string
	}{
		// Increase cache size to 64MB (negative value means KB)
		{"PRAGMA cache_size=-64000", "Set cache size to 64MB"},
		{"PRAGMA temp_store=MEMORY", "Store temporary data in memory"},
	}

	logger := slog.Default().With(slog.String("component", "sqlite_performance"))

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma.name); err != nil {
			logging.LogError(logger, fmt.Sprintf("Failed to set %s", pragma.description), err)
			return fmt.Errorf("failed to execute %s: %w", pragma.name, err)
		}
	}

	logging.LogOperation(logger, "sqlite_performance_settings_applied",
		slog.Int("pragma_count", len(pragmas)))

	return nil
}

// configureConnectionPool sets up connection pool settings for SQLite.
//
// Each connection to a :memory: database opens a separate database, so those are
// limited to one connection, which serializes all access. File databases allow 25.
func configureConnectionPool(db *sql.DB, config Config) {
	if config.DBPath == ":memory:" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		// An idle :memory: connection must never be recycled or the data is lost.
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
}
