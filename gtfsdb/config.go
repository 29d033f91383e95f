package gtfsdb

import "github.com/Niyant4280/bus-niyojak/internal/appconf"

const (
	// DefaultBulkInsertBatchSize is the default batch size for multi-row INSERTs.
	// stop_times rows carry 7 fields, so a batch stays well under SQLite's
	// variable limit on modern builds.
	DefaultBulkInsertBatchSize = 1000

	// DriverCGo is the mattn/go-sqlite3 driver name.
	DriverCGo = "sqlite3"
	// DriverPureGo is the modernc.org/sqlite driver name.
	DriverPureGo = "sqlite"
)

// Config holds configuration options for the Client
type Config struct {
	// Database configuration
	DBPath  string              // Path to SQLite database file
	Driver  string              // sqlite3 (cgo) or sqlite (pure Go); empty means sqlite3
	Env     appconf.Environment // Environment name: development, test, production.
	verbose bool                // Enable verbose logging

	// BulkInsertBatchSize controls how many records are inserted per multi-row INSERT statement.
	// Set to 0 to use the default value.
	BulkInsertBatchSize int
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:              dbPath,
		Driver:              DriverCGo,
		Env:                 env,
		verbose:             verbose,
		BulkInsertBatchSize: DefaultBulkInsertBatchSize,
	}
}

// GetBulkInsertBatchSize returns the configured batch size, or the default if not set
func (c Config) GetBulkInsertBatchSize() int {
	if c.BulkInsertBatchSize <= 0 {
		return DefaultBulkInsertBatchSize
	}
	return c.BulkInsertBatchSize
}

// GetDriver returns the database/sql driver name to open.
func (c Config) GetDriver() string {
	if c.Driver == "" {
		return DriverCGo
	}
	return c.Driver
}
