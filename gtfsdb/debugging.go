package gtfsdb

import (
	"fmt"
	"log/slog"

	"github.com/OneBusAway/go-gtfs"
	"github.com/davecgh/go-spew/spew"

	"github.com/Niyant4280/bus-niyojak/internal/logging"
)

// summaryDumper keeps spew output small enough for a log line.
var summaryDumper = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                2,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func (c *Client) staticDataCounts(staticData *gtfs.Static) map[string]int {
	return map[string]int{
		"routes":   len(staticData.Routes),
		"stops":    len(staticData.Stops),
		"agencies": len(staticData.Agencies),
		"trips":    len(staticData.Trips),
		"calendar": len(staticData.Services),
		"shapes":   len(staticData.Shapes),
	}
}

// DumpStaticSummary logs the first route and stop of a parsed feed plus its warnings.
func DumpStaticSummary(logger *slog.Logger, staticData *gtfs.Static) {
	if logger == nil || staticData == nil {
		return
	}

	sample := map[string]interface{}{}
	if len(staticData.Routes) > 0 {
		r := staticData.Routes[0]
		sample["route"] = map[string]string{"id": r.Id, "short_name": r.ShortName, "long_name": r.LongName, "color": r.Color}
	}
	if len(staticData.Stops) > 0 {
		s := staticData.Stops[0]
		sample["stop"] = map[string]string{"id": s.Id, "name": s.Name}
	}
	if len(staticData.Warnings) > 0 {
		limit := min(len(staticData.Warnings), 5)
		warnings := make([]string, 0, limit)
		for _, w := range staticData.Warnings[:limit] {
			warnings = append(warnings, fmt.Sprint(w))
		}
		sample["warnings"] = warnings
	}

	logging.LogOperation(logger, "static_data_sample",
		slog.String("dump", summaryDumper.Sdump(sample)))
}

// TableCounts returns the row count of every known table.
func (c *Client) TableCounts() (map[string]int, error) {
	var tables []string
	if err := c.DB.Select(&tables, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'"); err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}

	counts := make(map[string]int)

	for _, table := range tables {
		var query string

		// Keep the query text constant rather than interpolating table names.
		switch table {
		case "agencies":
			query = "SELECT COUNT(*) FROM agencies"
		case "routes":
			query = "SELECT COUNT(*) FROM routes"
		case "stops":
			query = "SELECT COUNT(*) FROM stops"
		case "trips":
			query = "SELECT COUNT(*) FROM trips"
		case "stop_times":
			query = "SELECT COUNT(*) FROM stop_times"
		case "calendar":
			query = "SELECT COUNT(*) FROM calendar"
		case "shapes":
			query = "SELECT COUNT(*) FROM shapes"
		case "import_metadata":
			query = "SELECT COUNT(*) FROM import_metadata"
		default:
			continue
		}

		var count int
		if err := c.DB.Get(&count, query); err != nil {
			return nil, err
		}
		counts[table] = count
	}

	return counts, nil
}
