package gtfs

import (
	"github.com/Niyant4280/bus-niyojak/internal/appconf"
)

// DefaultOverlapThresholdMeters is how close a proposed segment must pass to an
// existing one to count as overlapping.
const DefaultOverlapThresholdMeters = 150.0

type Config struct {
	GtfsURL                string
	StaticAuthHeaderKey    string
	StaticAuthHeaderValue  string
	GTFSDataPath           string
	DBDriver               string
	Env                    appconf.Environment
	Verbose                bool
	OverlapThresholdMeters float64
	// TidyFeed runs each feed through gtfstidy before import.
	TidyFeed bool
}

func (config Config) overlapThreshold() float64 {
	if config.OverlapThresholdMeters > 0 {
		return config.OverlapThresholdMeters
	}
	return DefaultOverlapThresholdMeters
}
