package app

import (
	"log/slog"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/cache"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware.
type Application struct {
	Config      appconf.Config
	GtfsConfig  gtfs.Config
	Logger      *slog.Logger
	GtfsManager *gtfs.Manager
	Clock       clock.Clock
	Metrics     *metrics.Metrics
	// Cache holds serialized search and overlap responses. Nil disables caching.
	Cache cache.Cache
}
