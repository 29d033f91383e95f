package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
)

const (
	staticReloadInterval = 24 * time.Hour
	staticReloadTimeout  = 5 * time.Minute
)

func buildGtfsDB(config Config, isLocalFile bool) (*gtfsdb.Client, error) {
	dbConfig := gtfsdb.NewConfig(config.GTFSDataPath, config.Env, config.Verbose)
	if config.DBDriver != "" {
		dbConfig.Driver = config.DBDriver
	}
	client, err := gtfsdb.NewClient(dbConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create GTFS database client: %w", err)
	}

	ctx := context.Background()

	if err := importFeed(ctx, client, config, isLocalFile); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// importFeed reads the feed from disk or over HTTP, optionally tidies it, and
// stores it through client.
func importFeed(ctx context.Context, client *gtfsdb.Client, config Config, isLocalFile bool) error {
	var feed []byte
	var err error
	if isLocalFile {
		feed, err = gtfsdb.ReadFeed(config.GtfsURL)
	} else {
		feed, err = gtfsdb.Download(ctx, config.GtfsURL, config.StaticAuthHeaderKey, config.StaticAuthHeaderValue)
	}
	if err != nil {
		return err
	}

	if config.TidyFeed {
		logger := slog.Default().With(slog.String("component", "gtfs_tidy"))
		feed, err = tidyFeed(ctx, feed, logger)
		if err != nil {
			return err
		}
	}

	return client.ImportFromBytes(ctx, feed, config.GtfsURL)
}

// updateStaticGTFS re-imports the feed on a regular schedule.
// Only runs when the source is a URL, not a local file.
func (manager *Manager) updateStaticGTFS() {
	defer manager.wg.Done()

	logger := slog.Default().With(slog.String("component", "gtfs_static_updater"))

	if manager.isLocalFile {
		logging.LogOperation(logger, "gtfs_source_is_local_file_skipping_periodic_updates",
			slog.String("source", manager.gtfsSource))
		return
	}

	ticker := time.NewTicker(staticReloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), staticReloadTimeout)
			err := manager.reloadStatic(ctx)
			cancel()

			manager.metrics.ObserveReload(err)
			if err != nil {
				// Keep serving the previous import
				logging.LogError(logger, "Error updating GTFS data", err,
					slog.String("source", manager.gtfsSource))
				continue
			}

			logging.LogOperation(logger, "gtfs_static_data_updated",
				slog.String("source", manager.gtfsSource))
		case <-manager.shutdownChan:
			logging.LogOperation(logger, "shutting_down_static_gtfs_updates")
			return
		}
	}
}

// reloadStatic downloads the feed into the existing database and rebuilds the
// in-memory indexes. An unchanged feed is skipped by the importer.
func (manager *Manager) reloadStatic(ctx context.Context) error {
	if manager.GtfsDB == nil {
		return fmt.Errorf("no GTFS database attached")
	}

	if err := importFeed(ctx, manager.GtfsDB, manager.config, manager.isLocalFile); err != nil {
		return err
	}

	return manager.rebuildIndexes(ctx)
}
