package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
)

// Manager manages the GTFS data and provides methods to access it
type Manager struct {
	gtfsSource       string
	GtfsDB           *gtfsdb.Client
	repo             Repository
	lastUpdated      time.Time
	isLocalFile      bool
	staticMutex      sync.RWMutex // Protects stops, generation, feedHash and lastUpdated
	config           Config
	shutdownChan     chan struct{}
	wg               sync.WaitGroup
	shutdownOnce     sync.Once
	stops            *stopIndex
	generation       uint64
	feedHash         string
	routePaths       routePathCache
	scoring          ScoringConfig
	estimator        Estimator
	clock            clock.Clock
	metrics          *metrics.Metrics
	ready            atomic.Bool
}

// InitGTFSManager initializes the Manager with the GTFS data from the given source
// The source can be either a URL or a local file path
func InitGTFSManager(config Config) (*Manager, error) {
	isLocalFile := !strings.HasPrefix(config.GtfsURL, "http://") && !strings.HasPrefix(config.GtfsURL, "https://")

	gtfsDB, err := buildGtfsDB(config, isLocalFile)
	if err != nil {
		return nil, fmt.Errorf("error building GTFS database: %w", err)
	}

	manager := newManager(gtfsDB.Queries, config)
	manager.GtfsDB = gtfsDB
	manager.gtfsSource = config.GtfsURL
	manager.isLocalFile = isLocalFile

	// Build spatial index for fast stop location queries
	if err := manager.rebuildIndexes(context.Background()); err != nil {
		_ = gtfsDB.Close()
		return nil, fmt.Errorf("error building spatial index: %w", err)
	}

	if !isLocalFile {
		manager.wg.Add(1)
		go manager.updateStaticGTFS()
	}

	return manager, nil
}

// NewManager builds a Manager over an existing repository. No background
// reloads are started.
func NewManager(repo Repository, config Config) (*Manager, error) {
	manager := newManager(repo, config)
	if err := manager.rebuildIndexes(context.Background()); err != nil {
		return nil, fmt.Errorf("error building spatial index: %w", err)
	}
	return manager, nil
}

func newManager(repo Repository, config Config) *Manager {
	return &Manager{
		repo:         repo,
		config:       config,
		shutdownChan: make(chan struct{}),
		scoring:      DefaultScoringConfig(),
		estimator:    NewHeuristicEstimator(),
		clock:        clock.RealClock{},
	}
}

// SetEstimator replaces the trip row estimator. Call before serving requests.
func (manager *Manager) SetEstimator(estimator Estimator) {
	manager.estimator = estimator
}

// SetClock replaces the clock used for default search dates. Call before serving requests.
func (manager *Manager) SetClock(c clock.Clock) {
	manager.clock = c
}

// SetScoringConfig replaces the route relevance weights. Call before serving requests.
func (manager *Manager) SetScoringConfig(cfg ScoringConfig) {
	manager.scoring = cfg
}

// SetMetrics attaches the metrics sink used for reload counters.
func (manager *Manager) SetMetrics(m *metrics.Metrics) {
	manager.metrics = m
}

// Repository exposes the read side of the store.
func (manager *Manager) Repository() Repository {
	return manager.repo
}

// Shutdown gracefully shuts down the manager and its background goroutines
func (manager *Manager) Shutdown() {
	manager.shutdownOnce.Do(func() {
		close(manager.shutdownChan)
		manager.wg.Wait()
		if manager.GtfsDB != nil {
			logger := slog.Default().With(slog.String("component", "gtfs_manager"))
			logging.SafeCloseWithLogging(manager.GtfsDB, logger, "gtfs_database")
		}
	})
}

// IsReady reports whether the first static load has completed.
func (manager *Manager) IsReady() bool {
	return manager.ready.Load()
}

// LastUpdated is when the stop index was last rebuilt.
func (manager *Manager) LastUpdated() time.Time {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.lastUpdated
}

// Generation increments on every rebuild of the in-memory indexes.
func (manager *Manager) Generation() uint64 {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.generation
}

// CacheScope names the loaded data for shared response caches. It combines the
// imported feed's content hash with the generation, so processes serving
// different feeds never share entries even though each counts generations from 1.
func (manager *Manager) CacheScope() string {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	feed := manager.feedHash
	if feed == "" {
		feed = "unversioned"
	} else if len(feed) > 16 {
		feed = feed[:16]
	}
	return fmt.Sprintf("%s.%d", feed, manager.generation)
}

// OverlapThreshold is the configured proximity buffer for overlap analysis, in meters.
func (manager *Manager) OverlapThreshold() float64 {
	return manager.config.overlapThreshold()
}

// rebuildIndexes reloads the stop R-tree from the repository and invalidates
// cached route paths.
func (manager *Manager) rebuildIndexes(ctx context.Context) error {
	index, err := buildStopIndex(ctx, manager.repo)
	if err != nil {
		return err
	}

	var feedHash string
	metadata, err := manager.repo.GetImportMetadata(ctx)
	switch {
	case err == nil:
		feedHash = metadata.FileHash
	case !gtfsdb.IsNoRows(err):
		return fmt.Errorf("error reading import metadata: %w", err)
	}

	manager.staticMutex.Lock()
	manager.stops = index
	manager.feedHash = feedHash
	manager.generation++
	manager.lastUpdated = manager.clock.Now()
	manager.staticMutex.Unlock()

	manager.routePaths.invalidate()
	manager.ready.Store(true)

	if manager.config.Verbose {
		logger := slog.Default().With(slog.String("component", "gtfs_manager"))
		logging.LogOperation(logger, "stop_spatial_index_built",
			slog.String("source", manager.gtfsSource),
			slog.Int("stops_indexed", index.count))
	}
	return nil
}

func (manager *Manager) indexedStops() *stopIndex {
	manager.staticMutex.RLock()
	defer manager.staticMutex.RUnlock()
	return manager.stops
}
