// Package metrics provides Prometheus metrics for the bus-niyojak service.
package metrics

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Search kinds used as the "kind" label.
const (
	SearchKindRoutes  = "routes"
	SearchKindTrips   = "trips"
	SearchKindNearby  = "nearby"
	SearchKindOverlap = "overlap"
)

// Search outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeDegraded = "degraded"
	OutcomeError    = "error"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database metrics
	DBConnectionsOpen  prometheus.Gauge
	DBConnectionsInUse prometheus.Gauge
	DBConnectionsIdle  prometheus.Gauge
	DBWaitSecondsTotal prometheus.Counter

	// Search engine metrics
	SearchesTotal      *prometheus.CounterVec
	SearchResultCount  *prometheus.HistogramVec
	OverlapRatio       prometheus.Histogram
	StaticReloadsTotal *prometheus.CounterVec

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busniyojak_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "busniyojak_http_request_duration_seconds",
				Help:    "HTTP request latency distribution",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		DBConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busniyojak_db_connections_open",
			Help: "Number of open database connections",
		}),
		DBConnectionsInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busniyojak_db_connections_in_use",
			Help: "Number of database connections currently in use",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "busniyojak_db_connections_idle",
			Help: "Number of idle database connections",
		}),
		DBWaitSecondsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "busniyojak_db_wait_seconds_total",
			Help: "Total time blocked waiting for a database connection",
		}),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busniyojak_searches_total",
				Help: "Search engine invocations by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		SearchResultCount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "busniyojak_search_results",
				Help:    "Number of results returned per search",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
			[]string{"kind"},
		),
		OverlapRatio: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "busniyojak_overlap_ratio",
			Help:    "Overlap ratio of analyzed route proposals",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		StaticReloadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "busniyojak_static_reloads_total",
				Help: "Static GTFS reload attempts by status",
			},
			[]string{"status"},
		),
		logger: logger,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBWaitSecondsTotal,
		m.SearchesTotal,
		m.SearchResultCount,
		m.OverlapRatio,
		m.StaticReloadsTotal,
	)

	return m
}

// ObserveSearch records one search of the given kind. Safe on a nil receiver.
func (m *Metrics) ObserveSearch(kind, outcome string, results int) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(kind, outcome).Inc()
	if outcome != OutcomeError {
		m.SearchResultCount.WithLabelValues(kind).Observe(float64(results))
	}
}

// ObserveOverlap records the ratio of one overlap analysis. Safe on a nil receiver.
func (m *Metrics) ObserveOverlap(ratio float64) {
	if m == nil {
		return
	}
	m.OverlapRatio.Observe(ratio)
}

// ObserveReload counts a static data reload attempt. Safe on a nil receiver.
func (m *Metrics) ObserveReload(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.StaticReloadsTotal.WithLabelValues(status).Inc()
}

// StartDBStatsCollector starts a goroutine that periodically collects database
// connection pool statistics. Only the first call has any effect.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartDBStatsCollector(db *sql.DB, interval time.Duration) {
	if db == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	var lastWaitDuration time.Duration

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in DB stats collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := db.Stats()
				m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
				m.DBConnectionsInUse.Set(float64(stats.InUse))
				m.DBConnectionsIdle.Set(float64(stats.Idle))

				waitDelta := stats.WaitDuration - lastWaitDuration
				if waitDelta > 0 {
					m.DBWaitSecondsTotal.Add(waitDelta.Seconds())
				}
				lastWaitDuration = stats.WaitDuration

			case <-ctx.Done():
				return
			}
		}
	}()
}

// Shutdown stops the DB stats collector goroutine and waits for it to exit.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
