package restapi

import (
	"net/http"
	"net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
)

// rateLimitAndValidateAPIKey combines rate limiting, API key validation, and compression
func rateLimitAndValidateAPIKey(api *RestAPI, finalHandler http.HandlerFunc) http.Handler {
	// Apply compression first (innermost)
	compressedHandler := CompressionMiddleware(finalHandler)

	var rateLimitedHandler http.Handler
	if api.rateLimiter != nil {
		rateLimitedHandler = api.rateLimiter.Handler()(compressedHandler)
	} else {
		// Fallback for tests that don't use NewRestAPI constructor
		rateLimitedHandler = compressedHandler
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		rateLimitedHandler.ServeHTTP(w, r)
	})
}

// withID rejects malformed {id} path values before the standard rate limits and auth.
func withID(api *RestAPI, handler http.HandlerFunc) http.Handler {
	return rateLimitAndValidateAPIKey(api, api.ValidateIDMiddleware(handler))
}

func registerPprofHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
}

// SetRoutes registers all API endpoints with compression applied per route
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	// Health check endpoint - no authentication required
	mux.HandleFunc("GET /healthz", api.healthHandler)

	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	if api.Config.Env == appconf.Development {
		registerPprofHandlers(mux)
	}

	mux.Handle("GET /api/routes/search", rateLimitAndValidateAPIKey(api, api.routeSearchHandler))
	mux.Handle("POST /api/routes/overlap", rateLimitAndValidateAPIKey(api, api.routeOverlapHandler))
	mux.Handle("GET /api/routes", rateLimitAndValidateAPIKey(api, api.listRoutesHandler))
	mux.Handle("GET /api/trips/search", rateLimitAndValidateAPIKey(api, api.tripSearchHandler))
	mux.Handle("GET /api/stops", rateLimitAndValidateAPIKey(api, api.listStopsHandler))
	mux.Handle("GET /api/stops/nearby", rateLimitAndValidateAPIKey(api, api.nearbyStopsHandler))
	mux.Handle("GET /api/stops/search", rateLimitAndValidateAPIKey(api, api.searchStopsHandler))
	mux.Handle("GET /api/calendar", CacheControlMiddleware(staticDataMaxAge, rateLimitAndValidateAPIKey(api, api.calendarHandler)))
	mux.Handle("GET /api/stats", rateLimitAndValidateAPIKey(api, api.statsHandler))
	mux.Handle("GET /api/current-time", CacheControlMiddleware(0, rateLimitAndValidateAPIKey(api, api.currentTimeHandler)))

	mux.Handle("GET /api/routes/{id}", withID(api, api.routeHandler))
	mux.Handle("GET /api/routes/{id}/details", withID(api, api.routeDetailsHandler))
	mux.Handle("GET /api/routes/{id}/trips", withID(api, api.tripsForRouteHandler))
	mux.Handle("GET /api/routes/{id}/shape", CacheControlMiddleware(staticDataMaxAge, withID(api, api.routeShapeHandler)))
	mux.Handle("GET /api/trips/{id}/stops", CacheControlMiddleware(staticDataMaxAge, withID(api, api.tripStopsHandler)))
	mux.Handle("GET /api/stops/{id}", CacheControlMiddleware(staticDataMaxAge, withID(api, api.stopHandler)))
}
