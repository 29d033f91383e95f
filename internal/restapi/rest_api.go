package restapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Niyant4280/bus-niyojak/internal/app"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
)

// DefaultCacheTTL applies when the config does not set a cache TTL.
const DefaultCacheTTL = 5 * time.Minute

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
	cacheTTL    time.Duration
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	if app.Clock == nil {
		app.Clock = clock.RealClock{}
	}
	if app.Logger == nil {
		app.Logger = slog.Default()
	}

	cacheTTL := DefaultCacheTTL
	if app.Config.CacheTTLSeconds > 0 {
		cacheTTL = time.Duration(app.Config.CacheTTLSeconds) * time.Second
	}

	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.ExemptApiKeys, app.Clock),
		cacheTTL:    cacheTTL,
	}
}

// Shutdown stops the rate limiter's cleanup goroutine. It is safe to call multiple times.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}

// Handler builds the full HTTP handler: API routes plus the global middleware chain.
func (api *RestAPI) Handler() http.Handler {
	mux := http.NewServeMux()
	api.SetRoutes(mux)

	handler := api.WithSecurityHeaders(mux)
	handler = RequestIDMiddleware(handler)
	handler = MetricsHandler(api.Metrics)(handler)
	return NewRequestLoggingMiddleware(api.Logger)(handler)
}
