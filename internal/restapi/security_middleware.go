package restapi

import (
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
)

// WithSecurityHeaders wraps the given handler with security headers middleware
func (api *RestAPI) WithSecurityHeaders(handler http.Handler) http.Handler {
	return securityHeaders(api.Config.Env)(handler)
}

// securityHeaders sets the hardening and CORS headers of every response.
// HSTS is only sent in production, where the API sits behind TLS.
func securityHeaders(env appconf.Environment) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// JSON only; nothing here is ever rendered as a page
			h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none';")
			if env == appconf.Production {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			if r.Header.Get("Origin") != "" {
				// Journey planner front ends are served from other origins
				h.Set("Access-Control-Allow-Origin", "*")
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After, X-RateLimit-Limit, X-RateLimit-Remaining")
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
