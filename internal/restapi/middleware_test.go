package restapi

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niyant4280/bus-niyojak/internal/appconf"
	"github.com/Niyant4280/bus-niyojak/internal/clock"
	"github.com/Niyant4280/bus-niyojak/internal/metrics"
)

func TestCompressionMiddleware(t *testing.T) {
	large := strings.Repeat(`{"test": "data"}`, 1000)
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(large))
	})

	t.Run("compresses response when gzip accepted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		CompressionMiddleware(testHandler).ServeHTTP(recorder, req)

		assert.Equal(t, "gzip", recorder.Header().Get("Content-Encoding"))
		reader, err := gzip.NewReader(bytes.NewReader(recorder.Body.Bytes()))
		require.NoError(t, err)
		defer func() { _ = reader.Close() }()
		decompressed, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, large, string(decompressed))
		assert.Less(t, recorder.Body.Len(), len(large))
	})

	t.Run("leaves response alone without gzip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		recorder := httptest.NewRecorder()

		CompressionMiddleware(testHandler).ServeHTTP(recorder, req)

		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
		assert.Equal(t, large, recorder.Body.String())
	})

	t.Run("skips small responses", func(t *testing.T) {
		small := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		recorder := httptest.NewRecorder()

		CompressionMiddleware(small).ServeHTTP(recorder, req)

		assert.Empty(t, recorder.Header().Get("Content-Encoding"))
	})
}

func TestRateLimitMiddleware_PerKey(t *testing.T) {
	mockClock := clock.NewMockClock(testNow)
	limiter := NewRateLimitMiddleware(2, time.Second, []string{"exempt"}, mockClock)
	defer limiter.Stop()

	handler := limiter.Handler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(target string) int {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
		return recorder.Code
	}

	assert.Equal(t, http.StatusOK, call("/?key=a"))
	assert.Equal(t, http.StatusOK, call("/?key=a"))
	assert.Equal(t, http.StatusTooManyRequests, call("/?key=a"))
	assert.Equal(t, http.StatusOK, call("/?key=b"), "keys have separate buckets")

	for range 5 {
		assert.Equal(t, http.StatusOK, call("/?key=exempt"))
	}

	mockClock.Advance(time.Second)
	assert.Equal(t, http.StatusOK, call("/?key=a"), "tokens refill with the clock")
}

func TestRateLimitMiddleware_ResponseBody(t *testing.T) {
	limiter := NewRateLimitMiddleware(1, time.Second, nil, clock.NewMockClock(testNow))
	defer limiter.Stop()

	handler := limiter.Handler()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/?key=a", nil))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/?key=a", nil))

	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, "1", recorder.Header().Get("Retry-After"))
	assert.Equal(t, "0", recorder.Header().Get("X-RateLimit-Remaining"))
	assert.Contains(t, recorder.Body.String(), "Rate limit exceeded")
}

func TestRateLimitMiddleware_CleanupDropsIdleLimiters(t *testing.T) {
	mockClock := clock.NewMockClock(testNow)
	limiter := NewRateLimitMiddleware(10, time.Second, nil, mockClock)
	defer limiter.Stop()

	limiter.getLimiter("idle")
	mockClock.Advance(5 * time.Minute)
	limiter.getLimiter("active")

	mockClock.Advance(6 * time.Minute)
	limiter.cleanupOnce()

	assert.Equal(t, 1, limiter.limiterCount())
}

func TestRestAPI_RateLimitsThroughRoutes(t *testing.T) {
	api := createTestApi(t, withRateLimit(1))

	resp, _ := serveApiAndRetrieveEndpoint(t, api, "/api/current-time?key=TEST")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, model := serveApiAndRetrieveEndpoint(t, api, "/api/current-time?key=TEST")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, model.Code)
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := securityHeaders(appconf.Test)(next)

	t.Run("sets headers and passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
		req.Header.Set("Origin", "https://planner.example")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusTeapot, recorder.Code)
		assert.Equal(t, "nosniff", recorder.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", recorder.Header().Get("X-Frame-Options"))
		assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "POST")
		assert.Contains(t, recorder.Header().Get("Access-Control-Expose-Headers"), "X-Request-ID")
		assert.Empty(t, recorder.Header().Get("Strict-Transport-Security"))
	})

	t.Run("answers preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/routes/overlap", nil)
		req.Header.Set("Origin", "https://planner.example")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusNoContent, recorder.Code)
	})

	t.Run("no CORS without origin", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("HSTS in production", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		securityHeaders(appconf.Production)(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
		assert.Contains(t, recorder.Header().Get("Strict-Transport-Security"), "max-age=")
	})
}

func TestCacheControlMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	recorder := httptest.NewRecorder()
	CacheControlMiddleware(60, next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "public, max-age=60", recorder.Header().Get("Cache-Control"))

	recorder = httptest.NewRecorder()
	CacheControlMiddleware(0, next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-cache, no-store, must-revalidate", recorder.Header().Get("Cache-Control"))
}

func TestMetricsHandler(t *testing.T) {
	m := metrics.New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stops/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	handler := MetricsHandler(m)(mux)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stops/A", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/stops/B", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/elsewhere", nil))

	families, err := m.Registry.Gather()
	require.NoError(t, err)

	counts := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "busniyojak_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, label := range metric.GetLabel() {
				labels[label.GetName()] = label.GetValue()
			}
			counts[labels["path"]+" "+labels["status"]] = metric.GetCounter().GetValue()
		}
	}

	assert.Equal(t, 2.0, counts["GET /api/stops/{id} 404"], "requests are labelled by route pattern")
	assert.Equal(t, 1.0, counts["unmatched 404"])
}

func TestMetricsHandler_NilIsPassThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, MetricsHandler(nil)(next))
}
