package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/logging"
)

// HealthResponse represents the JSON response from the health endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	Detail     string `json:"detail,omitempty"`
	Generation uint64 `json:"generation,omitempty"`
}

// healthHandler returns 503 until the manager has indexed its first load and
// while the database does not answer a ping.
func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if api.Application == nil || api.GtfsManager == nil {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "unavailable",
			Detail: "manager not initialized",
		})
		return
	}

	if !api.GtfsManager.IsReady() {
		writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
			Status: "starting",
			Detail: "GTFS data is being indexed and initialized",
		})
		return
	}

	if db := api.GtfsManager.GtfsDB; db != nil && db.DB != nil {
		if err := db.DB.PingContext(r.Context()); err != nil {
			logging.LogError(api.Logger, "GTFS DB ping failed", err)
			writeHealth(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unavailable",
				Detail: "database connection failed",
			})
			return
		}
	}

	writeHealth(w, http.StatusOK, HealthResponse{
		Status:     "ok",
		Generation: api.GtfsManager.Generation(),
	})
}

func writeHealth(w http.ResponseWriter, status int, body HealthResponse) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
