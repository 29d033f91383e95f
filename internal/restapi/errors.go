package restapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Niyant4280/bus-niyojak/internal/gtfs"
	"github.com/Niyant4280/bus-niyojak/internal/logging"
	"github.com/Niyant4280/bus-niyojak/internal/models"
)

// invalidAPIKeyResponse sends a 401 Unauthorized response with the required format
// for invalid API key errors
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	response := models.ResponseModel{
		Code:        http.StatusUnauthorized,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        "permission denied",
		Version:     1, // version 1 kept for client compatibility
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode invalid API key response", "error", err)
	}
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "internal server error", err,
		slog.String("component", "rest_api"),
		slog.String("path", r.URL.Path))

	response := models.ResponseModel{
		Code:        http.StatusInternalServerError,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        "internal server error",
		Version:     1,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	if encoderErr := json.NewEncoder(w).Encode(response); encoderErr != nil {
		api.Logger.Error("failed to encode server error response", "error", encoderErr)
	}
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		api.Logger.Error("failed to encode validation error response", "error", err)
	}
}

// gtfsErrorResponse maps engine errors onto HTTP statuses. field names the
// request field reported for invalid arguments.
func (api *RestAPI) gtfsErrorResponse(w http.ResponseWriter, r *http.Request, field string, err error) {
	switch {
	case errors.Is(err, gtfs.ErrInvalidArgument):
		api.validationErrorResponse(w, r, map[string][]string{field: {errorDetail(err, gtfs.ErrInvalidArgument)}})
	case errors.Is(err, gtfs.ErrNotFound):
		api.sendError(w, r, http.StatusNotFound, errorDetail(err, gtfs.ErrNotFound))
	case errors.Is(err, gtfs.ErrUpstreamUnavailable):
		api.sendError(w, r, http.StatusServiceUnavailable, "data store unavailable")
	case errors.Is(err, r.Context().Err()):
		// The client went away; nobody is left to read a response.
		return
	default:
		api.serverErrorResponse(w, r, err)
	}
}

// errorDetail strips the sentinel prefix from a wrapped error message.
func errorDetail(err, sentinel error) string {
	msg := err.Error()
	if detail, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return detail
	}
	return msg
}
