package restapi

import (
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/models"
)

// calendarHandler lists the active service calendars.
func (api *RestAPI) calendarHandler(w http.ResponseWriter, r *http.Request) {
	calendars, err := api.GtfsManager.ListCalendars(r.Context())
	if err != nil {
		api.gtfsErrorResponse(w, r, "calendar", err)
		return
	}

	list := make([]models.Calendar, len(calendars))
	for i, c := range calendars {
		list[i] = models.NewCalendar(c)
	}
	api.sendResponse(w, r, models.NewListResponse(list, models.NewEmptyReferences(), api.Clock))
}

func (api *RestAPI) statsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := api.GtfsManager.Stats(r.Context())
	if err != nil {
		api.gtfsErrorResponse(w, r, "stats", err)
		return
	}

	api.sendResponse(w, r, models.NewEntryResponse(models.NewStats(stats), models.NewEmptyReferences(), api.Clock))
}
