package restapi

import (
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/models"
)

func (api *RestAPI) currentTimeHandler(w http.ResponseWriter, r *http.Request) {
	timeData := models.NewCurrentTimeData(api.Clock.Now())
	response := models.NewEntryResponse(timeData, models.NewEmptyReferences(), api.Clock)

	api.sendResponse(w, r, response)
}
