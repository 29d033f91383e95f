package restapi

import (
	"net/http"

	"github.com/Niyant4280/bus-niyojak/internal/utils"
)

// ValidateIDMiddleware rejects requests whose {id} path value is empty, too long
// or contains characters outside the transit ID alphabet.
func (api *RestAPI) ValidateIDMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := utils.ValidateID(r.PathValue("id")); err != nil {
			api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
			return
		}
		next(w, r)
	}
}
