package services

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/internal/validate"
)

// FormCheck is the answer of POST /api/forms/{form}/check.
type FormCheck struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

// CheckFormService validates a form without submitting it, so the browser
// can enable the submit button only when the form would be accepted.
func CheckFormService(svc *Service, w http.ResponseWriter, r *http.Request) {

	name := mux.Vars(r)["form"]

	newForm, ok := validate.Forms[name]
	if !ok {
		HandleErrResponse(w, http.StatusNotFound, fmt.Errorf("unknown form %q", name))
		return
	}

	form := newForm()
	if err := decodeJSON(w, r, form); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	check := FormCheck{Valid: true, Errors: map[string]string{}}
	if err := validate.Struct(form); err != nil {
		fields := validate.Fields(err)
		if fields == nil {
			HandleErrResponse(w, http.StatusInternalServerError, err)
			return
		}
		check.Valid = false
		check.Errors = fields
	}

	HandleSuccessResponse(w, http.StatusOK, check)
}
