package services

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/internal/prefs"
	"github.com/rs/zerolog"
)

// PreferenceValue is the body of POST /api/preferences/{list}.
type PreferenceValue struct {
	Value string `json:"value"`
}

// GetPreferencesService returns one of the signed-in user's preference lists.
func GetPreferencesService(svc *Service, w http.ResponseWriter, r *http.Request) {
	changePreferences(svc, w, r, func(userID string, list prefs.List) ([]string, error) {
		return svc.Prefs.Get(userID, list)
	})
}

// AddPreferenceService adds a value to a preference list.
func AddPreferenceService(svc *Service, w http.ResponseWriter, r *http.Request) {
	var body PreferenceValue
	if err := decodeJSON(w, r, &body); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	changePreferences(svc, w, r, func(userID string, list prefs.List) ([]string, error) {
		return svc.Prefs.Add(userID, list, body.Value)
	})
}

// RemovePreferenceService removes the ?value= entry from a preference list.
func RemovePreferenceService(svc *Service, w http.ResponseWriter, r *http.Request) {
	value := r.URL.Query().Get("value")

	changePreferences(svc, w, r, func(userID string, list prefs.List) ([]string, error) {
		return svc.Prefs.Remove(userID, list, value)
	})
}

func changePreferences(svc *Service, w http.ResponseWriter, r *http.Request, change func(string, prefs.List) ([]string, error)) {

	list := prefs.List(mux.Vars(r)["list"])
	logger := zerolog.Ctx(r.Context()).With().Str("list", string(list)).Logger()

	sess, ok := session(w, r)
	if !ok {
		return
	}

	values, err := change(sess.User.ID, list)
	switch {
	case errors.Is(err, prefs.ErrUnknownList):
		HandleErrResponse(w, http.StatusNotFound, err)
		return
	case errors.Is(err, prefs.ErrBlankValue):
		HandleErrResponse(w, http.StatusBadRequest, err)
		return
	case err != nil:
		logger.Error().Err(err).Msg("Failed to access preferences")
		HandleErrResponse(w, http.StatusInternalServerError, err)
		return
	}

	HandleSuccessResponse(w, http.StatusOK, values)
}
