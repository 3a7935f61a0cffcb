package handlers

import (
	"net/http"

	"github.com/lemo-app/lemo-dashboard/api/services"
)

// GetUsers lists users; requests with ?search= are debounced per session.
func GetUsers(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.ListUsersService(svc, w, r)
	}
}

func CreateStaff(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CreateStaffService(svc, w, r)
	}
}

func UpdateUser(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.UpdateUserService(svc, w, r)
	}
}

func DeleteUser(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DeleteUserService(svc, w, r)
	}
}

func GetPreferences(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.GetPreferencesService(svc, w, r)
	}
}

func AddPreference(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.AddPreferenceService(svc, w, r)
	}
}

func RemovePreference(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.RemovePreferenceService(svc, w, r)
	}
}
