package handlers

import (
	"net/http"

	"github.com/lemo-app/lemo-dashboard/api/services"
)

// Login signs the user in and redirects to the dashboard.
func Login(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.LoginService(svc, w, r)
	}
}

func Signup(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.SignupService(svc, w, r)
	}
}

func VerifyEmail(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.VerifyEmailService(svc, w, r)
	}
}

func Logout(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.LogoutService(svc, w, r)
	}
}

func GetMe(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.MeService(svc, w, r)
	}
}

func UpdateMe(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.UpdateMeService(svc, w, r)
	}
}

func GetNav(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.NavService(svc, w, r)
	}
}

func GetDashboard(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.DashboardService(svc, w, r)
	}
}

func CheckForm(svc *services.Service) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		services.CheckFormService(svc, w, r)
	}
}
