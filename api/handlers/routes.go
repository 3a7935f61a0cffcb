package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/api/services"
	"github.com/lemo-app/lemo-dashboard/internal/authz"
	"github.com/lemo-app/lemo-dashboard/models"
)

// Register mounts the dashboard routes on r under the configured base path.
func Register(r *mux.Router, svc *services.Service) {

	base := r
	if svc.Config.BasePath != "" {
		base = r.PathPrefix(svc.Config.BasePath).Subrouter()
	}

	base.Use(middleware.WithLogger)
	if svc.Metrics != nil {
		base.Use(svc.Metrics.Middleware)
		base.Handle("/metrics", svc.Metrics.Handler()).Methods(http.MethodGet)
	}

	base.HandleFunc("/health", Health).Methods(http.MethodGet)

	// Public routes
	base.HandleFunc("/login", Login(svc)).Methods(http.MethodPost)
	base.HandleFunc("/signup", Signup(svc)).Methods(http.MethodPost)
	base.HandleFunc("/verify-email", VerifyEmail(svc)).Methods(http.MethodPost)
	base.HandleFunc("/logout", Logout(svc)).Methods(http.MethodPost)
	base.HandleFunc("/api/forms/{form}/check", CheckForm(svc)).Methods(http.MethodPost)

	// Session routes
	api := base.PathPrefix("/api").Subrouter()
	api.Use(middleware.SessionMiddleware(svc.Config.Session.CookieName, svc.API, svc.Profiles))

	api.HandleFunc("/me", GetMe(svc)).Methods(http.MethodGet)
	api.HandleFunc("/me", UpdateMe(svc)).Methods(http.MethodPatch)
	api.HandleFunc("/nav", GetNav(svc)).Methods(http.MethodGet)
	api.HandleFunc("/preferences/{list}", GetPreferences(svc)).Methods(http.MethodGet)
	api.HandleFunc("/preferences/{list}", AddPreference(svc)).Methods(http.MethodPost)
	api.HandleFunc("/preferences/{list}", RemovePreference(svc)).Methods(http.MethodDelete)

	// Staff routes
	api.Handle("/dashboard", only(authz.StaffTypes, GetDashboard(svc))).Methods(http.MethodGet)
	api.Handle("/users", only(authz.StaffTypes, GetUsers(svc))).Methods(http.MethodGet)
	api.Handle("/staff", only(authz.StaffTypes, CreateStaff(svc))).Methods(http.MethodPost)
	api.Handle("/users/{user-id}", only(authz.StaffTypes, UpdateUser(svc))).Methods(http.MethodPatch)
	api.Handle("/users/{user-id}", only(authz.StaffTypes, DeleteUser(svc))).Methods(http.MethodDelete)
	api.Handle("/files", only(authz.StaffTypes, UploadFile(svc))).Methods(http.MethodPost)

	// School routes
	api.Handle("/schools", only(authz.PlatformTypes, GetSchools(svc))).Methods(http.MethodGet)
	api.Handle("/schools", only(authz.PlatformTypes, CreateSchool(svc))).Methods(http.MethodPost)
	api.Handle("/schools/connect", only(authz.PlatformTypes, ConnectSchool(svc))).Methods(http.MethodPost)
	api.Handle("/schools/{school-id}", only(authz.StaffTypes, UpdateSchool(svc))).Methods(http.MethodPut)
	api.Handle("/schools/{school-id}", only(authz.PlatformTypes, DeleteSchool(svc))).Methods(http.MethodDelete)
	api.Handle("/schools/{school-id}/qr", only(authz.StaffTypes, GetSchoolQR(svc))).Methods(http.MethodGet)
	api.Handle("/schools/{school-id}/logo", only(authz.StaffTypes, UploadSchoolLogo(svc))).Methods(http.MethodPost)

	// Block request routes
	api.Handle("/block-requests", only(authz.StaffTypes, GetBlockRequests(svc))).Methods(http.MethodGet)
	api.Handle("/block-requests", only(authz.StaffTypes, CreateBlockRequest(svc))).Methods(http.MethodPost)
	api.Handle("/block-requests/{request-id}/approve", only(authz.PlatformTypes, ApproveBlockRequest(svc))).Methods(http.MethodPost)
	api.Handle("/block-requests/{request-id}/reject", only(authz.PlatformTypes, RejectBlockRequest(svc))).Methods(http.MethodPost)
}

func only(allowed []models.UserType, h http.Handler) http.Handler {
	return middleware.RequireTypes(allowed...)(h)
}

// Health reports that the server is up.
func Health(w http.ResponseWriter, r *http.Request) {
	services.WriteResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
