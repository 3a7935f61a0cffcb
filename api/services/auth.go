package services

import (
	"net/http"
	"strings"
	"time"

	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/internal/authn"
	"github.com/lemo-app/lemo-dashboard/internal/authz"
	"github.com/lemo-app/lemo-dashboard/internal/validate"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog"
)

// DashboardPath is where a successful login lands.
const DashboardPath = "/dashboard"

// MeResponse describes the signed-in user and what the UI may offer them.
type MeResponse struct {
	User              *models.User      `json:"user"`
	Links             []authz.NavLink   `json:"links"`
	AssignableStaff   []models.UserType `json:"assignableStaffTypes"`
	CanManageSchools  bool              `json:"canManageSchools"`
	CanDecideRequests bool              `json:"canDecideRequests"`
}

// LoginService signs a user in. On success the token is stored in the session
// cookie and the browser is sent to the dashboard; on failure the API's
// message is returned and no cookie is set.
func LoginService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	req, err := readLogin(w, r)
	if err != nil {
		writeDecodeError(w, r, err)
		return
	}

	resp, err := svc.API.Login(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "Login failed")
		return
	}

	setSessionCookie(svc, w, resp.Token)

	if resp.User != nil && resp.User.ID != "" && svc.Profiles != nil {
		if err := svc.Profiles.Set(r.Context(), resp.Token, resp.User); err != nil {
			logger.Warn().Err(err).Msg("Failed to cache profile")
		}
	}

	logger.Info().Str("email", req.Email).Msg("User signed in")
	http.Redirect(w, r, svc.Config.BasePath+DashboardPath, http.StatusSeeOther)
}

// readLogin accepts both a browser form post and a JSON body.
func readLogin(w http.ResponseWriter, r *http.Request) (models.LoginRequest, error) {
	var req models.LoginRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(contentType, "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Email = strings.TrimSpace(r.PostFormValue("email"))
		req.Password = r.PostFormValue("password")
		return req, validate.Struct(&req)
	}

	err := decodeForm(w, r, &req)
	return req, err
}

func setSessionCookie(svc *Service, w http.ResponseWriter, token string) {
	cfg := svc.Config.Session
	expires := svc.now().Add(cfg.MaxAge)

	if claims, err := authn.ParseClaims(token); err == nil {
		if exp, ok := claims.Expiry(); ok {
			expires = exp
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(expires.Sub(svc.now()) / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SignupService registers a new account.
func SignupService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	var req models.SignupRequest
	if err := decodeForm(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	user, err := svc.API.Signup(r.Context(), req)
	if err != nil {
		HandleAPIError(w, r, err, "Signup failed")
		return
	}

	logger.Info().Str("user_id", user.ID).Msg("Account created")
	HandleSuccessResponse(w, http.StatusCreated, user)
}

// VerifyEmailService confirms an email address with the code sent to it.
func VerifyEmailService(svc *Service, w http.ResponseWriter, r *http.Request) {

	var req models.VerifyEmailRequest
	if err := decodeForm(w, r, &req); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	if err := svc.API.VerifyEmail(r.Context(), req); err != nil {
		HandleAPIError(w, r, err, "Email verification failed")
		return
	}

	HandleSuccessResponse(w, http.StatusOK, nil)
}

// LogoutService clears the session cookie and forgets the cached profile.
func LogoutService(svc *Service, w http.ResponseWriter, r *http.Request) {

	cookieName := svc.Config.Session.CookieName

	if cookie, err := r.Cookie(cookieName); err == nil && cookie.Value != "" && svc.Profiles != nil {
		if err := svc.Profiles.Delete(r.Context(), cookie.Value); err != nil {
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Failed to evict cached profile")
		}
	}

	middleware.ClearSessionCookie(w, cookieName)
	WriteResponse(w, http.StatusNoContent, nil)
}

// MeService returns the signed-in user with the navigation and actions their
// type allows.
func MeService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	HandleSuccessResponse(w, http.StatusOK, meResponse(sess.User))
}

func meResponse(u *models.User) MeResponse {
	return MeResponse{
		User:              u,
		Links:             authz.VisibleLinks(u),
		AssignableStaff:   authz.AssignableStaffTypes(u),
		CanManageSchools:  authz.CanAccess(u, authz.PlatformTypes...),
		CanDecideRequests: authz.CanAccess(u, authz.PlatformTypes...),
	}
}

// NavService returns the sidebar links visible to the signed-in user.
func NavService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	HandleSuccessResponse(w, http.StatusOK, authz.VisibleLinks(sess.User))
}

// UpdateMeService updates the signed-in user's own profile. Users cannot
// change their own type or school here.
func UpdateMeService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var update models.UserUpdate
	if err := decodeForm(w, r, &update); err != nil {
		writeDecodeError(w, r, err)
		return
	}
	update.Type = nil
	update.School = nil

	user, err := svc.API.UpdateMe(r.Context(), sess.Token, update)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update profile")
		return
	}

	if svc.Profiles != nil {
		if err := svc.Profiles.Set(r.Context(), sess.Token, user); err != nil {
			logger.Warn().Err(err).Msg("Failed to refresh cached profile")
		}
	}

	HandleSuccessResponse(w, http.StatusOK, user)
}
