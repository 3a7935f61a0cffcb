package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/internal/authz"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/rs/zerolog"
)

var (
	errNoSchool        = errors.New("forbidden: your account is not attached to a school")
	errOtherSchool     = errors.New("forbidden: you can only manage your own school")
	errCannotManage    = errors.New("forbidden: you cannot manage this user")
	errCannotAssign    = errors.New("forbidden: you cannot assign this staff type")
	errCannotListUsers = errors.New("forbidden: you cannot list users of this type")
)

// schoolScope returns the school the session's listings are limited to. A
// school manager without a school may not list anything.
func schoolScope(w http.ResponseWriter, sess *middleware.Session) (string, bool) {
	scope := authz.ScopeSchool(sess.User)
	if scope == "" && !authz.CanAccess(sess.User, authz.PlatformTypes...) {
		HandleErrResponse(w, http.StatusForbidden, errNoSchool)
		return "", false
	}
	return scope, true
}

// ListUsersService lists users, filtered by type and, for school managers,
// limited to their school. Only super admins may leave the type out. Requests with a search term are debounced.
func ListUsersService(svc *Service, w http.ResponseWriter, r *http.Request) {

	sess, ok := session(w, r)
	if !ok {
		return
	}

	q := models.ParseListQuery(r.URL.Query())
	if !authz.CanListType(sess.User, q.Type) {
		HandleErrResponse(w, http.StatusForbidden, errCannotListUsers)
		return
	}

	scope, ok := schoolScope(w, sess)
	if !ok {
		return
	}
	if scope != "" {
		q.School = scope
	}

	resource := "users"
	if q.Type != "" {
		resource += ":" + string(q.Type)
	}

	ctx, release, ok := searchContext(svc, w, r, sess.Token, resource)
	if !ok {
		return
	}
	defer release()

	page, err := svc.API.ListUsers(ctx, sess.Token, q)
	if stale(svc, w, r, ctx, resource) {
		return
	}
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list users")
		return
	}

	HandleSuccessResponse(w, http.StatusOK, page)
}

// CreateStaffService adds a staff account. The actor may only create the
// staff types they can assign.
func CreateStaffService(svc *Service, w http.ResponseWriter, r *http.Request) {

	logger := zerolog.Ctx(r.Context())

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var staff models.NewStaff
	if err := decodeForm(w, r, &staff); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	if !authz.CanAssignType(sess.User, staff.Type) {
		HandleErrResponse(w, http.StatusForbidden, errCannotAssign)
		return
	}

	scope, ok := schoolScope(w, sess)
	if !ok {
		return
	}
	if scope != "" && staff.School != scope {
		HandleErrResponse(w, http.StatusForbidden, errOtherSchool)
		return
	}

	user, err := svc.API.CreateStaff(r.Context(), sess.Token, staff)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create staff")
		return
	}

	logger.Info().Str("user_id", user.ID).Str("type", string(user.Type)).Msg("Staff created")
	audit(svc, r, sess, events.ActionStaffCreated, user.ID, string(user.Type))

	HandleSuccessResponse(w, http.StatusCreated, user, fmt.Sprintf("/api/users/%s", user.ID))
}

// UpdateUserService edits another user's account.
func UpdateUserService(svc *Service, w http.ResponseWriter, r *http.Request) {

	userID := mux.Vars(r)["user-id"]
	logger := zerolog.Ctx(r.Context()).With().Str("target_id", userID).Logger()

	sess, ok := session(w, r)
	if !ok {
		return
	}

	var update models.UserUpdate
	if err := decodeForm(w, r, &update); err != nil {
		writeDecodeError(w, r, err)
		return
	}

	target, ok := manageableUser(svc, w, r, sess, userID)
	if !ok {
		return
	}

	if update.Type != nil && *update.Type != target.Type {
		if !target.Type.IsStaff() || !authz.CanAssignType(sess.User, *update.Type) {
			HandleErrResponse(w, http.StatusForbidden, errCannotAssign)
			return
		}
	}
	if update.School != nil {
		if scope := authz.ScopeSchool(sess.User); scope != "" && *update.School != scope {
			HandleErrResponse(w, http.StatusForbidden, errOtherSchool)
			return
		}
	}

	user, err := svc.API.UpdateUser(r.Context(), sess.Token, userID, update)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}

	logger.Info().Msg("User updated")
	audit(svc, r, sess, events.ActionUserUpdated, userID, "")

	HandleSuccessResponse(w, http.StatusOK, user)
}

// DeleteUserService deletes another user's account.
func DeleteUserService(svc *Service, w http.ResponseWriter, r *http.Request) {

	userID := mux.Vars(r)["user-id"]
	logger := zerolog.Ctx(r.Context()).With().Str("target_id", userID).Logger()

	sess, ok := session(w, r)
	if !ok {
		return
	}

	if _, ok := manageableUser(svc, w, r, sess, userID); !ok {
		return
	}

	if err := svc.API.DeleteUser(r.Context(), sess.Token, userID); err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	logger.Info().Msg("User deleted")
	audit(svc, r, sess, events.ActionUserDeleted, userID, "")

	WriteResponse(w, http.StatusNoContent, nil)
}

// manageableUser fetches the target user and checks the actor may manage it.
func manageableUser(svc *Service, w http.ResponseWriter, r *http.Request, sess *middleware.Session, userID string) (*models.User, bool) {
	target, err := svc.API.GetUser(r.Context(), sess.Token, userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to retrieve user")
		return nil, false
	}

	if !authz.CanManageUser(sess.User, target) {
		zerolog.Ctx(r.Context()).Warn().Str("target_id", userID).Msg("User management denied")
		HandleErrResponse(w, http.StatusForbidden, errCannotManage)
		return nil, false
	}
	return target, true
}
