package services

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestListUsersService_SchoolManagerIsScopedToOwnSchool(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	expected := models.ListQuery{Page: 1, Limit: models.DefaultPageSize, Type: models.Student, School: "s1"}
	api.On("ListUsers", mock.Anything, "tok", expected).
		Return(&models.Page[models.User]{Data: []models.User{{ID: "st1"}}, Total: 1}, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/users?type=student&school=s2", nil)
	ListUsersService(svc, w, withUser(req, manager("s1")))

	assert.Equal(t, http.StatusOK, w.Code)
	var page models.Page[models.User]
	readEnvelope(t, w, &page)
	assert.Equal(t, 1, page.Total)
	api.AssertExpectations(t)
}

func TestListUsersService_ManagerWithoutSchool(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	w := httptest.NewRecorder()
	ListUsersService(svc, w, withUser(httptest.NewRequest(http.MethodGet, "/api/users?type=student", nil), manager("")))

	assert.Equal(t, http.StatusForbidden, w.Code)
	api.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything, mock.Anything)
}

func TestListUsersService_AdminCannotListAdmins(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	w := httptest.NewRecorder()
	ListUsersService(svc, w, withUser(httptest.NewRequest(http.MethodGet, "/api/users?type=admin", nil), admin()))

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListUsersService_TypeRequiredBelowSuperAdmin(t *testing.T) {
	for _, actor := range []*models.User{admin(), manager("s1")} {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		w := httptest.NewRecorder()
		ListUsersService(svc, w, withUser(httptest.NewRequest(http.MethodGet, "/api/users", nil), actor))

		assert.Equal(t, http.StatusForbidden, w.Code, string(actor.Type))
		api.AssertNotCalled(t, "ListUsers", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestListUsersService_SuperAdminListsEveryType(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	api.On("ListUsers", mock.Anything, "tok", models.ListQuery{Page: 1, Limit: models.DefaultPageSize}).
		Return(&models.Page[models.User]{Data: []models.User{{ID: "a1", Type: models.Admin}}, Total: 1}, nil)

	w := httptest.NewRecorder()
	ListUsersService(svc, w, withUser(httptest.NewRequest(http.MethodGet, "/api/users", nil), superAdmin()))

	assert.Equal(t, http.StatusOK, w.Code)
	api.AssertExpectations(t)
}

func TestCreateStaffService(t *testing.T) {
	body := `{"full_name":"Sam Lee","email":"sam@example.com","type":"school_manager","job_title":"Teacher","school":"s1"}`

	t.Run("admin adds a school manager", func(t *testing.T) {
		api := new(MockLemoAPI)
		notifier := new(MockNotifier)
		svc := newTestService(api)
		svc.Publisher = notifier

		api.On("CreateStaff", mock.Anything, "tok", mock.MatchedBy(func(s models.NewStaff) bool {
			return s.Email == "sam@example.com" && s.School == "s1"
		})).Return(&models.User{ID: "u9", Type: models.SchoolManager}, nil)
		notifier.On("Notify", mock.Anything, mock.MatchedBy(func(e events.AuditEvent) bool {
			return e.Action == events.ActionStaffCreated && e.ResourceID == "u9" && e.ActorID == "a1"
		})).Return(nil)

		w := httptest.NewRecorder()
		CreateStaffService(svc, w, withUser(jsonRequest(http.MethodPost, "/api/staff", body), admin()))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "/api/users/u9", w.Header().Get("Location"))
		api.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("school manager cannot add managers", func(t *testing.T) {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		w := httptest.NewRecorder()
		CreateStaffService(svc, w, withUser(jsonRequest(http.MethodPost, "/api/staff", body), manager("s1")))

		assert.Equal(t, http.StatusForbidden, w.Code)
		env := readEnvelope(t, w, nil)
		assert.Equal(t, errCannotAssign.Error(), env.ErrorDetails)
		api.AssertNotCalled(t, "CreateStaff", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("admin cannot create admins", func(t *testing.T) {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		adminBody := `{"full_name":"Al","email":"al@example.com","type":"admin","job_title":"Ops","school":"s1"}`
		w := httptest.NewRecorder()
		CreateStaffService(svc, w, withUser(jsonRequest(http.MethodPost, "/api/staff", adminBody), admin()))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("invalid form", func(t *testing.T) {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		w := httptest.NewRecorder()
		CreateStaffService(svc, w, withUser(jsonRequest(http.MethodPost, "/api/staff", `{"type":"student"}`), superAdmin()))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		env := readEnvelope(t, w, nil)
		assert.Equal(t, "type must be a staff type", env.Fields["type"])
	})
}

func TestUpdateUserService_CannotPromoteStudent(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	api.On("GetUser", mock.Anything, "tok", "st1").
		Return(&models.User{ID: "st1", Type: models.Student, School: &models.SchoolRef{ID: "s1"}}, nil)

	req := jsonRequest(http.MethodPatch, "/api/users/st1", `{"type":"school_manager"}`)
	req = mux.SetURLVars(req, map[string]string{"user-id": "st1"})
	w := httptest.NewRecorder()
	UpdateUserService(svc, w, withUser(req, manager("s1")))

	assert.Equal(t, http.StatusForbidden, w.Code)
	api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserService_ManagerCannotEditManager(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	api.On("GetUser", mock.Anything, "tok", "m2").
		Return(&models.User{ID: "m2", Type: models.SchoolManager, School: &models.SchoolRef{ID: "s1"}}, nil)

	req := jsonRequest(http.MethodPatch, "/api/users/m2", `{"job_title":"Head"}`)
	req = mux.SetURLVars(req, map[string]string{"user-id": "m2"})
	w := httptest.NewRecorder()
	UpdateUserService(svc, w, withUser(req, manager("s1")))

	assert.Equal(t, http.StatusForbidden, w.Code)
	api.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateUserService_Success(t *testing.T) {
	api := new(MockLemoAPI)
	svc := newTestService(api)

	section := "B"
	api.On("GetUser", mock.Anything, "tok", "st1").
		Return(&models.User{ID: "st1", Type: models.Student, School: &models.SchoolRef{ID: "s1"}}, nil)
	api.On("UpdateUser", mock.Anything, "tok", "st1", models.UserUpdate{Section: &section}).
		Return(&models.User{ID: "st1", Section: section}, nil)

	req := jsonRequest(http.MethodPatch, "/api/users/st1", `{"section":"B"}`)
	req = mux.SetURLVars(req, map[string]string{"user-id": "st1"})
	w := httptest.NewRecorder()
	UpdateUserService(svc, w, withUser(req, manager("s1")))

	assert.Equal(t, http.StatusOK, w.Code)
	api.AssertExpectations(t)
}

func TestDeleteUserService(t *testing.T) {
	t.Run("other school", func(t *testing.T) {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		api.On("GetUser", mock.Anything, "tok", "st2").
			Return(&models.User{ID: "st2", Type: models.Student, School: &models.SchoolRef{ID: "s2"}}, nil)

		req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/users/st2", nil), map[string]string{"user-id": "st2"})
		w := httptest.NewRecorder()
		DeleteUserService(svc, w, withUser(req, manager("s1")))

		assert.Equal(t, http.StatusForbidden, w.Code)
		api.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("not found upstream", func(t *testing.T) {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		api.On("GetUser", mock.Anything, "tok", "gone").
			Return(nil, &HTTPError{Status: http.StatusNotFound, Message: "User not found"})

		req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/users/gone", nil), map[string]string{"user-id": "gone"})
		w := httptest.NewRecorder()
		DeleteUserService(svc, w, withUser(req, admin()))

		assert.Equal(t, http.StatusNotFound, w.Code)
		env := readEnvelope(t, w, nil)
		assert.Equal(t, "User not found", env.ErrorDetails)
	})

	t.Run("success", func(t *testing.T) {
		api := new(MockLemoAPI)
		svc := newTestService(api)

		api.On("GetUser", mock.Anything, "tok", "m2").
			Return(&models.User{ID: "m2", Type: models.SchoolManager}, nil)
		api.On("DeleteUser", mock.Anything, "tok", "m2").Return(nil)

		req := mux.SetURLVars(httptest.NewRequest(http.MethodDelete, "/api/users/m2", nil), map[string]string{"user-id": "m2"})
		w := httptest.NewRecorder()
		DeleteUserService(svc, w, withUser(req, admin()))

		assert.Equal(t, http.StatusNoContent, w.Code)
		api.AssertExpectations(t)
	})
}
