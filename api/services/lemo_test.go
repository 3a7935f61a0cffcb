package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *LemoClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewLemoClient(srv.URL+"/", srv.Client())
}

func TestLemoClient_Login(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body models.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "jane@example.com", body.Email)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token":"tok","user":{"_id":"u1","email":"jane@example.com","type":"admin"}}`))
	})

	resp, err := client.Login(context.Background(), models.LoginRequest{Email: "jane@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, models.Admin, resp.User.Type)
}

func TestLemoClient_ErrorMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})

	_, err := client.Login(context.Background(), models.LoginRequest{Email: "a@b.co", Password: "x"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
	assert.Equal(t, "Invalid credentials", httpErr.Message)
}

func TestLemoClient_ErrorWithoutMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<html>oops</html>`))
	})

	err := client.DeleteSchool(context.Background(), "tok", "s1")

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusText(http.StatusInternalServerError), httpErr.Message)
}

func TestLemoClient_BearerTokenAndRequestID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "req-1", r.Header.Get(middleware.RequestIDHeader))
		w.Write([]byte(`{"data":{"_id":"u1","type":"school_manager","school":{"_id":"s1","school_name":"North"}}}`))
	})

	ctx := context.Background()
	var captured context.Context
	middleware.WithLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Context()
	})).ServeHTTP(httptest.NewRecorder(), func() *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		req.Header.Set(middleware.RequestIDHeader, "req-1")
		return req
	}())

	user, err := client.GetMe(captured, "tok")
	require.NoError(t, err)
	assert.Equal(t, "s1", user.SchoolID())
	assert.Equal(t, "North", user.School.Name)
}

func TestLemoClient_ListUsersQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/all", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "student", q.Get("type"))
		assert.Equal(t, "s1", q.Get("school"))
		assert.Equal(t, "ann", q.Get("search"))
		assert.False(t, q.Has("order"))
		w.Write([]byte(`{"data":[{"_id":"u1","type":"student"}],"total":11,"page":2,"limit":10,"totalPages":2}`))
	})

	page, err := client.ListUsers(context.Background(), "tok", models.ListQuery{
		Page: 2, Limit: 10, Search: "ann", Type: models.Student, School: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	assert.Len(t, page.Data, 1)
}

func TestLemoClient_ListAcceptsBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"s1","school_name":"North"},{"_id":"s2","school_name":"South"}]`))
	})

	page, err := client.ListSchools(context.Background(), "tok", models.ListQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "South", page.Data[1].Name)
}

func TestLemoClient_DecideBlockRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/block-requests/r1", r.URL.Path)

		var decision models.Decision
		require.NoError(t, json.NewDecoder(r.Body).Decode(&decision))
		assert.Equal(t, models.StatusRejected, decision.Status)
		assert.Equal(t, "not harmful", decision.RejectionReason)

		w.Write([]byte(`{"_id":"r1","site_url":"https://x.test","status":"rejected","rejectionReason":"not harmful","updatedAt":"2024-05-01T10:00:00Z"}`))
	})

	updated, err := client.DecideBlockRequest(context.Background(), "tok", "r1",
		models.Decision{Status: models.StatusRejected, RejectionReason: "not harmful"})
	require.NoError(t, err)

	state, err := updated.State()
	require.NoError(t, err)
	rejected, ok := state.(models.Rejected)
	require.True(t, ok)
	assert.Equal(t, "not harmful", rejected.Reason)
}

func TestLemoClient_UploadFile(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		content, _ := io.ReadAll(file)
		assert.Equal(t, "logo.png", header.Filename)
		assert.Equal(t, "png-bytes", string(content))

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"url":"https://cdn.test/logo.png"}`))
	})

	uploaded, err := client.UploadFile(context.Background(), "tok", "logo.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/logo.png", uploaded.URL)
}

func TestLemoClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	client := NewLemoClient(srv.URL, srv.Client())
	srv.Close()

	_, err := client.GetMe(context.Background(), "tok")
	require.Error(t, err)

	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}
