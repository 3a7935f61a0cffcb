package services

import (
	"context"
	"io"

	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/stretchr/testify/mock"
)

type MockLemoAPI struct {
	mock.Mock
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockLemoAPI) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockLemoAPI) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	args := m.Called(ctx, req)
	resp, _ := args.Get(0).(*models.LoginResponse)
	return resp, args.Error(1)
}

func (m *MockLemoAPI) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockLemoAPI) GetMe(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockLemoAPI) UpdateMe(ctx context.Context, token string, update models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, token, update)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockLemoAPI) ListUsers(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.User], error) {
	args := m.Called(ctx, token, q)
	page, _ := args.Get(0).(*models.Page[models.User])
	return page, args.Error(1)
}

func (m *MockLemoAPI) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	args := m.Called(ctx, token, id)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockLemoAPI) CreateStaff(ctx context.Context, token string, staff models.NewStaff) (*models.User, error) {
	args := m.Called(ctx, token, staff)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockLemoAPI) UpdateUser(ctx context.Context, token, id string, update models.UserUpdate) (*models.User, error) {
	args := m.Called(ctx, token, id, update)
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockLemoAPI) DeleteUser(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockLemoAPI) CreateSchool(ctx context.Context, token string, school models.NewSchool) (*models.School, error) {
	args := m.Called(ctx, token, school)
	created, _ := args.Get(0).(*models.School)
	return created, args.Error(1)
}

func (m *MockLemoAPI) ListSchools(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.School], error) {
	args := m.Called(ctx, token, q)
	page, _ := args.Get(0).(*models.Page[models.School])
	return page, args.Error(1)
}

func (m *MockLemoAPI) UpdateSchool(ctx context.Context, token, id string, update models.SchoolUpdate) (*models.School, error) {
	args := m.Called(ctx, token, id, update)
	school, _ := args.Get(0).(*models.School)
	return school, args.Error(1)
}

func (m *MockLemoAPI) DeleteSchool(ctx context.Context, token, id string) error {
	args := m.Called(ctx, token, id)
	return args.Error(0)
}

func (m *MockLemoAPI) ConnectSchool(ctx context.Context, token string, req models.ConnectSchoolRequest) error {
	args := m.Called(ctx, token, req)
	return args.Error(0)
}

func (m *MockLemoAPI) GenerateQR(ctx context.Context, token, id string) (*models.QRCode, error) {
	args := m.Called(ctx, token, id)
	qr, _ := args.Get(0).(*models.QRCode)
	return qr, args.Error(1)
}

func (m *MockLemoAPI) UploadFile(ctx context.Context, token, filename string, content io.Reader) (*models.UploadedFile, error) {
	args := m.Called(ctx, token, filename, content)
	uploaded, _ := args.Get(0).(*models.UploadedFile)
	return uploaded, args.Error(1)
}

func (m *MockLemoAPI) ListBlockRequests(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.BlockRequest], error) {
	args := m.Called(ctx, token, q)
	page, _ := args.Get(0).(*models.Page[models.BlockRequest])
	return page, args.Error(1)
}

func (m *MockLemoAPI) GetBlockRequest(ctx context.Context, token, id string) (*models.BlockRequest, error) {
	args := m.Called(ctx, token, id)
	req, _ := args.Get(0).(*models.BlockRequest)
	return req, args.Error(1)
}

func (m *MockLemoAPI) CreateBlockRequest(ctx context.Context, token string, req models.NewBlockRequest) (*models.BlockRequest, error) {
	args := m.Called(ctx, token, req)
	created, _ := args.Get(0).(*models.BlockRequest)
	return created, args.Error(1)
}

func (m *MockLemoAPI) DecideBlockRequest(ctx context.Context, token, id string, decision models.Decision) (*models.BlockRequest, error) {
	args := m.Called(ctx, token, id, decision)
	updated, _ := args.Get(0).(*models.BlockRequest)
	return updated, args.Error(1)
}

func (m *MockNotifier) Notify(ctx context.Context, event events.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockNotifier) Close() {
	m.Called()
}
