package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/lemo-app/lemo-dashboard/api/middleware"
	"github.com/lemo-app/lemo-dashboard/models"
)

// LemoAPI is the part of the Lemo REST API the dashboard consumes. Calls
// that act on behalf of a signed-in user take that user's bearer token.
type LemoAPI interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.User, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error

	GetMe(ctx context.Context, token string) (*models.User, error)
	UpdateMe(ctx context.Context, token string, update models.UserUpdate) (*models.User, error)
	ListUsers(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.User], error)
	GetUser(ctx context.Context, token, id string) (*models.User, error)
	CreateStaff(ctx context.Context, token string, staff models.NewStaff) (*models.User, error)
	UpdateUser(ctx context.Context, token, id string, update models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, token, id string) error

	CreateSchool(ctx context.Context, token string, school models.NewSchool) (*models.School, error)
	ListSchools(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.School], error)
	UpdateSchool(ctx context.Context, token, id string, update models.SchoolUpdate) (*models.School, error)
	DeleteSchool(ctx context.Context, token, id string) error
	ConnectSchool(ctx context.Context, token string, req models.ConnectSchoolRequest) error
	GenerateQR(ctx context.Context, token, id string) (*models.QRCode, error)
	UploadFile(ctx context.Context, token, filename string, content io.Reader) (*models.UploadedFile, error)

	ListBlockRequests(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.BlockRequest], error)
	GetBlockRequest(ctx context.Context, token, id string) (*models.BlockRequest, error)
	CreateBlockRequest(ctx context.Context, token string, req models.NewBlockRequest) (*models.BlockRequest, error)
	DecideBlockRequest(ctx context.Context, token, id string, decision models.Decision) (*models.BlockRequest, error)
}

// LemoClient is a client for interacting with the Lemo REST API.
type LemoClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// HTTPError is a non-2xx answer from the API. Message is the server-supplied
// message when there is one.
type HTTPError struct {
	Message string
	Status  int
}

func (e *HTTPError) Error() string {
	return e.Message
}

// StatusCode returns the upstream HTTP status.
func (e *HTTPError) StatusCode() int {
	return e.Status
}

// apiError is the error body the API sends.
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewLemoClient creates a new instance of LemoClient.
func NewLemoClient(baseURL string, httpClient *http.Client) *LemoClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &LemoClient{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: httpClient,
	}
}

// Signup creates a new account.
func (c *LemoClient) Signup(ctx context.Context, req models.SignupRequest) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", "", nil, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *LemoClient) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", nil, req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errors.New("login response did not contain a token")
	}
	return &resp, nil
}

// VerifyEmail confirms an email address.
func (c *LemoClient) VerifyEmail(ctx context.Context, req models.VerifyEmailRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/verify-email", "", nil, req, nil)
}

// GetMe retrieves the owner of token.
func (c *LemoClient) GetMe(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/me", token, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateMe changes the profile of the owner of token.
func (c *LemoClient) UpdateMe(ctx context.Context, token string, update models.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPatch, "/users/me", token, nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers retrieves a page of users.
func (c *LemoClient) ListUsers(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.User], error) {
	return getPage[models.User](ctx, c, "/users/all", token, q)
}

// GetUser retrieves a single user.
func (c *LemoClient) GetUser(ctx context.Context, token, id string) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+url.PathEscape(id), token, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateStaff creates a staff account on behalf of the owner of token.
func (c *LemoClient) CreateStaff(ctx context.Context, token string, staff models.NewStaff) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", token, nil, staff, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser changes another user's account.
func (c *LemoClient) UpdateUser(ctx context.Context, token, id string, update models.UserUpdate) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, http.MethodPatch, "/users/"+url.PathEscape(id), token, nil, update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser deletes a user.
func (c *LemoClient) DeleteUser(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), token, nil, nil, nil)
}

// CreateSchool creates a new school.
func (c *LemoClient) CreateSchool(ctx context.Context, token string, school models.NewSchool) (*models.School, error) {
	var created models.School
	if err := c.doJSON(ctx, http.MethodPost, "/schools/create", token, nil, school, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// ListSchools retrieves a page of schools.
func (c *LemoClient) ListSchools(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.School], error) {
	return getPage[models.School](ctx, c, "/schools", token, q)
}

// UpdateSchool replaces the given fields of a school.
func (c *LemoClient) UpdateSchool(ctx context.Context, token, id string, update models.SchoolUpdate) (*models.School, error) {
	var school models.School
	if err := c.doJSON(ctx, http.MethodPut, "/schools/"+url.PathEscape(id), token, nil, update, &school); err != nil {
		return nil, err
	}
	return &school, nil
}

// DeleteSchool deletes a school.
func (c *LemoClient) DeleteSchool(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/schools/"+url.PathEscape(id), token, nil, nil, nil)
}

// ConnectSchool attaches a user to a school.
func (c *LemoClient) ConnectSchool(ctx context.Context, token string, req models.ConnectSchoolRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/schools/connect", token, nil, req, nil)
}

// GenerateQR asks the API to (re)generate the QR code of a school.
func (c *LemoClient) GenerateQR(ctx context.Context, token, id string) (*models.QRCode, error) {
	var qr models.QRCode
	if err := c.doJSON(ctx, http.MethodGet, "/schools/generate-qr/"+url.PathEscape(id), token, nil, nil, &qr); err != nil {
		return nil, err
	}
	return &qr, nil
}

// UploadFile uploads content as a multipart form and returns its hosted URL.
func (c *LemoClient) UploadFile(ctx context.Context, token, filename string, content io.Reader) (*models.UploadedFile, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	respBody, _, err := c.makeRequest(ctx, http.MethodPost, "/files/upload", token, nil, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}

	var uploaded models.UploadedFile
	if err := decode(respBody, &uploaded); err != nil {
		return nil, err
	}
	if uploaded.URL == "" {
		return nil, errors.New("upload response did not contain a url")
	}
	return &uploaded, nil
}

// ListBlockRequests retrieves a page of block requests.
func (c *LemoClient) ListBlockRequests(ctx context.Context, token string, q models.ListQuery) (*models.Page[models.BlockRequest], error) {
	return getPage[models.BlockRequest](ctx, c, "/block-requests", token, q)
}

// GetBlockRequest retrieves a single block request.
func (c *LemoClient) GetBlockRequest(ctx context.Context, token, id string) (*models.BlockRequest, error) {
	var req models.BlockRequest
	if err := c.doJSON(ctx, http.MethodGet, "/block-requests/"+url.PathEscape(id), token, nil, nil, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// CreateBlockRequest files a new block request.
func (c *LemoClient) CreateBlockRequest(ctx context.Context, token string, newReq models.NewBlockRequest) (*models.BlockRequest, error) {
	var req models.BlockRequest
	if err := c.doJSON(ctx, http.MethodPost, "/block-requests", token, nil, newReq, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecideBlockRequest approves or rejects a block request.
func (c *LemoClient) DecideBlockRequest(ctx context.Context, token, id string, decision models.Decision) (*models.BlockRequest, error) {
	var req models.BlockRequest
	if err := c.doJSON(ctx, http.MethodPatch, "/block-requests/"+url.PathEscape(id), token, nil, decision, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func getPage[T any](ctx context.Context, c *LemoClient, path, token string, q models.ListQuery) (*models.Page[T], error) {
	respBody, _, err := c.makeRequest(ctx, http.MethodGet, path, token, q.Values(), "", nil)
	if err != nil {
		return nil, err
	}

	// Unpaginated endpoints answer with a bare array
	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		return &models.Page[T]{Data: items, Total: len(items), Page: 1, Limit: len(items), TotalPages: 1}, nil
	}

	var page models.Page[T]
	if err := json.Unmarshal(trimmed, &page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if page.Data == nil {
		page.Data = []T{}
	}
	return &page, nil
}

func (c *LemoClient) doJSON(ctx context.Context, method, path, token string, query url.Values, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	respBody, _, err := c.makeRequest(ctx, method, path, token, query, contentType, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(respBody, out)
}

// decode unmarshals a response into out, unwrapping a {"data": ...} envelope
// when the API sends one.
func decode(respBody []byte, out interface{}) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	trimmed := bytes.TrimSpace(respBody)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && envelope.Data[0] == '{' {
			trimmed = envelope.Data
		}
	}

	if err := json.Unmarshal(trimmed, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Helper function for making HTTP requests to the Lemo API.
func (c *LemoClient) makeRequest(ctx context.Context, method, path, token string, query url.Values, contentType string, body io.Reader) ([]byte, int, error) {
	target := c.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if requestID := middleware.RequestID(ctx); requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		return respBody, resp.StatusCode, &HTTPError{Message: errorMessage(resp, respBody), Status: resp.StatusCode}
	}

	return respBody, resp.StatusCode, nil
}

func errorMessage(resp *http.Response, body []byte) string {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) < 200 && !strings.HasPrefix(text, "<") {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
