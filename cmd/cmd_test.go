package cmd

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lemo-app/lemo-dashboard/api/services"
	"github.com/lemo-app/lemo-dashboard/internal/appconfig"
	"github.com/lemo-app/lemo-dashboard/internal/cache"
	"github.com/lemo-app/lemo-dashboard/internal/events"
	"github.com/lemo-app/lemo-dashboard/internal/prefs"
	"github.com/lemo-app/lemo-dashboard/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPromptCredentials_FromPipe(t *testing.T) {
	var out bytes.Buffer
	req, err := promptCredentials(strings.NewReader("jane@example.com\nsecret 123\n"), &out, "")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", req.Email)
	assert.Equal(t, "secret 123", req.Password)
	assert.Equal(t, "Email: Password: ", out.String())
}

func TestPromptCredentials_EmailFlag(t *testing.T) {
	req, err := promptCredentials(strings.NewReader("secret123"), &bytes.Buffer{}, "jane@example.com")
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", req.Email)
	assert.Equal(t, "secret123", req.Password)
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lemo", "token")

	_, err := loadToken(path)
	assert.ErrorIs(t, err, errNotLoggedIn)

	require.NoError(t, saveToken(path, "tok"))
	token, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestDecideRequest_MovesRequestToApproved(t *testing.T) {
	api := new(services.MockLemoAPI)

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	pending := models.BlockRequest{ID: "r1", SiteURL: "https://games.test", Status: models.StatusPending}
	other := models.BlockRequest{ID: "r2", SiteURL: "https://chat.test", Status: models.StatusPending}
	approved := pending
	approved.Status = models.StatusApproved
	approved.UpdatedAt = now

	api.On("ListBlockRequests", mock.Anything, "tok", models.ListQuery{Status: models.StatusPending, Limit: models.MaxPageSize}).
		Return(&models.Page[models.BlockRequest]{Data: []models.BlockRequest{pending, other}, Total: 2}, nil)
	api.On("DecideBlockRequest", mock.Anything, "tok", "r1", models.Decision{Status: models.StatusApproved}).
		Return(&approved, nil)

	board, err := decideRequest(context.Background(), api, "tok", "r1", models.Decision{Status: models.StatusApproved})
	require.NoError(t, err)

	assert.Equal(t, []models.BlockRequest{other}, board.Pending)
	require.Len(t, board.Approved, 1)
	assert.Equal(t, now, board.Approved[0].UpdatedAt)
	api.AssertNotCalled(t, "GetBlockRequest", mock.Anything, mock.Anything, mock.Anything)
}

func TestDecideRequest_NotPending(t *testing.T) {
	api := new(services.MockLemoAPI)

	api.On("ListBlockRequests", mock.Anything, "tok", mock.Anything).
		Return(&models.Page[models.BlockRequest]{Data: []models.BlockRequest{}}, nil)
	api.On("GetBlockRequest", mock.Anything, "tok", "r1").
		Return(&models.BlockRequest{ID: "r1", Status: models.StatusApproved}, nil)

	_, err := decideRequest(context.Background(), api, "tok", "r1", models.Decision{Status: models.StatusRejected, RejectionReason: "x"})
	assert.EqualError(t, err, "block request r1 is already approved")
	api.AssertNotCalled(t, "DecideBlockRequest", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPrintBoard(t *testing.T) {
	board := models.NewBoard([]models.BlockRequest{
		{ID: "r1", SiteURL: "https://games.test", Reason: "distracting", Status: models.StatusPending,
			School: &models.SchoolRef{ID: "s1", Name: "North"}},
		{ID: "r2", SiteURL: "https://chat.test", Status: models.StatusRejected, RejectionReason: "needed for class"},
	})

	var out bytes.Buffer
	require.NoError(t, printBoard(&out, board))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "pending")
	assert.Contains(t, lines[1], "North")
	assert.Contains(t, lines[2], "needed for class")
}

func TestInitializeProfileCache_Memory(t *testing.T) {
	profiles, closeCache, err := initializeProfileCache(appconfig.CacheConfig{TTL: time.Minute})
	require.NoError(t, err)
	defer closeCache()

	_, ok := profiles.(*cache.Memory)
	assert.True(t, ok)
}

func TestInitializePublisher_Disabled(t *testing.T) {
	publisher, err := initializePublisher(appconfig.PulsarConfig{})
	require.NoError(t, err)
	assert.Equal(t, events.NopNotifier{}, publisher)
}

func TestListQuery_ClampsLimit(t *testing.T) {
	listFlags.limit = 500
	listFlags.page = 2
	defer func() { listFlags.limit, listFlags.page = models.DefaultPageSize, 1 }()

	q := listQuery()
	assert.Equal(t, models.MaxPageSize, q.Limit)
	assert.Equal(t, 2, q.Page)
}

func TestNewService_ClosesStoreWhenStartupFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.db")
	cfg := &appconfig.Config{
		Preferences: appconfig.PreferencesConfig{Path: path},
		Cache:       appconfig.CacheConfig{RedisAddr: "127.0.0.1:1", TTL: time.Minute},
	}

	_, _, err := newService(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize profile cache")

	// The store lock has been released
	store, err := prefs.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestNewService_CleanupReleasesResources(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.db")
	cfg := &appconfig.Config{
		API:         appconfig.APIConfig{URL: "http://lemo.test", Timeout: time.Second},
		Preferences: appconfig.PreferencesConfig{Path: path},
		Cache:       appconfig.CacheConfig{TTL: time.Minute},
	}

	service, cleanup, err := newService(cfg)
	require.NoError(t, err)
	assert.Equal(t, events.NopNotifier{}, service.Publisher)
	assert.NotNil(t, service.Metrics)
	cleanup()

	store, err := prefs.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

type scriptedReceiver struct {
	results []error
	calls   atomic.Int32
}

func (s *scriptedReceiver) Receive(ctx context.Context) (events.AuditEvent, error) {
	n := int(s.calls.Add(1))
	if n <= len(s.results) {
		if err := s.results[n-1]; err != nil {
			return events.AuditEvent{}, err
		}
		return events.AuditEvent{Action: events.ActionStaffCreated, ResourceID: "u9"}, nil
	}
	<-ctx.Done()
	return events.AuditEvent{}, ctx.Err()
}

func TestTailEvents_BacksOffBetweenFailures(t *testing.T) {
	broken := errors.New("connection closed")
	receiver := &scriptedReceiver{results: []error{broken, broken, broken, nil}}

	ctx, cancel := context.WithCancel(context.Background())
	var out bytes.Buffer
	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- tailEvents(ctx, receiver, &out, 10*time.Millisecond, 20*time.Millisecond) }()

	require.Eventually(t, func() bool { return receiver.calls.Load() > 4 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// 10ms, then 20ms twice once the cap is reached
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.JSONEq(t, `{"action":"staff.created","actorId":"","actorType":"","resourceId":"u9","timestamp":0}`, out.String())
}

func TestTailEvents_StopsWhileWaiting(t *testing.T) {
	receiver := &scriptedReceiver{results: []error{errors.New("connection closed")}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	require.NoError(t, tailEvents(ctx, receiver, &bytes.Buffer{}, time.Hour, time.Hour))
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, int32(1), receiver.calls.Load())
}
