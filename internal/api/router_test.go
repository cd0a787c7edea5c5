package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangamlabs/sangam/internal/api"
	"github.com/sangamlabs/sangam/internal/api/middleware"
	"github.com/sangamlabs/sangam/internal/api/models"
	"github.com/sangamlabs/sangam/internal/device"
	"github.com/sangamlabs/sangam/internal/engagement"
	"github.com/sangamlabs/sangam/internal/member"
	"github.com/sangamlabs/sangam/internal/notification"
	"github.com/sangamlabs/sangam/internal/viewledger"
)

const testSigningKey = "test-secret-key-for-testing-only"

// syncRunner executes broadcasts inline so the admin endpoint can be
// exercised without a queue.
type syncRunner struct {
	titles []string
}

func (r *syncRunner) Run(_ context.Context, title, _, _ string) (int, int, error) {
	r.titles = append(r.titles, title)
	return 4, 1, nil
}

type testEnv struct {
	router http.Handler
	ledger *viewledger.InMemoryRepository
	outbox *notification.Service
	runner *syncRunner
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	members := member.NewInMemoryRepository()
	for _, id := range []string{"mem_viewer", "mem_target", "mem_admin"} {
		members.Put(&member.Member{ID: id, IsActive: true})
	}
	directory := member.NewDirectory(members)

	ledgerRepo := viewledger.NewInMemoryRepository()
	outbox := notification.NewService(notification.ServiceConfig{
		Repository: notification.NewInMemoryRepository(),
		Logger:     logger,
	})
	runner := &syncRunner{}

	router := api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    logger,
		Verifier:  middleware.NewVerifier(middleware.VerifierConfig{SigningKey: testSigningKey}),
		ViewLedger: viewledger.NewService(viewledger.ServiceConfig{
			Repository: ledgerRepo,
			Directory:  directory,
			Emitter:    outbox,
			Logger:     logger,
		}),
		EngagementService: engagement.NewService(engagement.ServiceConfig{
			Repository: engagement.NewInMemoryRepository(),
			Directory:  directory,
			Emitter:    outbox,
			Logger:     logger,
		}),
		NotificationService: outbox,
		DeviceService:       device.NewService(device.NewInMemoryRepository(), logger),
		BroadcastRunner:     runner,
	})

	return &testEnv{router: router, ledger: ledgerRepo, outbox: outbox, runner: runner}
}

func mintToken(t *testing.T, memberID, role string) string {
	t.Helper()

	claims := middleware.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role: role,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodGet, "/v1/ops/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
}

func TestRouter_ReadinessCheck(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodGet, "/v1/ops/ready", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodGet, "/v1/notifications", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.ProblemTypeUnauthorized, problem.Type)
	assert.NotEmpty(t, problem.TraceID)
}

func TestRouter_UnlockProfileView(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.SetBalance("mem_viewer", 2)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPost, "/v1/profile-views", token,
		models.ProfileViewRequest{TargetID: "mem_target"})

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.ProfileViewResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Unlocked)
	assert.False(t, result.AlreadyUnlocked)
	assert.Equal(t, 1, result.RemainingTokens)

	// Second unlock of the same profile is free.
	w = doJSON(t, env.router, http.MethodPost, "/v1/profile-views", token,
		models.ProfileViewRequest{TargetID: "mem_target"})

	assert.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.AlreadyUnlocked)
	assert.Equal(t, 1, result.RemainingTokens)
}

func TestRouter_UnlockProfileView_InsufficientTokens(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPost, "/v1/profile-views", token,
		models.ProfileViewRequest{TargetID: "mem_target"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
	assert.Equal(t, models.CodeInsufficientTokens, problem.Code)
}

func TestRouter_ListViewers(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.SetBalance("mem_viewer", 1)

	w := doJSON(t, env.router, http.MethodPost, "/v1/profile-views",
		mintToken(t, "mem_viewer", ""), models.ProfileViewRequest{TargetID: "mem_target"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodGet, "/v1/profile-views/viewers",
		mintToken(t, "mem_target", ""), nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var viewers models.ProfileViewers
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &viewers))
	require.Len(t, viewers.Items, 1)
	assert.Equal(t, "mem_viewer", viewers.Items[0].ViewerID)
}

func TestRouter_UpsertEngagementAction(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPost, "/v1/engagement-actions", token,
		models.EngagementActionRequest{TargetID: "mem_target", Kind: "interest"})

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.EngagementActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Created)
	assert.Equal(t, "interest", result.Action.Kind)
	assert.NotEmpty(t, result.Action.ID)

	// The target's outbox picked it up.
	w = doJSON(t, env.router, http.MethodGet, "/v1/notifications",
		mintToken(t, "mem_target", ""), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var list models.Notifications
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, string(notification.KindInterestReceived), list.Items[0].Kind)
}

func TestRouter_UpsertEngagementAction_InvalidKind(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodPost, "/v1/engagement-actions",
		mintToken(t, "mem_viewer", ""),
		models.EngagementActionRequest{TargetID: "mem_target", Kind: "wink"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_WithdrawEngagementAction(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPost, "/v1/engagement-actions", token,
		models.EngagementActionRequest{TargetID: "mem_target", Kind: "shortlist"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, env.router, http.MethodDelete, "/v1/engagement-actions", token,
		models.EngagementActionRequest{TargetID: "mem_target", Kind: "shortlist"})

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.EngagementWithdrawResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Found)
}

func TestRouter_MarkNotificationRead(t *testing.T) {
	env := newTestEnv(t)

	n, err := env.outbox.Emit(context.Background(), "mem_viewer", "",
		notification.KindSystem, "title", "body", "")
	require.NoError(t, err)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPut, "/v1/notifications/"+n.ID+"/read", token, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.MarkReadResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Found)

	w = doJSON(t, env.router, http.MethodGet, "/v1/notifications/unread-count", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count models.UnreadCountResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &count))
	assert.Equal(t, int64(0), count.Count)
}

func TestRouter_RegisterDevice(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPost, "/v1/devices", token,
		models.DeviceRegisterRequest{Platform: "mobile", Token: "tok_abcdef123456", DeviceLabel: "Pixel 8"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var dev models.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dev))
	assert.NotEmpty(t, dev.ID)
	assert.Equal(t, "3456", dev.TokenLast4)

	// Re-registering the same token refreshes instead of creating.
	w = doJSON(t, env.router, http.MethodPost, "/v1/devices", token,
		models.DeviceRegisterRequest{Platform: "mobile", Token: "tok_abcdef123456"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_UnregisterDevice(t *testing.T) {
	env := newTestEnv(t)
	token := mintToken(t, "mem_viewer", "")

	w := doJSON(t, env.router, http.MethodPost, "/v1/devices", token,
		models.DeviceRegisterRequest{Platform: "web", Token: "tok_web_99887766"})
	require.Equal(t, http.StatusCreated, w.Code)

	var dev models.Device
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dev))

	w = doJSON(t, env.router, http.MethodDelete, "/v1/devices/"+dev.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, env.router, http.MethodDelete, "/v1/devices/"+dev.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_AdminBroadcast(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodPost, "/v1/admin/broadcasts",
		mintToken(t, "mem_admin", middleware.RoleAdmin),
		models.BroadcastRequest{Title: "Maintenance", Body: "Back soon.", Target: "all"})

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.BroadcastResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "all", result.Target)
	assert.Equal(t, 4, result.SentCount)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, []string{"Maintenance"}, env.runner.titles)
}

func TestRouter_AdminBroadcast_Forbidden(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodPost, "/v1/admin/broadcasts",
		mintToken(t, "mem_viewer", ""),
		models.BroadcastRequest{Title: "t", Body: "b", Target: "all"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, env.runner.titles)
}

func TestRouter_AdminBroadcast_UnknownTarget(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodPost, "/v1/admin/broadcasts",
		mintToken(t, "mem_admin", middleware.RoleAdmin),
		models.BroadcastRequest{Title: "t", Body: "b", Target: "everyone"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_RequestID_Preserved(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/ops/health", http.NoBody)
	req.Header.Set("X-Request-Id", "custom_request_id")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)

	assert.Equal(t, "custom_request_id", w.Header().Get("X-Request-Id"))
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	w := doJSON(t, env.router, http.MethodGet, "/v1/nonexistent", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
