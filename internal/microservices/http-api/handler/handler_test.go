package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"schooladmin/internal/config"
	"schooladmin/internal/ingestion/consultations"
	"schooladmin/internal/logger"
	"schooladmin/internal/microservices/http-api/dto"
	"schooladmin/internal/microservices/http-api/models"
	"schooladmin/internal/microservices/http-api/service"
	"schooladmin/internal/microservices/websocket"
	"schooladmin/internal/notification"
	"schooladmin/internal/table"
)

// MockConsultationService mocks the ConsultationService interface
type MockConsultationService struct {
	mock.Mock
}

func (m *MockConsultationService) List(ctx context.Context, query table.ListQuery) (table.Page[models.Consultation], error) {
	args := m.Called(query)
	return args.Get(0).(table.Page[models.Consultation]), args.Error(1)
}

func (m *MockConsultationService) Recent(ctx context.Context, limit int) ([]notification.Consultation, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Consultation), args.Error(1)
}

func (m *MockConsultationService) Get(ctx context.Context, id uint64) (*models.Consultation, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Consultation), args.Error(1)
}

type stubRefresher struct {
	added int
	err   error
}

func (s *stubRefresher) Refresh(context.Context) (int, error) { return s.added, s.err }

type testEnv struct {
	router    *gin.Engine
	agg       *notification.Aggregator
	svc       *MockConsultationService
	refresher *stubRefresher
	auth      service.AuthService
	token     string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	agg := notification.NewAggregator(logger.Discard())
	agg.IngestConsultations([]notification.Consultation{{
		ID:        1,
		Name:      "Ann",
		Email:     "ann@example.com",
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Course:    notification.Course{Menu: notification.Menu{Name: "IELTS"}},
	}})

	auth := service.NewAuthService(&config.Config{JWTSecret: "0123456789abcdef0123456789abcdef", AccessTokenTTL: time.Hour})
	token, err := auth.IssueAccessToken("ops", service.RoleAdmin, service.DefaultAdminScopes)
	require.NoError(t, err)

	env := &testEnv{
		agg:       agg,
		svc:       new(MockConsultationService),
		refresher: &stubRefresher{},
		auth:      auth,
		token:     token,
	}
	env.router = NewRouter(RouterDeps{
		Logger:        logger.Discard(),
		Auth:          auth,
		Notifications: service.NewNotificationService(agg),
		Consultations: env.svc,
		Refresher:     env.refresher,
		Hub:           websocket.NewHub(agg.Snapshot, logger.Discard()),
		Upgrader:      websocket.NewUpgrader(nil),
	})
	return env
}

func (e *testEnv) do(method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+e.token)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestAPI_RequiresAdminToken(t *testing.T) {
	env := setupEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	env.token = "not-a-jwt"
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/api/notifications").Code)

	viewer, err := env.auth.IssueAccessToken("intern", "viewer", nil)
	require.NoError(t, err)
	env.token = viewer
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodGet, "/api/notifications").Code)
}

func TestAPI_WriteRoutesRequireScopes(t *testing.T) {
	env := setupEnv(t)

	readOnly, err := env.auth.IssueAccessToken("auditor", service.RoleAdmin, []string{"notifications:read"})
	require.NoError(t, err)
	env.token = readOnly

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/notifications/consultation-1/consultation").Code)

	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/notifications/consultation-1/read").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPut, "/api/notifications/read-all").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodDelete, "/api/notifications").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/consultations/refresh").Code)
	assert.Equal(t, 1, env.agg.UnreadCount())

	exact, err := env.auth.IssueAccessToken("ops", service.RoleAdmin, []string{service.ScopeNotificationsWrite})
	require.NoError(t, err)
	env.token = exact
	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPut, "/api/notifications/read-all").Code)
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPost, "/api/consultations/refresh").Code)
}

func TestWebsocketRoute_Auth(t *testing.T) {
	env := setupEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// a valid query token passes auth and reaches the upgrader, which rejects a plain GET
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws/notifications?token="+env.token, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotifications_ListAndMarkRead(t *testing.T) {
	env := setupEnv(t)

	w := env.do(http.MethodGet, "/api/notifications")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[dto.NotificationListResponse](t, w)
	require.Len(t, body.Notifications, 1)
	assert.Equal(t, 1, body.UnreadCount)
	assert.False(t, body.IsConnected)
	assert.Equal(t, "consultation-1", body.Notifications[0].ID)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPut, "/api/notifications/consultation-1/read").Code)
	assert.Equal(t, 0, env.agg.UnreadCount())

	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPut, "/api/notifications/consultation-404/read").Code)
}

func TestNotifications_ReadAllAndClear(t *testing.T) {
	env := setupEnv(t)
	_, err := env.agg.Apply(notification.NewConsultationEvent{Consultation: notification.ConsultationPush{ID: 2, Name: "Ben"}})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodPut, "/api/notifications/read-all").Code)
	assert.Equal(t, 0, env.agg.UnreadCount())

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/notifications").Code)

	w := env.do(http.MethodGet, "/api/notifications")
	assert.JSONEq(t, `[]`, string(mustField(t, w, "notifications")))
}

func mustField(t *testing.T, w *httptest.ResponseRecorder, key string) json.RawMessage {
	t.Helper()
	fields := decode[map[string]json.RawMessage](t, w)
	raw, ok := fields[key]
	require.True(t, ok, "missing field %s", key)
	return raw
}

func TestNotifications_ConsultationDetail(t *testing.T) {
	env := setupEnv(t)

	w := env.do(http.MethodGet, "/api/notifications/consultation-1/consultation")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[notification.ConsultationDetail](t, w)
	assert.Equal(t, "IELTS", detail.MenuName)
	assert.Equal(t, "ann@example.com", detail.Email)

	env.agg.IngestConsultations(nil)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/notifications/consultation-1/consultation").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/notifications/nope/consultation").Code)
}

func TestConsultations_List(t *testing.T) {
	env := setupEnv(t)

	want := table.ListQuery{Page: 2, PageSize: 5, SortBy: "name", SortOrder: table.SortDesc, Search: "ann"}
	env.svc.On("List", want).Return(table.Page[models.Consultation]{
		Rows: []models.Consultation{{
			ID:     1,
			Name:   "Ann",
			Course: &models.Course{Name: "IELTS 7.0", Menu: &models.Menu{Name: "IELTS"}},
		}},
		TotalCount: 12,
	}, nil)

	w := env.do(http.MethodGet, "/api/consultations?page=2&page_size=5&sort_by=name&sort_order=desc&q=ann")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[dto.ConsultationListResponse](t, w)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "IELTS", body.Data[0].MenuName)
	assert.Equal(t, dto.PaginationMeta{
		Page: 2, PageSize: 5, Total: 12, TotalPages: 3, HasNext: true, HasPrevious: true,
	}, body.Pagination)
	env.svc.AssertExpectations(t)
}

func TestConsultations_ListRejectsBadQueries(t *testing.T) {
	env := setupEnv(t)

	for _, path := range []string{
		"/api/consultations?sort_by=password&sort_order=asc",
		"/api/consultations?sort_by=name&sort_order=sideways",
		"/api/consultations?sort_order=asc",
		"/api/consultations?page=-1",
		"/api/consultations?page_size=1000",
		"/api/consultations?page=abc",
	} {
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, path).Code, path)
	}
	env.svc.AssertNotCalled(t, "List", mock.Anything)
}

func TestConsultations_Get(t *testing.T) {
	env := setupEnv(t)
	env.svc.On("Get", uint64(1)).Return(&models.Consultation{ID: 1, Name: "Ann"}, nil)
	env.svc.On("Get", uint64(2)).Return(nil, service.ErrConsultationNotFound)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/consultations/1").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/consultations/2").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/consultations/x").Code)
}

func TestConsultations_Refresh(t *testing.T) {
	env := setupEnv(t)

	env.refresher.added = 3
	w := env.do(http.MethodPost, "/api/consultations/refresh")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, 3, decode[dto.RefreshResponse](t, w).Added)

	env.refresher.err = consultations.ErrRefreshThrottled
	assert.Equal(t, http.StatusTooManyRequests, env.do(http.MethodPost, "/api/consultations/refresh").Code)

	env.refresher.err = assert.AnError
	assert.Equal(t, http.StatusBadGateway, env.do(http.MethodPost, "/api/consultations/refresh").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := setupEnv(t)

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"status":"ok","push":"disconnected"}`, w.Body.String())

	env.agg.SetConnectionState(notification.Exhausted)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"degraded","push":"exhausted"}`, w.Body.String())

	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin_notifications_unread")
}

func TestRequestID_PassesThrough(t *testing.T) {
	env := setupEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}
