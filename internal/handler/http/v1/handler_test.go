package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/surakshita/internal/audit"
	auditmocks "github.com/shenikar/surakshita/internal/audit/mocks"
	"github.com/shenikar/surakshita/internal/auth"
	authmocks "github.com/shenikar/surakshita/internal/auth/mocks"
	"github.com/shenikar/surakshita/internal/config"
	"github.com/shenikar/surakshita/internal/models"
	"github.com/shenikar/surakshita/internal/ratelimit"
	"github.com/shenikar/surakshita/internal/service/mocks"
	"github.com/shenikar/surakshita/pkg/e"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	userToken     = "tok-user"
	operatorToken = "tok-operator"
)

type testDeps struct {
	incidents *mocks.MockIncidentService
	accounts  *mocks.MockAccountService
	dispatch  *mocks.MockDispatchService
	sessions  *authmocks.MockSessionStore
	operators *authmocks.MockOperatorVerifier
	audit     *auditmocks.MockRecorder
}

// newTestHandler создает Handler с мокированными сервисами и настоящими лимитерами в памяти
func newTestHandler(t *testing.T) (*Handler, *testDeps, *gin.Engine) {
	ctrl := gomock.NewController(t)
	d := &testDeps{
		incidents: mocks.NewMockIncidentService(ctrl),
		accounts:  mocks.NewMockAccountService(ctrl),
		dispatch:  mocks.NewMockDispatchService(ctrl),
		sessions:  authmocks.NewMockSessionStore(ctrl),
		operators: authmocks.NewMockOperatorVerifier(ctrl),
		audit:     auditmocks.NewMockRecorder(ctrl),
	}

	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{}) // Отключаем вывод логов в тестах

	cfg := &config.Config{
		SessionTTL:         30 * time.Minute,
		RegisterQuota:      config.Quota{Limit: 3, Window: time.Hour},
		LoginQuota:         config.Quota{Limit: 5, Window: time.Minute},
		OperatorLoginQuota: config.Quota{Limit: 5, Window: time.Minute},
		SOSQuota:           config.Quota{Limit: 1, Window: time.Minute},
	}

	handler := NewHandler(Deps{
		Incidents: d.incidents,
		Accounts:  d.accounts,
		Dispatch:  d.dispatch,
		Sessions:  d.sessions,
		Operators: d.operators,
		Limiter:   ratelimit.NewLimiter(ratelimit.NewMemoryCounter(nil), ratelimit.QuotasFromConfig(cfg)),
		Throttle:  ratelimit.NewThrottle(100, 100, time.Minute, nil),
		Audit:     d.audit,
	}, logger, cfg)

	// Настройка Gin роутера для тестов
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler.RegisterRoutes(router)

	return handler, d, router
}

// makeRequest - вспомогательная функция для выполнения HTTP-запросов
func makeRequest(router *gin.Engine, method, url string, body io.Reader, headers ...map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, h := range headers {
		for key, value := range h {
			req.Header.Set(key, value)
		}
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func cookie(token string) map[string]string {
	return map[string]string{"Cookie": SessionCookieName + "=" + token}
}

func jsonBody(t *testing.T, v any) io.Reader {
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

// asUser и asOperator привязывают токен cookie к идентичности
func asUser(d *testDeps) {
	d.sessions.EXPECT().Get(gomock.Any(), userToken).
		Return(&auth.Session{Token: userToken, Identity: auth.UserIdentity(7, "asha")}, nil).AnyTimes()
}

func asOperator(d *testDeps) {
	d.sessions.EXPECT().Get(gomock.Any(), operatorToken).
		Return(&auth.Session{Token: operatorToken, Identity: auth.OperatorIdentity("admin")}, nil).AnyTimes()
}

// captureAudit сохраняет записи аудита, отправленные middleware
func captureAudit(d *testDeps) *[]models.AuditEntry {
	entries := &[]models.AuditEntry{}
	d.audit.EXPECT().Record(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry models.AuditEntry) error {
			*entries = append(*entries, entry)
			return nil
		}).AnyTimes()
	return entries
}

func sampleIncident(id int64) *models.Incident {
	now := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	return &models.Incident{
		ID:           id,
		OwnerID:      7,
		IncidentType: "Theft",
		Description:  "Bag snatched near the bus stop",
		Latitude:     12.9716,
		Longitude:    77.5946,
		Status:       models.Status{Kind: models.StatusPending},
		Priority:     models.PriorityNormal,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestCreateIncident_Success(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	// Ожидания
	d.incidents.EXPECT().
		Report(gomock.Any(), int64(7), models.ReportInput{
			IncidentType: "Theft",
			Description:  "Bag snatched near the bus stop",
			Latitude:     "12.9716",
			Longitude:    "77.5946",
		}).
		Return(sampleIncident(11), nil).Times(1)

	// Действие
	body := `{"incident_type":"Theft","description":"Bag snatched near the bus stop","latitude":12.9716,"longitude":77.5946}`
	w := makeRequest(router, http.MethodPost, "/incidents", bytes.NewBufferString(body), cookie(userToken))

	// Проверки
	assert.Equal(t, http.StatusCreated, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.ID)
	assert.Equal(t, "Pending", resp.Status)
	assert.Equal(t, "Normal", resp.Priority)
	assert.False(t, resp.IsSOS)
}

func TestCreateIncident_CoordinatesAsStrings(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().
		Report(gomock.Any(), int64(7), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, in models.ReportInput) (*models.Incident, error) {
			assert.Equal(t, "12.97", in.Latitude)
			assert.Equal(t, "77.59", in.Longitude)
			return sampleIncident(12), nil
		}).Times(1)

	body := `{"incident_type":"Theft","description":"Bag snatched","latitude":"12.97","longitude":"77.59"}`
	w := makeRequest(router, http.MethodPost, "/incidents", bytes.NewBufferString(body), cookie(userToken))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateIncident_InvalidJSON(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().Report(gomock.Any(), gomock.Any(), gomock.Any()).Times(0) // Сервис не должен вызываться

	w := makeRequest(router, http.MethodPost, "/incidents", bytes.NewBufferString(`{"incident_type": "Theft"`), cookie(userToken))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request body"}`, w.Body.String())
}

func TestCreateIncident_UnknownIncidentType(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().Report(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	body := `{"incident_type":"Jaywalking","description":"x","latitude":12.9,"longitude":77.5}`
	w := makeRequest(router, http.MethodPost, "/incidents", bytes.NewBufferString(body), cookie(userToken))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Error, "Invalid incident type"))
}

func TestCreateIncident_OutsideServiceRegion(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	reason := "Services are currently only available within the configured service region."
	d.incidents.EXPECT().
		Report(gomock.Any(), int64(7), gomock.Any()).
		Return(nil, fmt.Errorf("service: could not report incident: %w", e.Invalid("location", reason))).Times(1)

	body := `{"incident_type":"Theft","description":"x","latitude":51.5,"longitude":-0.12}`
	w := makeRequest(router, http.MethodPost, "/incidents", bytes.NewBufferString(body), cookie(userToken))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"`+reason+`"}`, w.Body.String())
}

func TestUserRoute_Anonymous(t *testing.T) {
	_, d, router := newTestHandler(t)

	d.incidents.EXPECT().Report(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/incidents", bytes.NewBufferString(`{}`))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"login required","login":"/login"}`, w.Body.String())
}

func TestUserRoute_AnonymousBrowserRedirect(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/incidents", nil, map[string]string{"Accept": "text/html,application/xhtml+xml"})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, userLoginPath, w.Header().Get("Location"))
}

func TestUserRoute_UnknownTokenIsAnonymous(t *testing.T) {
	_, d, router := newTestHandler(t)

	d.sessions.EXPECT().Get(gomock.Any(), "expired").Return(nil, nil).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/incidents", nil, cookie("expired"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserRoute_OperatorSessionForbidden(t *testing.T) {
	_, d, router := newTestHandler(t)
	asOperator(d)

	d.incidents.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodGet, "/api/incidents", nil, cookie(operatorToken))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"user session required","login":"/login"}`, w.Body.String())
}

func TestSessionStoreError(t *testing.T) {
	_, d, router := newTestHandler(t)

	d.sessions.EXPECT().Get(gomock.Any(), userToken).Return(nil, errors.New("redis down")).Times(1)
	d.incidents.EXPECT().List(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodGet, "/incidents", nil, cookie(userToken))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestListIncidents_StatusFilter(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().
		List(gomock.Any(), int64(7), "resolved").
		Return([]*models.Incident{sampleIncident(3)}, nil).Times(1)

	w := makeRequest(router, http.MethodGet, "/incidents?status=resolved", nil, cookie(userToken))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Len(t, resp.Incidents, 1)
}

func TestListIncidents_InvalidFilter(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().
		List(gomock.Any(), int64(7), "closed").
		Return(nil, e.Invalid("status", "Invalid status filter")).Times(1)

	w := makeRequest(router, http.MethodGet, "/incidents?status=closed", nil, cookie(userToken))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateStatus_ErrorMapping(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", fmt.Errorf("service: %w", e.ErrNotFound), http.StatusNotFound},
		{"rejected transition", e.Invalid("status", "Transition not allowed"), http.StatusBadRequest},
		{"concurrent change", fmt.Errorf("service: %w", e.ErrConflict), http.StatusConflict},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, d, router := newTestHandler(t)
			asUser(d)

			d.incidents.EXPECT().
				UpdateStatus(gomock.Any(), int64(7), int64(5), "Resolved").
				Return(nil, tc.err).Times(1)

			w := makeRequest(router, http.MethodPost, "/incidents/5/status", jsonBody(t, UpdateStatusRequest{Status: "Resolved"}), cookie(userToken))

			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestUpdateStatus_Success(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	resolved := sampleIncident(5)
	resolved.Status = models.Status{Kind: models.StatusResolved}
	d.incidents.EXPECT().
		UpdateStatus(gomock.Any(), int64(7), int64(5), "Resolved").
		Return(resolved, nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/incidents/5/status", jsonBody(t, UpdateStatusRequest{Status: "Resolved"}), cookie(userToken))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp IncidentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Resolved", resp.Status)
}

func TestDeleteIncident(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		_, d, router := newTestHandler(t)
		asUser(d)
		d.incidents.EXPECT().Delete(gomock.Any(), int64(7), int64(9)).Return(nil).Times(1)

		w := makeRequest(router, http.MethodDelete, "/incidents/9", nil, cookie(userToken))

		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, d, router := newTestHandler(t)
		asUser(d)
		d.incidents.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := makeRequest(router, http.MethodDelete, "/incidents/abc", nil, cookie(userToken))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"invalid incident ID"}`, w.Body.String())
	})

	t.Run("not owner", func(t *testing.T) {
		_, d, router := newTestHandler(t)
		asUser(d)
		d.incidents.EXPECT().Delete(gomock.Any(), int64(7), int64(9)).Return(e.ErrNotFound).Times(1)

		w := makeRequest(router, http.MethodDelete, "/incidents/9", nil, cookie(userToken))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSOS_RateLimited(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	sos := sampleIncident(21)
	sos.IsSOS = true
	sos.Status = models.Status{Kind: models.StatusHighAlert}
	sos.Priority = models.PriorityCritical

	// Ожидания: сервис вызывается только для первого запроса
	d.incidents.EXPECT().
		ReportSOS(gomock.Any(), int64(7), models.ReportInput{Latitude: "12.9716", Longitude: "77.5946"}).
		Return(sos, nil).Times(1)

	// Действие
	body := `{"latitude":12.9716,"longitude":77.5946}`
	first := makeRequest(router, http.MethodPost, "/api/report", bytes.NewBufferString(body), cookie(userToken))
	second := makeRequest(router, http.MethodPost, "/api/report", bytes.NewBufferString(body), cookie(userToken))

	// Проверки
	assert.Equal(t, http.StatusCreated, first.Code)
	var resp SOSResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(21), resp.IncidentID)

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	retryAfter, err := strconv.Atoi(second.Header().Get("Retry-After"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, retryAfter, 1)
	assert.LessOrEqual(t, retryAfter, 60)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
}

func TestLogin_RateLimitedPerIP(t *testing.T) {
	_, d, router := newTestHandler(t)

	d.accounts.EXPECT().
		Login(gomock.Any(), "asha", "wrong").
		Return(nil, fmt.Errorf("invalid username or password: %w", e.ErrUnauthenticated)).Times(5)

	for i := 0; i < 5; i++ {
		w := makeRequest(router, http.MethodPost, "/login", jsonBody(t, LoginRequest{Username: "asha", Password: "wrong"}))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"invalid username or password"}`, w.Body.String())
	}

	w := makeRequest(router, http.MethodPost, "/login", jsonBody(t, LoginRequest{Username: "asha", Password: "wrong"}))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestLogin_Success(t *testing.T) {
	_, d, router := newTestHandler(t)

	d.accounts.EXPECT().
		Login(gomock.Any(), "asha", "Secret123").
		Return(&models.User{ID: 7, Username: "asha", Email: "asha@example.com"}, nil).Times(1)
	d.sessions.EXPECT().
		Create(gomock.Any(), auth.UserIdentity(7, "asha")).
		Return(&auth.Session{Token: "tok-new", Identity: auth.UserIdentity(7, "asha")}, nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/login", jsonBody(t, LoginRequest{Username: "asha", Password: "Secret123"}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), SessionCookieName+"=tok-new")
	assert.Contains(t, w.Header().Get("Set-Cookie"), "HttpOnly")
	assert.JSONEq(t, `{"success":true,"domain":"user","username":"asha"}`, w.Body.String())
}

func TestLogout_DeletesSession(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.sessions.EXPECT().Delete(gomock.Any(), userToken).Return(nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/logout", nil, cookie(userToken))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestRegister(t *testing.T) {
	req := RegisterRequest{Username: "asha", Email: "asha@example.com", Password: "Secret123", ConfirmPassword: "Secret123"}

	t.Run("success", func(t *testing.T) {
		_, d, router := newTestHandler(t)
		d.accounts.EXPECT().
			Register(gomock.Any(), models.RegisterInput{Username: "asha", Email: "asha@example.com", Password: "Secret123", ConfirmPassword: "Secret123"}).
			Return(&models.User{ID: 7, Username: "asha", Email: "asha@example.com", PasswordHash: "$2a$10$hash"}, nil).Times(1)

		w := makeRequest(router, http.MethodPost, "/register", jsonBody(t, req))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "hash")
	})

	t.Run("duplicate", func(t *testing.T) {
		_, d, router := newTestHandler(t)
		d.accounts.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("service: username or email already exists: %w", e.ErrConflict)).Times(1)

		w := makeRequest(router, http.MethodPost, "/register", jsonBody(t, req))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.JSONEq(t, `{"error":"username or email already exists"}`, w.Body.String())
	})

	t.Run("password mismatch", func(t *testing.T) {
		_, d, router := newTestHandler(t)
		d.accounts.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(nil, e.Invalid("confirm_password", "Passwords do not match")).Times(1)

		mismatch := req
		mismatch.ConfirmPassword = "Other123"
		w := makeRequest(router, http.MethodPost, "/register", jsonBody(t, mismatch))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error":"Passwords do not match"}`, w.Body.String())
	})
}

func TestOperatorLogin_ClearsUserSession(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)
	entries := captureAudit(d)

	// Ожидания: прежняя пользовательская привязка удаляется до создания операторской
	gomock.InOrder(
		d.operators.EXPECT().Verify(gomock.Any(), "admin", "s3cret").Return(auth.OperatorIdentity("admin"), nil),
		d.sessions.EXPECT().Delete(gomock.Any(), userToken).Return(nil),
		d.sessions.EXPECT().Create(gomock.Any(), auth.OperatorIdentity("admin")).
			Return(&auth.Session{Token: operatorToken, Identity: auth.OperatorIdentity("admin")}, nil),
	)

	// Действие
	w := makeRequest(router, http.MethodPost, "/admin", jsonBody(t, LoginRequest{Username: "admin", Password: "s3cret"}), cookie(userToken))

	// Проверки
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), SessionCookieName+"="+operatorToken)
	require.Len(t, *entries, 1)
	entry := (*entries)[0]
	assert.Equal(t, "operator_login", entry.Action)
	assert.Equal(t, "operator:admin", entry.Actor)
	assert.Equal(t, "operator:admin", entry.Target)
	assert.Equal(t, audit.OutcomeSuccess, entry.Outcome)
}

func TestOperatorLogin_BadCredentialsAudited(t *testing.T) {
	_, d, router := newTestHandler(t)
	entries := captureAudit(d)

	d.operators.EXPECT().
		Verify(gomock.Any(), "admin", "guess").
		Return(auth.Identity{}, fmt.Errorf("auth: invalid operator credentials: %w", e.ErrUnauthenticated)).Times(1)
	d.sessions.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/admin", jsonBody(t, LoginRequest{Username: "admin", Password: "guess"}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, *entries, 1)
	assert.Equal(t, "anonymous", (*entries)[0].Actor)
	assert.Equal(t, audit.OutcomeDenied, (*entries)[0].Outcome)
}

func TestOperatorRoute_UserSessionForbiddenAndAudited(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)
	entries := captureAudit(d)

	d.dispatch.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/dispatch/42", jsonBody(t, DispatchRequest{Unit: "police"}), cookie(userToken))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"operator session required","login":"/admin"}`, w.Body.String())
	require.Len(t, *entries, 1)
	assert.Equal(t, "user:7", (*entries)[0].Actor)
	assert.Equal(t, "incident:42", (*entries)[0].Target)
	assert.Equal(t, audit.OutcomeDenied, (*entries)[0].Outcome)
}

func TestOperatorRoute_AnonymousBrowserRedirect(t *testing.T) {
	_, d, router := newTestHandler(t)
	captureAudit(d)

	w := makeRequest(router, http.MethodGet, "/admin/dashboard", nil, map[string]string{"Accept": "text/html"})

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, operatorLoginPath, w.Header().Get("Location"))
}

func TestDispatch_Success(t *testing.T) {
	_, d, router := newTestHandler(t)
	asOperator(d)
	entries := captureAudit(d)

	dispatched := sampleIncident(42)
	dispatched.Status = models.Status{
		Kind: models.StatusDispatched,
		Unit: models.UnitAmbulance,
		Note: "Ambulance dispatched at 2026-10-14T09:30:00Z",
	}
	d.dispatch.EXPECT().Dispatch(gomock.Any(), int64(42), "ambulance").Return(dispatched, nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/dispatch/42", jsonBody(t, DispatchRequest{Unit: "ambulance"}), cookie(operatorToken))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp DispatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(42), resp.IncidentID)
	assert.Equal(t, "Dispatched: Ambulance", resp.Status)
	assert.Equal(t, "ambulance", resp.Unit)
	assert.Equal(t, "Ambulance dispatched at 2026-10-14T09:30:00Z", resp.Note)

	require.Len(t, *entries, 1)
	assert.Equal(t, "dispatch", (*entries)[0].Action)
	assert.Equal(t, "operator:admin", (*entries)[0].Actor)
	assert.Equal(t, audit.OutcomeSuccess, (*entries)[0].Outcome)
}

func TestDispatch_InvalidUnit(t *testing.T) {
	_, d, router := newTestHandler(t)
	asOperator(d)
	entries := captureAudit(d)

	d.dispatch.EXPECT().Dispatch(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	w := makeRequest(router, http.MethodPost, "/api/dispatch/42", jsonBody(t, DispatchRequest{Unit: "navy"}), cookie(operatorToken))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.Error, "Invalid unit"))
	require.Len(t, *entries, 1)
	assert.Equal(t, audit.OutcomeFailure, (*entries)[0].Outcome)
}

func TestDispatch_ResolvedIncidentRejected(t *testing.T) {
	_, d, router := newTestHandler(t)
	asOperator(d)
	captureAudit(d)

	d.dispatch.EXPECT().
		Dispatch(gomock.Any(), int64(42), "police").
		Return(nil, e.Invalid("status", "Cannot dispatch to an incident in status Resolved")).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/dispatch/42", jsonBody(t, DispatchRequest{Unit: "police"}), cookie(operatorToken))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolve_Success(t *testing.T) {
	_, d, router := newTestHandler(t)
	asOperator(d)
	captureAudit(d)

	resolved := sampleIncident(42)
	resolved.Status = models.Status{Kind: models.StatusResolved}
	d.dispatch.EXPECT().Resolve(gomock.Any(), int64(42)).Return(resolved, nil).Times(1)

	w := makeRequest(router, http.MethodPost, "/api/admin/incidents/42/resolve", nil, cookie(operatorToken))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"Resolved"`)
}

func TestDashboard_Success(t *testing.T) {
	_, d, router := newTestHandler(t)
	asOperator(d)
	captureAudit(d)

	active := &models.AlertIncident{Incident: *sampleIncident(30), Reporter: models.Reporter{Username: "asha", Email: "asha@example.com"}}
	active.IsSOS = true
	active.Status = models.Status{Kind: models.StatusDispatched, Unit: models.UnitPolice, Note: "Police Patrol dispatched at 2026-10-14T09:30:00Z"}
	d.dispatch.EXPECT().Dashboard(gomock.Any()).Return(&models.Dashboard{
		Active:   []*models.AlertIncident{active},
		Resolved: []*models.AlertIncident{},
		Stats:    models.AlertStats{TotalAlerts: 1, ActiveAlerts: 1, DispatchedAlerts: 1},
	}, nil).Times(1)

	w := makeRequest(router, http.MethodGet, "/admin/dashboard", nil, cookie(operatorToken))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp DashboardResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Active, 1)
	assert.Equal(t, "asha", resp.Active[0].Username)
	assert.Equal(t, "asha@example.com", resp.Active[0].Email)
	assert.True(t, resp.Active[0].IsDispatched)
	assert.Equal(t, "Dispatched: Police Patrol", resp.Active[0].Status)
	assert.Empty(t, resp.Resolved)
	assert.Equal(t, 1, resp.Stats.DispatchedAlerts)
}

func TestPollIncidents_InvalidCursorIsZero(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().Poll(gomock.Any(), int64(7), int64(0)).Return([]*models.Incident{}, nil).Times(2)

	for _, q := range []string{"?last_id=abc", "?last_id=-5"} {
		w := makeRequest(router, http.MethodGet, "/api/poll/incidents"+q, nil, cookie(userToken))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"incidents":[],"count":0}`, w.Body.String())
	}
}

func TestPollAlerts_Throttled(t *testing.T) {
	h, d, router := newTestHandler(t)
	h.throttle = ratelimit.NewThrottle(1, 1, time.Minute, nil)
	asOperator(d)
	entries := captureAudit(d)

	alert := &models.AlertIncident{Incident: *sampleIncident(50)}
	alert.Status = models.Status{Kind: models.StatusHighAlert}
	d.dispatch.EXPECT().PollAlerts(gomock.Any(), int64(49)).Return([]*models.AlertIncident{alert}, nil).Times(1)

	first := makeRequest(router, http.MethodGet, "/api/admin/poll/alerts?last_id=49", nil, cookie(operatorToken))
	second := makeRequest(router, http.MethodGet, "/api/admin/poll/alerts?last_id=49", nil, cookie(operatorToken))

	assert.Equal(t, http.StatusOK, first.Code)
	var resp AlertPollResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.False(t, resp.Alerts[0].IsDispatched)

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	require.Len(t, *entries, 2)
	assert.Equal(t, audit.OutcomeDenied, (*entries)[1].Outcome)
}

func TestAnalytics_InternalErrorIsOpaque(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().Analytics(gomock.Any(), int64(7)).Return(nil, errors.New("pq: relation does not exist")).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/analytics", nil, cookie(userToken))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestAnalytics_Success(t *testing.T) {
	_, d, router := newTestHandler(t)
	asUser(d)

	d.incidents.EXPECT().Analytics(gomock.Any(), int64(7)).Return(&models.Analytics{
		Categories: []models.CategoryCount{{IncidentType: "Theft", Count: 2}},
		Timeline:   []models.DayCount{{Date: "2026-10-14", Count: 2}},
		Summary:    models.OwnerSummary{Total: 2, Pending: 1, Resolved: 1},
	}, nil).Times(1)

	w := makeRequest(router, http.MethodGet, "/api/analytics", nil, cookie(userToken))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"categories":[{"incident_type":"Theft","count":2}],
		"timeline":[{"date":"2026-10-14","count":2}],
		"summary":{"total":2,"pending":1,"resolved":1}
	}`, w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	_, _, router := newTestHandler(t)

	w := makeRequest(router, http.MethodGet, "/api/system/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
