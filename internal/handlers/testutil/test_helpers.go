package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/metastore-admin/internal/api"
	"github.com/charlesng35/metastore-admin/internal/app"
	iauth "github.com/charlesng35/metastore-admin/internal/auth"
	sharedtestutil "github.com/charlesng35/metastore-admin/internal/database/testutil"
	"github.com/charlesng35/metastore-admin/internal/loaders"
	"github.com/charlesng35/metastore-admin/internal/models"
	"github.com/charlesng35/metastore-admin/internal/services"
	"github.com/charlesng35/metastore-admin/pkg/response"
)

const jwtSecret = "test-suite-super-secret-key-32-bytes!!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T          *testing.T
	DB         *gorm.DB
	Router     *gin.Engine
	JWT        *iauth.JWTService
	Services   api.Services
	AdminToken string
}

// NewEnv provisions a fresh handler test environment with migrations and seed users applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithUsers(
		models.User{Username: "alice", Fullname: "Alice Liddell", IsAdmin: true},
		models.User{Username: "albert", Fullname: "Albert Camus"},
		models.User{Username: "bob", Fullname: "Bob Builder"},
	))

	jwtSvc, err := iauth.NewJWTService(iauth.JWTConfig{
		Secret:   jwtSecret,
		Issuer:   "test-suite",
		TokenTTL: time.Hour,
	})
	require.NoError(t, err)

	cfg := &app.Config{
		Search:     app.SearchConfig{UserLimit: 10},
		Monitoring: app.MonitoringConfig{Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"}},
	}

	registry, err := loaders.NewDefaultRegistry()
	require.NoError(t, err)
	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	metastores, err := services.NewMetastoreService(db, registry, services.WithAudit(audit))
	require.NoError(t, err)
	schedules, err := services.NewScheduleService(db, services.WithAudit(audit))
	require.NoError(t, err)
	users, err := services.NewUserService(db)
	require.NoError(t, err)

	svcs := api.Services{Metastores: metastores, Schedules: schedules, Users: users, Audit: audit}
	router, err := api.NewRouter(db, jwtSvc, cfg, svcs)
	require.NoError(t, err)

	token, err := jwtSvc.GenerateToken("alice", true)
	require.NoError(t, err)

	return &Env{
		T:          t,
		DB:         db,
		Router:     router,
		JWT:        jwtSvc,
		Services:   svcs,
		AdminToken: token,
	}
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination. An
// omitted payload leaves dest untouched.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	if len(raw) == 0 {
		return
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Admin executes a request carrying the admin token.
func (e *Env) Admin(method, path string, body any) *httptest.ResponseRecorder {
	e.T.Helper()
	return e.Request(method, path, body, e.AdminToken)
}
