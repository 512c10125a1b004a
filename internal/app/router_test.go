package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/console"
	"github.com/odyssey-erp/rbac-console/internal/credentials"
	"github.com/odyssey-erp/rbac-console/internal/observability"
	"github.com/odyssey-erp/rbac-console/internal/session"
	"github.com/odyssey-erp/rbac-console/internal/testing/backend"
	_ "github.com/odyssey-erp/rbac-console/testing"
)

func newTestRouter(t *testing.T) (http.Handler, *observability.Metrics) {
	t.Helper()
	srv := backend.New(t)
	t.Setenv("API_BASE_URL", srv.URL())
	t.Setenv("CREDENTIAL_BACKEND", credentials.BackendMemory)
	cfg, err := LoadConfig()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := NewServices(testContext(t), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	handler := console.NewHandler(console.Deps{Logger: logger, Sessions: svc.Sessions})
	return NewRouter(RouterParams{Logger: logger, Config: cfg, Console: handler, Metrics: svc.Metrics}), svc.Metrics
}

func TestHealthzAndSecurityHeaders(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestMetricsRecordConsoleRoutes(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rbac_console_http_requests_total{code="200",route="/session`)
}

func postLogin(t *testing.T, router http.Handler, creds session.Credentials) int {
	t.Helper()
	body, err := json.Marshal(creds)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/session/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestLoginIsRateLimitedAndFailuresKeepSession(t *testing.T) {
	router, _ := newTestRouter(t)

	require.Equal(t, http.StatusOK, postLogin(t, router, session.Credentials{Email: backend.AdminEmail, Password: backend.AdminPassword}))
	for i := 1; i < console.LoginRateLimit; i++ {
		assert.Equal(t, http.StatusUnauthorized, postLogin(t, router, session.Credentials{Email: backend.AdminEmail, Password: "wrong-password"}))
	}
	assert.Equal(t, http.StatusTooManyRequests, postLogin(t, router, session.Credentials{Email: backend.AdminEmail, Password: backend.AdminPassword}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var view struct {
		Authenticated bool   `json:"authenticated"`
		LastError     string `json:"lastError"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Authenticated)
	assert.NotEmpty(t, view.LastError)
}

func TestNewServicesRejectsUnreachableRedis(t *testing.T) {
	cfg := &Config{CredentialBackend: credentials.BackendRedis, RedisAddr: "127.0.0.1:1", APIBaseURL: "http://localhost:3000/api"}

	_, err := NewServices(testContext(t), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.ErrorContains(t, err, "credential store")
}

// testContext returns a context canceled when the test finishes
// (equivalent of testing.T.Context, which requires Go 1.24).
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
