package console

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/assignment"
	"github.com/odyssey-erp/rbac-console/internal/credentials"
	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/session"
	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/testing/backend"
	_ "github.com/odyssey-erp/rbac-console/testing"
)

type recordingQueue struct {
	ops []assignment.Operation
}

func (q *recordingQueue) EnqueueAssignments(_ context.Context, ops []assignment.Operation) (string, error) {
	q.ops = append(q.ops, ops...)
	return "task-1", nil
}

type consoleFixture struct {
	server  *httptest.Server
	backend *backend.Server
}

func newConsole(t *testing.T, jobs Enqueuer) *consoleFixture {
	t.Helper()
	srv := backend.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	manager := session.NewManager(api.NewClient(srv.URL(), api.WithLogger(logger)), credentials.NewMemoryStore(), session.WithLogger(logger))

	r := chi.NewRouter()
	NewHandler(Deps{Logger: logger, Sessions: manager, Jobs: jobs}).MountRoutes(r)
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return &consoleFixture{server: ts, backend: srv}
}

func (f *consoleFixture) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (f *consoleFixture) login(t *testing.T, email, password string) {
	t.Helper()
	status, _ := f.do(t, http.MethodPost, "/session/login", session.Credentials{Email: email, Password: password})
	require.Equal(t, http.StatusOK, status)
}

func TestAnonymousSession(t *testing.T) {
	f := newConsole(t, nil)

	status, raw := f.do(t, http.MethodGet, "/session", nil)
	require.Equal(t, http.StatusOK, status)
	var view sessionView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.False(t, view.Authenticated)
	assert.Equal(t, "anonymous", view.State)
	assert.Empty(t, view.Permissions)

	status, _ = f.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = f.do(t, http.MethodGet, "/menu", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestLoginNeverEchoesTokens(t *testing.T) {
	f := newConsole(t, nil)

	status, raw := f.do(t, http.MethodPost, "/session/login", session.Credentials{Email: backend.AdminEmail, Password: backend.AdminPassword})

	require.Equal(t, http.StatusOK, status)
	assert.NotContains(t, string(raw), "token")
	assert.NotContains(t, string(raw), "refreshToken")
	var view sessionView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.True(t, view.Authenticated)
	assert.Equal(t, "authenticated", view.State)
	assert.Contains(t, view.Permissions, "users.read")
}

func TestLoginFailures(t *testing.T) {
	f := newConsole(t, nil)

	status, _ := f.do(t, http.MethodPost, "/session/login", session.Credentials{Email: backend.AdminEmail, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	before := f.backend.Requests()
	status, raw := f.do(t, http.MethodPost, "/session/login", session.Credentials{Email: "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "email")
	assert.Equal(t, before, f.backend.Requests())
}

func TestAdminMenuAndLists(t *testing.T) {
	f := newConsole(t, nil)
	f.login(t, backend.AdminEmail, backend.AdminPassword)

	status, raw := f.do(t, http.MethodGet, "/menu", nil)
	require.Equal(t, http.StatusOK, status)
	var menu rbac.Menu
	require.NoError(t, json.Unmarshal(raw, &menu))
	assert.True(t, menu.HasAdminModules)
	require.Len(t, menu.Items, 4)
	assert.Equal(t, "Users", menu.Items[0].Name)

	status, raw = f.do(t, http.MethodGet, "/users?pageSize=1&sortBy=id&sortOrder=asc", nil)
	require.Equal(t, http.StatusOK, status)
	var page shared.Page[rbac.User]
	require.NoError(t, json.Unmarshal(raw, &page))
	assert.Equal(t, 2, page.Pagination.TotalItems)
	require.Len(t, page.Pagination.Data, 1)
	assert.Equal(t, backend.AdminEmail, page.Pagination.Data[0].Email)

	for _, path := range []string{"/roles", "/permissions", "/groups"} {
		status, _ = f.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, status, path)
	}
}

func TestRegularUserCannotListAdminModules(t *testing.T) {
	f := newConsole(t, nil)
	f.login(t, backend.UserEmail, backend.UserPassword)

	status, raw := f.do(t, http.MethodGet, "/menu", nil)
	require.Equal(t, http.StatusOK, status)
	var menu rbac.Menu
	require.NoError(t, json.Unmarshal(raw, &menu))
	assert.True(t, menu.Account)
	assert.Empty(t, menu.Items)

	status, _ = f.do(t, http.MethodGet, "/roles", nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAssignmentsAreIdempotent(t *testing.T) {
	f := newConsole(t, nil)
	f.login(t, backend.AdminEmail, backend.AdminPassword)
	userID := f.backend.UserID(backend.UserEmail)
	adminRole := f.backend.RoleID("Admin")
	body := map[string]any{"kind": "user-role", "leftId": userID, "rightId": adminRole}

	for i := 0; i < 2; i++ {
		status, _ := f.do(t, http.MethodPost, "/assignments", body)
		require.Equal(t, http.StatusNoContent, status)
	}
	assert.True(t, f.backend.HasUserRole(userID, adminRole))
	assert.Equal(t, 2, f.backend.UserRoleCount(userID))

	for i := 0; i < 2; i++ {
		status, _ := f.do(t, http.MethodDelete, "/assignments", body)
		require.Equal(t, http.StatusNoContent, status)
	}
	assert.False(t, f.backend.HasUserRole(userID, adminRole))
}

func TestAssignmentValidation(t *testing.T) {
	f := newConsole(t, nil)
	f.login(t, backend.AdminEmail, backend.AdminPassword)

	status, _ := f.do(t, http.MethodPost, "/assignments", map[string]any{"kind": "user-group", "leftId": 1, "rightId": 1})
	assert.Equal(t, http.StatusBadRequest, status)

	status, raw := f.do(t, http.MethodPost, "/assignments", map[string]any{"kind": "user-role", "leftId": 0, "rightId": 1})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, string(raw), "leftId")

	status, _ = f.do(t, http.MethodPost, "/assignments", map[string]any{"kind": "user-role", "leftId": 1, "rightId": 1, "async": true})
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestAsyncAssignmentIsQueued(t *testing.T) {
	queue := &recordingQueue{}
	f := newConsole(t, queue)
	f.login(t, backend.AdminEmail, backend.AdminPassword)

	status, raw := f.do(t, http.MethodDelete, "/assignments", map[string]any{"kind": "role-permission", "leftId": 3, "rightId": 7, "async": true})

	require.Equal(t, http.StatusAccepted, status)
	assert.JSONEq(t, `{"taskId":"task-1"}`, string(raw))
	assert.Equal(t, []assignment.Operation{{Kind: assignment.KindRolePermission, Action: assignment.ActionUnassign, LeftID: 3, RightID: 7}}, queue.ops)
}

func TestLogoutEndsSession(t *testing.T) {
	f := newConsole(t, nil)
	f.login(t, backend.AdminEmail, backend.AdminPassword)

	status, _ := f.do(t, http.MethodPost, "/session/logout", nil)
	require.Equal(t, http.StatusNoContent, status)

	status, _ = f.do(t, http.MethodGet, "/users", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileFailureTearsDown(t *testing.T) {
	f := newConsole(t, nil)
	f.login(t, backend.AdminEmail, backend.AdminPassword)
	f.backend.FailProfile(true)

	status, _ := f.do(t, http.MethodPost, "/session/profile", nil)
	assert.Equal(t, http.StatusBadGateway, status)

	_, raw := f.do(t, http.MethodGet, "/session", nil)
	var view sessionView
	require.NoError(t, json.Unmarshal(raw, &view))
	assert.False(t, view.Authenticated)
}
