package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/app"
	"github.com/odyssey-erp/rbac-console/internal/assignment"
	"github.com/odyssey-erp/rbac-console/internal/credentials"
	"github.com/odyssey-erp/rbac-console/internal/session"
	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/testing/backend"
	"github.com/odyssey-erp/rbac-console/internal/users"
	_ "github.com/odyssey-erp/rbac-console/testing"
)

func init() {
	pterm.DisableStyling()
}

type recordingQueue struct {
	ops []assignment.Operation
}

func (q *recordingQueue) EnqueueAssignments(_ context.Context, ops []assignment.Operation) (string, error) {
	q.ops = append(q.ops, ops...)
	return "task-42", nil
}

// harness shares one credential store across invocations, like the file
// store does between real runs.
type harness struct {
	backend *backend.Server
	store   *credentials.MemoryStore
	queue   *recordingQueue
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{backend: backend.New(t), store: credentials.NewMemoryStore(), queue: &recordingQueue{}}
}

func (h *harness) factory(ctx context.Context) (*Runtime, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := api.NewClient(h.backend.URL(), api.WithLogger(logger))
	manager := session.NewManager(client, h.store, session.WithLogger(logger))
	if _, err := manager.Restore(ctx); err != nil {
		return nil, err
	}
	return &Runtime{Config: &app.Config{}, Logger: logger, Client: client, Sessions: manager, Jobs: h.queue}, nil
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), h.factory, args, &out, io.Discard)
	return out.String(), err
}

func (h *harness) login(t *testing.T, email, password string) {
	t.Helper()
	_, err := h.run(t, "auth", "login", "--email", email, "--password", password)
	require.NoError(t, err)
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "auth", "login", "--email", backend.AdminEmail, "--password", backend.AdminPassword)
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as")

	out, err = h.run(t, "--json", "auth", "status")
	require.NoError(t, err)
	var status statusView
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "authenticated", status.State)
	assert.Equal(t, backend.AdminEmail, status.Email)
	assert.Contains(t, status.Permissions, "ruoli.update")
	assert.Equal(t, int64(1), h.backend.LoginCalls())
}

func TestStatusWhenLoggedOut(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "auth", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestLogoutClearsStore(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.AdminEmail, backend.AdminPassword)

	_, err := h.run(t, "auth", "logout")
	require.NoError(t, err)

	tokens, err := h.store.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, tokens.Empty())

	_, err = h.run(t, "users", "list")
	assert.ErrorIs(t, err, shared.ErrNotAuthenticated)
}

func TestUsersListJSON(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.AdminEmail, backend.AdminPassword)

	out, err := h.run(t, "--json", "users", "list", "--search", "user")
	require.NoError(t, err)

	var page shared.Page[users.User]
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	require.Len(t, page.Pagination.Data, 1)
	assert.Equal(t, backend.UserEmail, page.Pagination.Data[0].Email)
}

func TestRoleLifecycleTable(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.AdminEmail, backend.AdminPassword)

	out, err := h.run(t, "roles", "create", "--name", "Auditor", "--order", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Auditor")

	id := h.backend.RoleID("Auditor")
	require.Positive(t, id)

	out, err = h.run(t, "roles", "list", "--search", "Audit")
	require.NoError(t, err)
	assert.Contains(t, out, "Auditor")
	assert.Contains(t, out, "page 1/1")

	_, err = h.run(t, "roles", "delete", itoa(id))
	require.NoError(t, err)

	_, err = h.run(t, "roles", "get", itoa(id))
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAssignIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.AdminEmail, backend.AdminPassword)
	roleID := h.backend.RoleID("Utente")
	permID := h.backend.PermissionID("gruppi.read")
	args := []string{"role-permission", itoa(roleID), itoa(permID)}

	for i := 0; i < 2; i++ {
		_, err := h.run(t, append([]string{"assign"}, args...)...)
		require.NoError(t, err)
	}
	assert.True(t, h.backend.HasRolePermission(roleID, permID))

	for i := 0; i < 2; i++ {
		_, err := h.run(t, append([]string{"unassign"}, args...)...)
		require.NoError(t, err)
	}
	assert.False(t, h.backend.HasRolePermission(roleID, permID))
}

func TestAssignRejectsBadArgumentsBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.AdminEmail, backend.AdminPassword)
	before := h.backend.Requests()

	_, err := h.run(t, "assign", "user-group", "1", "2")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = h.run(t, "assign", "user-role", "abc", "2")
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = h.run(t, "unassign", "user-role", "1", "0")
	assert.ErrorIs(t, err, shared.ErrValidation)

	assert.Equal(t, before, h.backend.Requests())
}

func TestAsyncAssignQueuesTask(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "assign", "--async", "user-role", "4", "2")

	require.NoError(t, err)
	assert.Contains(t, out, "task-42")
	assert.Equal(t, []assignment.Operation{{Kind: assignment.KindUserRole, Action: assignment.ActionAssign, LeftID: 4, RightID: 2}}, h.queue.ops)
}

func TestMenuForRegularUser(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.UserEmail, backend.UserPassword)

	out, err := h.run(t, "menu")

	require.NoError(t, err)
	assert.Contains(t, out, "Account page available")
	assert.Contains(t, out, "No administration modules")
}

func TestMenuForAdmin(t *testing.T) {
	h := newHarness(t)
	h.login(t, backend.AdminEmail, backend.AdminPassword)

	out, err := h.run(t, "menu")

	require.NoError(t, err)
	for _, path := range []string{"/dashboard/Users", "/dashboard/Ruoli", "/dashboard/Permessi", "/dashboard/Gruppi"} {
		assert.Contains(t, out, path)
	}
}

func TestJobsEnqueueFromStdin(t *testing.T) {
	h := newHarness(t)
	root, release := NewRootCommand(h.factory)
	t.Cleanup(func() { _ = release() })

	var out bytes.Buffer
	root.SetArgs([]string{"jobs", "enqueue"})
	root.SetIn(strings.NewReader(`[{"kind":"user-role","action":"unassign","leftId":3,"rightId":1}]`))
	root.SetOut(&out)
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "Queued 1 operations")
	require.Len(t, h.queue.ops, 1)
	assert.Equal(t, assignment.ActionUnassign, h.queue.ops[0].Action)
}

func TestReadOperationsValidates(t *testing.T) {
	_, err := readOperations(strings.NewReader(`[]`))
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = readOperations(strings.NewReader(`[{"kind":"user-role","action":"toggle","leftId":1,"rightId":1}]`))
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = readOperations(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestRegisterValidatesLocally(t *testing.T) {
	h := newHarness(t)
	before := h.backend.Requests()

	_, err := h.run(t, "auth", "register", "--name", "Ivo", "--email", "ivo@example.com", "--password", "Weak")

	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Equal(t, before, h.backend.Requests())
}
