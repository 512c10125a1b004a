// Package console exposes the session and the RBAC graph over a local HTTP API.
package console

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/rbac-console/internal/assignment"
	"github.com/odyssey-erp/rbac-console/internal/groups"
	"github.com/odyssey-erp/rbac-console/internal/permissions"
	"github.com/odyssey-erp/rbac-console/internal/platform/httpx"
	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/roles"
	"github.com/odyssey-erp/rbac-console/internal/session"
	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/users"
)

// LoginRateLimit caps login attempts per client IP and minute.
const LoginRateLimit = 10

// Enqueuer schedules assignment batches for background processing.
type Enqueuer interface {
	EnqueueAssignments(ctx context.Context, ops []assignment.Operation) (string, error)
}

// Deps groups the collaborators of Handler.
type Deps struct {
	Logger   *slog.Logger
	Sessions *session.Manager
	Modules  *rbac.ModuleRegistry
	Icons    *rbac.IconRegistry
	// Jobs is optional; without it async assignment requests are rejected.
	Jobs Enqueuer
}

// Handler serves the console API for a single session.
type Handler struct {
	logger      *slog.Logger
	sessions    *session.Manager
	modules     *rbac.ModuleRegistry
	icons       *rbac.IconRegistry
	jobs        Enqueuer
	rbac        rbac.Middleware
	users       *users.Service
	roles       *roles.Service
	permissions *permissions.Service
	groups      *groups.Service
	assignments *assignment.Service
}

// NewHandler builds Handler instance. Entity services talk through the session gateway.
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	modules := deps.Modules
	if modules == nil {
		modules = rbac.NewModuleRegistry(rbac.DefaultModules()...)
	}
	icons := deps.Icons
	if icons == nil {
		icons = rbac.DefaultIcons()
	}
	gw := deps.Sessions.Gateway()
	h := &Handler{
		logger:      logger,
		sessions:    deps.Sessions,
		modules:     modules,
		icons:       icons,
		jobs:        deps.Jobs,
		users:       users.NewService(users.NewRepository(gw)),
		roles:       roles.NewService(roles.NewRepository(gw)),
		permissions: permissions.NewService(permissions.NewRepository(gw)),
		groups:      groups.NewService(groups.NewRepository(gw)),
		assignments: assignment.NewService(gw, logger),
	}
	h.rbac = rbac.Middleware{Resolve: h.resolvePermissions, Modules: modules, Logger: logger}
	return h
}

// MountRoutes registers console routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.With(httprate.LimitByIP(LoginRateLimit, time.Minute)).Post("/login", h.login)
		r.Post("/logout", h.logout)
		r.Get("/", h.current)
		r.Post("/profile", h.refreshProfile)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny())
		r.Get("/menu", h.menu)
		r.Post("/assignments", h.mutateAssignment(assignment.ActionAssign))
		r.Delete("/assignments", h.mutateAssignment(assignment.ActionUnassign))
	})
	r.With(h.rbac.RequireModule(rbac.ModuleUsers)).Get("/users", listHandler(h, h.users.List))
	r.With(h.rbac.RequireModule(rbac.ModuleRoles)).Get("/roles", listHandler(h, h.roles.List))
	r.With(h.rbac.RequireModule(rbac.ModulePermissions)).Get("/permissions", listHandler(h, h.permissions.List))
	r.With(h.rbac.RequireModule(rbac.ModuleGroups)).Get("/groups", listHandler(h, h.groups.List))
}

func (h *Handler) resolvePermissions(*http.Request) (rbac.PermissionSet, bool) {
	snap := h.sessions.Snapshot()
	return snap.PermissionNames, snap.IsAuthenticated()
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := httpx.DecodeJSON(r, &creds); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}
	sess, err := h.sessions.Login(r.Context(), creds)
	if err != nil {
		h.fail(w, "login", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newSessionView(h.sessions.State(), sess))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) current(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, newSessionView(h.sessions.State(), h.sessions.Snapshot()))
}

func (h *Handler) refreshProfile(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.FetchProfile(r.Context())
	if err != nil {
		h.fail(w, "fetch profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, newSessionView(h.sessions.State(), sess))
}

func (h *Handler) menu(w http.ResponseWriter, _ *http.Request) {
	httpx.JSON(w, http.StatusOK, h.sessions.Snapshot().Menu(h.modules, h.icons))
}

func listHandler[T any](h *Handler, list func(context.Context, shared.ListParams) (shared.Page[T], error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := list(r.Context(), shared.ParseListParams(r.URL.Query()))
		if err != nil {
			h.fail(w, "list "+r.URL.Path, err)
			return
		}
		httpx.JSON(w, http.StatusOK, page)
	}
}

type assignmentRequest struct {
	Kind    string `json:"kind"`
	LeftID  int64  `json:"leftId"`
	RightID int64  `json:"rightId"`
	Async   bool   `json:"async"`
}

func (h *Handler) mutateAssignment(action assignment.Action) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req assignmentRequest
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Body", err.Error())
			return
		}
		kind, err := assignment.ParseKind(req.Kind)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}

		if req.Async {
			h.enqueue(w, r, assignment.Operation{Kind: kind, Action: action, LeftID: req.LeftID, RightID: req.RightID})
			return
		}

		if action == assignment.ActionAssign {
			err = h.assignments.Assign(r.Context(), kind, req.LeftID, req.RightID)
		} else {
			err = h.assignments.Unassign(r.Context(), kind, req.LeftID, req.RightID)
		}
		if err != nil {
			h.fail(w, string(action), err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *Handler) enqueue(w http.ResponseWriter, r *http.Request, op assignment.Operation) {
	if h.jobs == nil {
		httpx.Problem(w, http.StatusServiceUnavailable, "Jobs Disabled", "no job queue configured")
		return
	}
	if op.LeftID <= 0 || op.RightID <= 0 {
		httpx.RespondError(w, shared.NewValidationError("id", "must be greater than 0"))
		return
	}
	taskID, err := h.jobs.EnqueueAssignments(r.Context(), []assignment.Operation{op})
	if err != nil {
		h.fail(w, "enqueue assignments", err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"taskId": taskID})
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Warn("console request failed", slog.String("op", op), slog.Any("error", err))
	httpx.RespondError(w, err)
}
