package rbac

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/rbac-console/internal/platform/httpx"
)

// PermissionResolver returns the caller's effective permissions. ok is false
// when the caller holds no session.
type PermissionResolver func(r *http.Request) (perms PermissionSet, ok bool)

// Middleware wires RBAC authorization helpers for HTTP handlers.
type Middleware struct {
	Resolve PermissionResolver
	Modules *ModuleRegistry
	Logger  *slog.Logger
}

// RequireAny ensures the current user has at least one of the required permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return m.guard("rbac require any", func(granted PermissionSet) bool {
		return len(normalized) == 0 || granted.HasAny(normalized...)
	})
}

// RequireModule ensures the module is visible to the current user.
func (m Middleware) RequireModule(name string) func(http.Handler) http.Handler {
	return m.guard("rbac require module", func(granted PermissionSet) bool {
		return m.Modules.IsVisible(name, granted)
	})
}

func (m Middleware) guard(op string, allowed func(PermissionSet) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			granted, ok := m.Resolve(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "login required")
				return
			}
			if allowed(granted) {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Warn(op+" denied", slog.String("path", r.URL.Path))
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "")
		})
	}
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, seen := unique[p]; seen {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
