// Package session owns the authenticated session and its token refresh.
package session

import (
	"context"

	"github.com/odyssey-erp/rbac-console/internal/rbac"
)

// State is the lifecycle position of the session.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	Refreshing
)

func (s State) String() string {
	switch s {
	case Anonymous:
		return "anonymous"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Refreshing:
		return "refreshing"
	default:
		return "unknown"
	}
}

// Credentials are the login inputs.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is a point-in-time copy of the authenticated principal.
type Session struct {
	AccessToken     string
	RefreshToken    string
	User            *rbac.User
	Permissions     []rbac.Permission
	PermissionNames rbac.PermissionSet
	Groups          []rbac.Group
	Loading         bool
	LastError       string
}

// IsAuthenticated reports whether an access token is held. The token may be expired.
func (s Session) IsAuthenticated() bool {
	return s.AccessToken != ""
}

// Menu derives navigation for the session.
func (s Session) Menu(modules *rbac.ModuleRegistry, icons *rbac.IconRegistry) rbac.Menu {
	return rbac.BuildMenu(s.Groups, s.PermissionNames, modules, icons)
}

func (s Session) clone() Session {
	out := s
	out.Permissions = append([]rbac.Permission(nil), s.Permissions...)
	out.Groups = append([]rbac.Group(nil), s.Groups...)
	if s.PermissionNames != nil {
		out.PermissionNames = s.PermissionNames.Union(nil)
	}
	return out
}

type loginResponse struct {
	Message      string `json:"message"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	rbac.Profile
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type ctxKey struct{}

// ContextWithManager stores m in ctx.
func ContextWithManager(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, ctxKey{}, m)
}

// FromContext returns the manager stored by ContextWithManager.
func FromContext(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(ctxKey{}).(*Manager)
	return m, ok && m != nil
}
