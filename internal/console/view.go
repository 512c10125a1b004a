package console

import (
	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/session"
)

// sessionView is the public shape of a session. Tokens never leave the process.
type sessionView struct {
	State         string       `json:"state"`
	Authenticated bool         `json:"authenticated"`
	User          *rbac.User   `json:"user,omitempty"`
	Permissions   []string     `json:"permissions"`
	Groups        []rbac.Group `json:"groups"`
	LastError     string       `json:"lastError,omitempty"`
}

func newSessionView(state session.State, s session.Session) sessionView {
	groups := s.Groups
	if groups == nil {
		groups = []rbac.Group{}
	}
	return sessionView{
		State:         state.String(),
		Authenticated: s.IsAuthenticated(),
		User:          s.User,
		Permissions:   s.PermissionNames.Names(),
		Groups:        groups,
		LastError:     s.LastError,
	}
}
