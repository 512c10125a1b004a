// Package backend is an in-memory RBAC backend used by tests.
package backend

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/rbac-console/internal/platform/httpx"
	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Seeded accounts.
const (
	AdminEmail    = "admin@example.com"
	AdminPassword = "Password1!"
	UserEmail     = "user@example.com"
	UserPassword  = "Password2!"
)

type account struct {
	user         rbac.User
	passwordHash []byte
}

func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(fmt.Sprintf("backend: hash password: %v", err))
	}
	return hash
}

func (a *account) checkPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)) == nil
}

// Server is a fake backend mounted under /api.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	nextID      int64
	tokenSeq    int64
	accounts    map[int64]*account
	roles       map[int64]*rbac.Role
	permissions map[int64]*rbac.Permission
	groups      map[int64]*rbac.Group
	userRoles   map[int64]map[int64]struct{}
	rolePerms   map[int64]map[int64]struct{}
	access      map[string]int64
	refresh     map[string]int64
	resets      map[string]int64
	refreshGate chan struct{}

	requests     atomic.Int64
	refreshCalls atomic.Int64
	loginCalls   atomic.Int64
	failRefresh  atomic.Bool
	failProfile  atomic.Bool
}

// New starts a seeded backend that is closed with the test.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:    make(map[int64]*account),
		roles:       make(map[int64]*rbac.Role),
		permissions: make(map[int64]*rbac.Permission),
		groups:      make(map[int64]*rbac.Group),
		userRoles:   make(map[int64]map[int64]struct{}),
		rolePerms:   make(map[int64]map[int64]struct{}),
		access:      make(map[string]int64),
		refresh:     make(map[string]int64),
		resets:      make(map[string]int64),
	}
	s.seed()
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

// URL is the API base URL.
func (s *Server) URL() string {
	return s.srv.URL + "/api"
}

// Close stops the server and releases any held refresh.
func (s *Server) Close() {
	s.mu.Lock()
	if s.refreshGate != nil {
		close(s.refreshGate)
		s.refreshGate = nil
	}
	s.mu.Unlock()
	s.srv.Close()
}

// Requests counts every request received.
func (s *Server) Requests() int64 { return s.requests.Load() }

// RefreshCalls counts POST /auth/refresh-token.
func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

// LoginCalls counts POST /auth/login.
func (s *Server) LoginCalls() int64 { return s.loginCalls.Load() }

// FailRefresh makes the refresh endpoint reject every token.
func (s *Server) FailRefresh(fail bool) { s.failRefresh.Store(fail) }

// FailProfile makes GET /users/me answer 500.
func (s *Server) FailProfile(fail bool) { s.failProfile.Store(fail) }

// ExpireAccessTokens invalidates every issued access token.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	s.access = make(map[string]int64)
	s.mu.Unlock()
}

// HoldRefresh blocks refresh requests until the returned func is called.
func (s *Server) HoldRefresh() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.refreshGate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.refreshGate == gate {
				s.refreshGate = nil
				close(gate)
			}
			s.mu.Unlock()
		})
	}
}

// IssueTokens logs email in directly and returns a token pair.
func (s *Server) IssueTokens(email string) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, acc := range s.accounts {
		if acc.user.Email == email {
			return s.issueLocked(id)
		}
	}
	panic(fmt.Sprintf("backend: unknown account %s", email))
}

// ResetToken returns the pending password-reset token for email.
func (s *Server) ResetToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, id := range s.resets {
		if acc, ok := s.accounts[id]; ok && acc.user.Email == email {
			return token
		}
	}
	return ""
}

// HasUserRole reports whether the edge exists.
func (s *Server) HasUserRole(userID, roleID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.userRoles[userID][roleID]
	return ok
}

// HasRolePermission reports whether the edge exists.
func (s *Server) HasRolePermission(roleID, permissionID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rolePerms[roleID][permissionID]
	return ok
}

// UserRoleCount returns the number of roles held by a user.
func (s *Server) UserRoleCount(userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userRoles[userID])
}

// UserID returns the id of the account with email, or 0.
func (s *Server) UserID(email string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, acc := range s.accounts {
		if acc.user.Email == email {
			return id
		}
	}
	return 0
}

// RoleID returns the id of the role named name, or 0.
func (s *Server) RoleID(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.roles {
		if r.Name == name {
			return id
		}
	}
	return 0
}

// PermissionID returns the id of the permission named name, or 0.
func (s *Server) PermissionID(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.permissions {
		if p.Name == name {
			return id
		}
	}
	return 0
}

func (s *Server) seed() {
	groupIDs := map[string]int64{}
	for i, g := range []rbac.Group{
		{Name: rbac.ModuleUsers, Alias: "Utenti", Icon: "FaUsers"},
		{Name: rbac.ModuleRoles, Alias: "Ruoli", Icon: "FaUserShield"},
		{Name: rbac.ModulePermissions, Alias: "Permessi", Icon: "FaKey"},
		{Name: rbac.ModuleGroups, Alias: "Gruppi", Icon: "FaLayerGroup"},
	} {
		g.ID = s.id()
		g.Ordinal = i + 1
		s.groups[g.ID] = &g
		groupIDs[g.Name] = g.ID
	}

	owner := map[string]string{
		shared.PrefixUsers:       rbac.ModuleUsers,
		shared.PrefixRoles:       rbac.ModuleRoles,
		shared.PrefixPermissions: rbac.ModulePermissions,
		shared.PrefixGroups:      rbac.ModuleGroups,
	}
	names := []string{
		shared.PermUsersMeRead, shared.PermUsersMeUpdate,
		"users.read", "users.create", "users.update", "users.delete",
		"ruoli.read", "ruoli.create", "ruoli.update", "ruoli.delete",
		"permessi.read", "permessi.create", "permessi.update", "permessi.delete",
		"gruppi.read", "gruppi.create", "gruppi.update", "gruppi.delete",
	}
	for _, name := range names {
		p := &rbac.Permission{ID: s.id(), Name: name, Alias: name}
		if !strings.HasPrefix(name, shared.PrefixUsersMe) {
			for prefix, group := range owner {
				if strings.HasPrefix(name, prefix) {
					gid := groupIDs[group]
					p.GroupID = &gid
				}
			}
		}
		s.permissions[p.ID] = p
	}

	admin := &rbac.Role{ID: s.id(), Name: "Admin", Ordinal: 1}
	member := &rbac.Role{ID: s.id(), Name: "Utente", Ordinal: 2}
	s.roles[admin.ID] = admin
	s.roles[member.ID] = member
	s.rolePerms[admin.ID] = map[int64]struct{}{}
	s.rolePerms[member.ID] = map[int64]struct{}{}
	for id, p := range s.permissions {
		s.rolePerms[admin.ID][id] = struct{}{}
		if strings.HasPrefix(p.Name, shared.PrefixUsersMe) {
			s.rolePerms[member.ID][id] = struct{}{}
		}
	}

	now := time.Now().UTC()
	adminID := s.addAccount(rbac.User{Email: AdminEmail, Name: "Ada", Active: true, Verified: true, CreatedAt: &now}, AdminPassword)
	userID := s.addAccount(rbac.User{Email: UserEmail, Name: "Ugo", Active: true, Verified: true, CreatedAt: &now}, UserPassword)
	s.userRoles[adminID] = map[int64]struct{}{admin.ID: {}}
	s.userRoles[userID] = map[int64]struct{}{member.ID: {}}
}

func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) addAccount(u rbac.User, password string) int64 {
	u.ID = s.id()
	s.accounts[u.ID] = &account{user: u, passwordHash: hashPassword(password)}
	s.userRoles[u.ID] = map[int64]struct{}{}
	return u.ID
}

func (s *Server) issueLocked(userID int64) (string, string) {
	s.tokenSeq++
	access := fmt.Sprintf("access-%d-%d", userID, s.tokenSeq)
	refresh := fmt.Sprintf("refresh-%d-%d", userID, s.tokenSeq)
	s.access[access] = userID
	s.refresh[refresh] = userID
	return access, refresh
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			s.requests.Add(1)
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/refresh-token", s.handleRefresh)
			r.Post("/logout", s.handleLogout)
			r.Post("/register", s.handleRegister)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password", s.handleResetPassword)
			r.Get("/verify-reset-token", s.handleVerifyResetToken)
		})
		r.Group(func(r chi.Router) {
			r.Use(s.requireBearer)
			r.Get("/users/me", s.handleMe)
			s.mountUsers(r)
			s.mountRoles(r)
			s.mountPermissions(r)
			s.mountGroups(r)
		})
	})
	return r
}

type ctxUserKey struct{}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		userID, ok := s.access[token]
		s.mu.Unlock()
		if !ok {
			message(w, http.StatusUnauthorized, "Token non valido o scaduto")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), userID)))
	})
}

func message(w http.ResponseWriter, status int, msg string) {
	httpx.JSON(w, status, map[string]string{"message": msg})
}

// profileLocked builds the /users/me payload.
func (s *Server) profileLocked(userID int64) map[string]any {
	user := s.userLocked(userID)
	perms := map[int64]rbac.Permission{}
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			perms[p.ID] = p
		}
	}
	flat := make([]rbac.Permission, 0, len(perms))
	for _, p := range perms {
		flat = append(flat, p)
	}
	sort.Slice(flat, func(i, j int) bool { return flat[i].ID < flat[j].ID })
	names := make([]string, 0, len(flat))
	for _, p := range flat {
		names = append(names, p.Name)
	}
	return map[string]any{
		"user":            user,
		"permissions":     flat,
		"permissionsList": names,
		"groups":          s.groupListLocked(),
	}
}

func (s *Server) userLocked(id int64) rbac.User {
	acc := s.accounts[id]
	user := acc.user
	user.Roles = []rbac.Role{}
	for roleID := range s.userRoles[id] {
		if role, ok := s.roles[roleID]; ok {
			user.Roles = append(user.Roles, s.roleLocked(role.ID))
		}
	}
	sort.Slice(user.Roles, func(i, j int) bool { return user.Roles[i].ID < user.Roles[j].ID })
	return user
}

func (s *Server) roleLocked(id int64) rbac.Role {
	role := *s.roles[id]
	role.Permissions = []rbac.Permission{}
	for permID := range s.rolePerms[id] {
		if p, ok := s.permissions[permID]; ok {
			role.Permissions = append(role.Permissions, *p)
		}
	}
	sort.Slice(role.Permissions, func(i, j int) bool { return role.Permissions[i].ID < role.Permissions[j].ID })
	return role
}

func (s *Server) groupLocked(id int64) rbac.Group {
	group := *s.groups[id]
	group.Permissions = []rbac.Permission{}
	for _, p := range s.permissions {
		if p.GroupID != nil && *p.GroupID == id {
			group.Permissions = append(group.Permissions, *p)
		}
	}
	sort.Slice(group.Permissions, func(i, j int) bool { return group.Permissions[i].ID < group.Permissions[j].ID })
	return group
}

func (s *Server) groupListLocked() []rbac.Group {
	out := make([]rbac.Group, 0, len(s.groups))
	for id := range s.groups {
		out = append(out, s.groupLocked(id))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
