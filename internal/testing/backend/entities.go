package backend

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/rbac-console/internal/platform/httpx"
	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// listing filters, sorts and pages rows. key returns the value compared for
// search and for sortBy fields other than "id".
func listing[T any](rows []T, params shared.ListParams, id func(T) int64, key func(T, string) string) shared.Page[T] {
	if q := strings.ToLower(strings.TrimSpace(params.Search)); q != "" {
		filtered := rows[:0]
		for _, row := range rows {
			if strings.Contains(strings.ToLower(key(row, "")), q) {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if params.SortBy == "" || params.SortBy == "id" {
			return id(rows[i]) < id(rows[j])
		}
		return key(rows[i], params.SortBy) < key(rows[j], params.SortBy)
	})
	if strings.EqualFold(params.SortOrder, shared.SortDesc) {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	page, size := params.Page, params.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 10
	}
	total := len(rows)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	return shared.Page[T]{Pagination: shared.NewPagination(page, size, total, rows[start:end])}
}

func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) mountUsers(r chi.Router) {
	r.Get("/users", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rows := make([]rbac.User, 0, len(s.accounts))
		for id := range s.accounts {
			rows = append(rows, s.userLocked(id))
		}
		s.mu.Unlock()
		httpx.JSON(w, http.StatusOK, listing(rows, shared.ParseListParams(r.URL.Query()),
			func(u rbac.User) int64 { return u.ID },
			func(u rbac.User, field string) string {
				if field == "name" {
					return u.Name
				}
				return u.Email + " " + u.FullName()
			}))
	})
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.accounts[id]; !ok {
			message(w, http.StatusNotFound, "Utente non trovato")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"user": s.userLocked(id)})
	})
	r.Post("/users", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name     string  `json:"name"`
			Surname  *string `json:"surname"`
			Email    string  `json:"email"`
			Password string  `json:"password"`
			Active   *bool   `json:"active"`
		}
		if err := httpx.DecodeJSON(r, &body); err != nil || body.Email == "" {
			message(w, http.StatusBadRequest, "Dati mancanti")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, acc := range s.accounts {
			if acc.user.Email == body.Email {
				message(w, http.StatusConflict, "Email già registrata")
				return
			}
		}
		now := time.Now().UTC()
		active := body.Active == nil || *body.Active
		id := s.addAccount(rbac.User{Email: body.Email, Name: body.Name, Surname: body.Surname, Active: active, CreatedAt: &now}, body.Password)
		httpx.JSON(w, http.StatusCreated, s.userLocked(id))
	})
	r.Put("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		var body struct {
			Name    *string `json:"name"`
			Surname *string `json:"surname"`
			Email   *string `json:"email"`
			Active  *bool   `json:"active"`
		}
		if err := httpx.DecodeJSON(r, &body); err != nil {
			message(w, http.StatusBadRequest, "Richiesta non valida")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		acc, ok := s.accounts[id]
		if !ok {
			message(w, http.StatusNotFound, "Utente non trovato")
			return
		}
		if body.Name != nil {
			acc.user.Name = *body.Name
		}
		if body.Surname != nil {
			acc.user.Surname = body.Surname
		}
		if body.Email != nil {
			acc.user.Email = *body.Email
		}
		if body.Active != nil {
			acc.user.Active = *body.Active
		}
		now := time.Now().UTC()
		acc.user.UpdatedAt = &now
		httpx.JSON(w, http.StatusOK, map[string]any{"user": s.userLocked(id)})
	})
	r.Delete("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.accounts[id]; !ok {
			message(w, http.StatusNotFound, "Utente non trovato")
			return
		}
		delete(s.accounts, id)
		delete(s.userRoles, id)
		message(w, http.StatusOK, "Utente eliminato")
	})
}

type roleBody struct {
	Name    *string `json:"nome"`
	Ordinal *int    `json:"ordine"`
}

func (s *Server) mountRoles(r chi.Router) {
	r.Get("/ruoli", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rows := make([]rbac.Role, 0, len(s.roles))
		for id := range s.roles {
			rows = append(rows, s.roleLocked(id))
		}
		s.mu.Unlock()
		httpx.JSON(w, http.StatusOK, listing(rows, shared.ParseListParams(r.URL.Query()),
			func(role rbac.Role) int64 { return role.ID },
			func(role rbac.Role, field string) string {
				if field == "ordine" {
					return strconv.Itoa(role.Ordinal)
				}
				return role.Name
			}))
	})
	r.Get("/ruoli/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.roles[id]; !ok {
			message(w, http.StatusNotFound, "Ruolo non trovato")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"ruolo": s.roleLocked(id)})
	})
	r.Post("/ruoli", func(w http.ResponseWriter, r *http.Request) {
		var body roleBody
		if err := httpx.DecodeJSON(r, &body); err != nil || body.Name == nil || *body.Name == "" {
			message(w, http.StatusBadRequest, "Nome obbligatorio")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, existing := range s.roles {
			if existing.Name == *body.Name {
				message(w, http.StatusConflict, "Ruolo già esistente")
				return
			}
		}
		role := &rbac.Role{ID: s.id(), Name: *body.Name}
		if body.Ordinal != nil {
			role.Ordinal = *body.Ordinal
		}
		s.roles[role.ID] = role
		s.rolePerms[role.ID] = map[int64]struct{}{}
		httpx.JSON(w, http.StatusCreated, map[string]any{"ruolo": s.roleLocked(role.ID)})
	})
	r.Put("/ruoli/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		var body roleBody
		if err := httpx.DecodeJSON(r, &body); err != nil {
			message(w, http.StatusBadRequest, "Richiesta non valida")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		role, ok := s.roles[id]
		if !ok {
			message(w, http.StatusNotFound, "Ruolo non trovato")
			return
		}
		if body.Name != nil {
			role.Name = *body.Name
		}
		if body.Ordinal != nil {
			role.Ordinal = *body.Ordinal
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"ruolo": s.roleLocked(id)})
	})
	r.Delete("/ruoli/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.roles[id]; !ok {
			message(w, http.StatusNotFound, "Ruolo non trovato")
			return
		}
		delete(s.roles, id)
		delete(s.rolePerms, id)
		for _, held := range s.userRoles {
			delete(held, id)
		}
		message(w, http.StatusOK, "Ruolo eliminato")
	})

	// User↔Role edges; {id} is the user.
	r.Post("/ruoli/{id}/assegna", s.edgeHandler(true, "ruoloId", s.userRoleEdge))
	r.Post("/ruoli/{id}/disassegna", s.edgeHandler(false, "ruoloId", s.userRoleEdge))
}

type permissionBody struct {
	Name    *string `json:"nome"`
	Alias   *string `json:"alias"`
	GroupID *int64  `json:"gruppoId"`
}

func (s *Server) mountPermissions(r chi.Router) {
	r.Get("/permessi", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rows := make([]rbac.Permission, 0, len(s.permissions))
		for _, p := range s.permissions {
			rows = append(rows, *p)
		}
		s.mu.Unlock()
		httpx.JSON(w, http.StatusOK, listing(rows, shared.ParseListParams(r.URL.Query()),
			func(p rbac.Permission) int64 { return p.ID },
			func(p rbac.Permission, field string) string {
				if field == "alias" {
					return p.Alias
				}
				return p.Name
			}))
	})
	r.Get("/permessi/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.permissions[id]
		if !ok {
			message(w, http.StatusNotFound, "Permesso non trovato")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"permesso": s.withGroupLocked(*p)})
	})
	r.Post("/permessi", func(w http.ResponseWriter, r *http.Request) {
		var body permissionBody
		if err := httpx.DecodeJSON(r, &body); err != nil || body.Name == nil || *body.Name == "" {
			message(w, http.StatusBadRequest, "Nome obbligatorio")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, existing := range s.permissions {
			if existing.Name == *body.Name {
				message(w, http.StatusConflict, "Permesso già esistente")
				return
			}
		}
		if body.GroupID != nil {
			if _, ok := s.groups[*body.GroupID]; !ok {
				message(w, http.StatusNotFound, "Gruppo non trovato")
				return
			}
		}
		p := &rbac.Permission{ID: s.id(), Name: *body.Name, GroupID: body.GroupID}
		if body.Alias != nil {
			p.Alias = *body.Alias
		}
		s.permissions[p.ID] = p
		httpx.JSON(w, http.StatusCreated, map[string]any{"permesso": s.withGroupLocked(*p)})
	})
	r.Put("/permessi/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		var body permissionBody
		if err := httpx.DecodeJSON(r, &body); err != nil {
			message(w, http.StatusBadRequest, "Richiesta non valida")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		p, ok := s.permissions[id]
		if !ok {
			message(w, http.StatusNotFound, "Permesso non trovato")
			return
		}
		if body.GroupID != nil {
			if _, ok := s.groups[*body.GroupID]; !ok {
				message(w, http.StatusNotFound, "Gruppo non trovato")
				return
			}
			gid := *body.GroupID
			p.GroupID = &gid
		}
		if body.Name != nil {
			p.Name = *body.Name
		}
		if body.Alias != nil {
			p.Alias = *body.Alias
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"permesso": s.withGroupLocked(*p)})
	})
	r.Delete("/permessi/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.permissions[id]; !ok {
			message(w, http.StatusNotFound, "Permesso non trovato")
			return
		}
		delete(s.permissions, id)
		for _, held := range s.rolePerms {
			delete(held, id)
		}
		message(w, http.StatusOK, "Permesso eliminato")
	})

	// Role↔Permission edges; {id} is the role.
	r.Post("/permessi/{id}/assegna", s.edgeHandler(true, "permessoId", s.rolePermissionEdge))
	r.Post("/permessi/{id}/disassegna", s.edgeHandler(false, "permessoId", s.rolePermissionEdge))
}

func (s *Server) withGroupLocked(p rbac.Permission) rbac.Permission {
	if p.GroupID != nil {
		if g, ok := s.groups[*p.GroupID]; ok {
			group := *g
			p.Group = &group
		}
	}
	return p
}

type groupBody struct {
	Name    *string `json:"nome"`
	Alias   *string `json:"alias"`
	Icon    *string `json:"icona"`
	Ordinal *int    `json:"ordine"`
}

func (b groupBody) apply(g *rbac.Group) {
	if b.Name != nil {
		g.Name = *b.Name
	}
	if b.Alias != nil {
		g.Alias = *b.Alias
	}
	if b.Icon != nil {
		g.Icon = *b.Icon
	}
	if b.Ordinal != nil {
		g.Ordinal = *b.Ordinal
	}
}

func (s *Server) mountGroups(r chi.Router) {
	r.Get("/gruppi", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		rows := s.groupListLocked()
		s.mu.Unlock()
		httpx.JSON(w, http.StatusOK, listing(rows, shared.ParseListParams(r.URL.Query()),
			func(g rbac.Group) int64 { return g.ID },
			func(g rbac.Group, field string) string {
				if field == "ordine" {
					return strconv.Itoa(g.Ordinal)
				}
				return g.Name + " " + g.Alias
			}))
	})
	r.Get("/gruppi/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.groups[id]; !ok {
			message(w, http.StatusNotFound, "Gruppo non trovato")
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"gruppo": s.groupLocked(id)})
	})
	r.Post("/gruppi", func(w http.ResponseWriter, r *http.Request) {
		var body groupBody
		if err := httpx.DecodeJSON(r, &body); err != nil || body.Name == nil || *body.Name == "" {
			message(w, http.StatusBadRequest, "Nome obbligatorio")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, existing := range s.groups {
			if existing.Name == *body.Name {
				message(w, http.StatusConflict, "Gruppo già esistente")
				return
			}
		}
		g := &rbac.Group{ID: s.id()}
		body.apply(g)
		s.groups[g.ID] = g
		httpx.JSON(w, http.StatusCreated, map[string]any{"gruppo": s.groupLocked(g.ID)})
	})
	r.Put("/gruppi/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		var body groupBody
		if err := httpx.DecodeJSON(r, &body); err != nil {
			message(w, http.StatusBadRequest, "Richiesta non valida")
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		g, ok := s.groups[id]
		if !ok {
			message(w, http.StatusNotFound, "Gruppo non trovato")
			return
		}
		body.apply(g)
		httpx.JSON(w, http.StatusOK, map[string]any{"gruppo": s.groupLocked(id)})
	})
	r.Delete("/gruppi/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.groups[id]; !ok {
			message(w, http.StatusNotFound, "Gruppo non trovato")
			return
		}
		delete(s.groups, id)
		for _, p := range s.permissions {
			if p.GroupID != nil && *p.GroupID == id {
				p.GroupID = nil
			}
		}
		message(w, http.StatusOK, "Gruppo eliminato")
	})
}

// edge resolves the adjacency set for (left, right); ok is false when
// either endpoint is unknown.
type edge func(left, right int64) (set map[int64]struct{}, ok bool)

func (s *Server) userRoleEdge(userID, roleID int64) (map[int64]struct{}, bool) {
	if _, ok := s.accounts[userID]; !ok {
		return nil, false
	}
	if _, ok := s.roles[roleID]; !ok {
		return nil, false
	}
	if s.userRoles[userID] == nil {
		s.userRoles[userID] = map[int64]struct{}{}
	}
	return s.userRoles[userID], true
}

func (s *Server) rolePermissionEdge(roleID, permID int64) (map[int64]struct{}, bool) {
	if _, ok := s.roles[roleID]; !ok {
		return nil, false
	}
	if _, ok := s.permissions[permID]; !ok {
		return nil, false
	}
	if s.rolePerms[roleID] == nil {
		s.rolePerms[roleID] = map[int64]struct{}{}
	}
	return s.rolePerms[roleID], true
}

func (s *Server) edgeHandler(assign bool, field string, resolve edge) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		left, _ := pathID(r)
		var body map[string]int64
		if err := httpx.DecodeJSON(r, &body); err != nil || body[field] <= 0 {
			message(w, http.StatusBadRequest, field+" obbligatorio")
			return
		}
		right := body[field]

		s.mu.Lock()
		defer s.mu.Unlock()
		set, ok := resolve(left, right)
		if !ok {
			message(w, http.StatusNotFound, "Risorsa non trovata")
			return
		}
		_, exists := set[right]
		switch {
		case assign && exists:
			message(w, http.StatusConflict, "Già assegnato")
		case assign:
			set[right] = struct{}{}
			message(w, http.StatusOK, "Assegnato")
		case !exists:
			message(w, http.StatusNotFound, "Assegnazione non trovata")
		default:
			delete(set, right)
			message(w, http.StatusOK, "Rimosso")
		}
	}
}
