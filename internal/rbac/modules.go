package rbac

import (
	"strings"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Module names with visibility rules in the default table.
const (
	ModuleAccount     = "account"
	ModuleUsers       = "Users"
	ModuleRoles       = "Ruoli"
	ModulePermissions = "Permessi"
	ModuleGroups      = "Gruppi"
)

// ModuleRule decides whether a module is visible for a permission set.
// A rule matches when any Exact name is granted, or when any granted name
// starts with one of Prefixes without also starting with one of Exclude.
type ModuleRule struct {
	Name     string
	Prefixes []string
	Exclude  []string
	Exact    []string
}

func (r ModuleRule) allows(perms PermissionSet) bool {
	if perms.HasAny(r.Exact...) {
		return true
	}
	for name := range perms {
		if r.matchesPrefix(name) {
			return true
		}
	}
	return false
}

func (r ModuleRule) matchesPrefix(name string) bool {
	for _, ex := range r.Exclude {
		if strings.HasPrefix(name, ex) {
			return false
		}
	}
	for _, prefix := range r.Prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// DefaultModules is the built-in visibility table.
func DefaultModules() []ModuleRule {
	return []ModuleRule{
		{Name: ModuleAccount, Exact: shared.AccountScopes()},
		{Name: ModuleUsers, Prefixes: []string{shared.PrefixUsers}, Exclude: []string{shared.PrefixUsersMe}},
		{Name: ModuleRoles, Prefixes: []string{shared.PrefixRoles}},
		{Name: ModulePermissions, Prefixes: []string{shared.PrefixPermissions}},
		{Name: ModuleGroups, Prefixes: []string{shared.PrefixGroups}},
	}
}

// ModuleRegistry maps module names to visibility rules.
type ModuleRegistry struct {
	rules map[string]ModuleRule
}

// NewModuleRegistry builds a registry; later rules replace earlier ones with the same name.
func NewModuleRegistry(rules ...ModuleRule) *ModuleRegistry {
	reg := &ModuleRegistry{rules: make(map[string]ModuleRule, len(rules))}
	for _, rule := range rules {
		reg.Register(rule)
	}
	return reg
}

// Register adds or replaces a rule.
func (r *ModuleRegistry) Register(rule ModuleRule) {
	r.rules[rule.Name] = rule
}

// IsVisible reports whether a module is visible. Modules without a rule are visible.
func (r *ModuleRegistry) IsVisible(name string, perms PermissionSet) bool {
	if r == nil {
		return true
	}
	rule, ok := r.rules[name]
	if !ok {
		return true
	}
	return rule.allows(perms)
}

// VisibleGroups sorts groups by ordinal and keeps only the visible ones.
func (r *ModuleRegistry) VisibleGroups(groups []Group, perms PermissionSet) []Group {
	sorted := SortGroupsByOrdinal(groups)
	out := sorted[:0]
	for _, g := range sorted {
		if r.IsVisible(g.Name, perms) {
			out = append(out, g)
		}
	}
	return out
}

// DefaultIcon is used for empty or unknown icon names.
const DefaultIcon = "FaRocket"

// IconRegistry resolves icon names against a fixed known set.
type IconRegistry struct {
	known    map[string]struct{}
	fallback string
}

// NewIconRegistry builds a registry of known icon names.
func NewIconRegistry(fallback string, names ...string) *IconRegistry {
	if fallback == "" {
		fallback = DefaultIcon
	}
	reg := &IconRegistry{known: make(map[string]struct{}, len(names)+1), fallback: fallback}
	reg.known[fallback] = struct{}{}
	for _, n := range names {
		reg.known[n] = struct{}{}
	}
	return reg
}

// DefaultIcons lists the icons the backend seeds for its groups.
func DefaultIcons() *IconRegistry {
	return NewIconRegistry(DefaultIcon,
		"FaUsers", "FaUserShield", "FaKey", "FaLayerGroup", "FaUserCircle",
		"FaCog", "FaLock", "FaUserTag", "FaListUl", "FaShieldAlt",
	)
}

// Resolve returns name if known, otherwise the fallback.
func (r *IconRegistry) Resolve(name string) string {
	if r == nil {
		return DefaultIcon
	}
	if _, ok := r.known[name]; ok {
		return name
	}
	return r.fallback
}

// NavItem is a single entry of the administration menu.
type NavItem struct {
	GroupID int64  `json:"groupId"`
	Name    string `json:"name"`
	Label   string `json:"label"`
	Path    string `json:"path"`
	Icon    string `json:"icon"`
}

// Menu is the navigation derived from a session.
type Menu struct {
	Account         bool      `json:"account"`
	HasAdminModules bool      `json:"hasAdminModules"`
	Items           []NavItem `json:"items"`
}

// BuildMenu derives navigation from groups and the effective permission set.
func BuildMenu(groups []Group, perms PermissionSet, modules *ModuleRegistry, icons *IconRegistry) Menu {
	visible := modules.VisibleGroups(groups, perms)
	items := make([]NavItem, 0, len(visible))
	for _, g := range visible {
		items = append(items, NavItem{
			GroupID: g.ID,
			Name:    g.Name,
			Label:   g.Label(),
			Path:    "/dashboard/" + g.Name,
			Icon:    icons.Resolve(g.Icon),
		})
	}
	return Menu{
		Account:         modules.IsVisible(ModuleAccount, perms),
		HasAdminModules: len(items) > 0,
		Items:           items,
	}
}
