package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultModuleVisibility(t *testing.T) {
	reg := NewModuleRegistry(DefaultModules()...)

	cases := []struct {
		name   string
		module string
		perms  []string
		want   bool
	}{
		{"users via users prefix", ModuleUsers, []string{"users.read"}, true},
		{"users.me does not unlock users", ModuleUsers, []string{"users.me.read", "users.me.update"}, false},
		{"roles", ModuleRoles, []string{"ruoli.create"}, true},
		{"roles missing", ModuleRoles, []string{"permessi.read"}, false},
		{"permissions", ModulePermissions, []string{"permessi.read"}, true},
		{"groups", ModuleGroups, []string{"gruppi.update"}, true},
		{"groups empty set", ModuleGroups, nil, false},
		{"account via me.read", ModuleAccount, []string{"users.me.read"}, true},
		{"account via me.update", ModuleAccount, []string{"users.me.update"}, true},
		{"account not via users.read", ModuleAccount, []string{"users.read"}, false},
		{"unknown module defaults visible", "Reports", nil, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, reg.IsVisible(tc.module, NewPermissionSet(tc.perms...)))
		})
	}
}

func TestRegistryAcceptsNewModulesAsData(t *testing.T) {
	reg := NewModuleRegistry(DefaultModules()...)
	reg.Register(ModuleRule{Name: "Audit", Prefixes: []string{"audit."}})

	assert.False(t, reg.IsVisible("Audit", NewPermissionSet("users.read")))
	assert.True(t, reg.IsVisible("Audit", NewPermissionSet("audit.read")))
}

func TestIconRegistryFallback(t *testing.T) {
	icons := DefaultIcons()

	assert.Equal(t, "FaUsers", icons.Resolve("FaUsers"))
	assert.Equal(t, DefaultIcon, icons.Resolve("FaDoesNotExist"))
	assert.Equal(t, DefaultIcon, icons.Resolve(""))
}

func TestBuildMenu(t *testing.T) {
	groups := []Group{
		{ID: 10, Name: ModuleGroups, Alias: "Gruppi", Icon: "FaLayerGroup", Ordinal: 4},
		{ID: 11, Name: ModuleUsers, Alias: "Utenti", Icon: "FaUsers", Ordinal: 1},
		{ID: 12, Name: ModuleRoles, Icon: "FaMissing", Ordinal: 2},
		{ID: 13, Name: "Reports", Ordinal: 3},
	}
	perms := NewPermissionSet("users.me.read", "ruoli.read", "gruppi.read")

	menu := BuildMenu(groups, perms, NewModuleRegistry(DefaultModules()...), DefaultIcons())

	assert.True(t, menu.Account)
	assert.True(t, menu.HasAdminModules)
	assert.Equal(t, []NavItem{
		{GroupID: 12, Name: ModuleRoles, Label: ModuleRoles, Path: "/dashboard/Ruoli", Icon: DefaultIcon},
		{GroupID: 13, Name: "Reports", Label: "Reports", Path: "/dashboard/Reports", Icon: DefaultIcon},
		{GroupID: 10, Name: ModuleGroups, Label: "Gruppi", Path: "/dashboard/Gruppi", Icon: "FaLayerGroup"},
	}, menu.Items)
}

func TestBuildMenuWithoutModules(t *testing.T) {
	menu := BuildMenu([]Group{{ID: 1, Name: ModuleUsers}}, NewPermissionSet(), NewModuleRegistry(DefaultModules()...), DefaultIcons())

	assert.False(t, menu.Account)
	assert.False(t, menu.HasAdminModules)
	assert.Empty(t, menu.Items)
}
