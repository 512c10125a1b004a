package shared

// Well-known permission names and prefixes used for navigation gating.
const (
	PermUsersMeRead   = "users.me.read"
	PermUsersMeUpdate = "users.me.update"

	PrefixUsers       = "users."
	PrefixUsersMe     = "users.me."
	PrefixRoles       = "ruoli."
	PrefixPermissions = "permessi."
	PrefixGroups      = "gruppi."
)

// AccountScopes lists the permissions that unlock the personal account page.
func AccountScopes() []string {
	return []string{
		PermUsersMeRead,
		PermUsersMeUpdate,
	}
}
