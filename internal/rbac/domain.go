package rbac

import "time"

// User represents an account as returned by the backend.
type User struct {
	ID                int64      `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	Surname           *string    `json:"surname"`
	Active            bool       `json:"active"`
	Verified          bool       `json:"isVerified"`
	PrivacyAcceptedAt *time.Time `json:"privacyAcceptedAt,omitempty"`
	PolicyAcceptedAt  *time.Time `json:"policyAcceptedAt,omitempty"`
	Roles             []Role     `json:"ruoli,omitempty"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// FullName joins name and surname when present.
func (u User) FullName() string {
	if u.Surname == nil || *u.Surname == "" {
		return u.Name
	}
	return u.Name + " " + *u.Surname
}

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"nome"`
	Ordinal     int          `json:"ordine"`
	Permissions []Permission `json:"permessi,omitempty"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
}

// Permission represents an atomic capability.
type Permission struct {
	ID        int64      `json:"id"`
	Name      string     `json:"nome"`
	Alias     string     `json:"alias"`
	GroupID   *int64     `json:"gruppoId"`
	Group     *Group     `json:"gruppo,omitempty"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// Group buckets permissions for display and drives menu visibility.
type Group struct {
	ID          int64        `json:"id"`
	Name        string       `json:"nome"`
	Alias       string       `json:"alias"`
	Icon        string       `json:"icona,omitempty"`
	Ordinal     int          `json:"ordine"`
	Permissions []Permission `json:"permessi,omitempty"`
	CreatedAt   *time.Time   `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time   `json:"updatedAt,omitempty"`
}

// Label returns the alias, falling back to the name.
func (g Group) Label() string {
	if g.Alias != "" {
		return g.Alias
	}
	return g.Name
}

// Profile is the authenticated principal as delivered by login and /users/me.
type Profile struct {
	User            *User        `json:"user"`
	Permissions     []Permission `json:"permissions"`
	PermissionsList []string     `json:"permissionsList,omitempty"`
	Groups          []Group      `json:"groups"`
}

// EffectivePermissions derives the flat permission-name set of the profile.
// Names come from the structured permissions and from every role held by the
// user; the backend's permissionsList is used only when neither is present.
func (p Profile) EffectivePermissions() PermissionSet {
	set := PermissionNames(p.Permissions)
	if p.User != nil {
		set = set.Union(EffectivePermissionNames(p.User.Roles))
	}
	if len(set) == 0 && len(p.PermissionsList) > 0 {
		set = NewPermissionSet(p.PermissionsList...)
	}
	return set
}
