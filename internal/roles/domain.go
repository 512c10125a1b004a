package roles

import "github.com/odyssey-erp/rbac-console/internal/rbac"

// Role is a named bundle of permissions.
type Role = rbac.Role

// CreateInput is the payload of POST /ruoli.
type CreateInput struct {
	Name    string `json:"nome" validate:"required"`
	Ordinal *int   `json:"ordine,omitempty" validate:"omitempty,gte=0"`
}

// UpdateInput carries the fields to change.
type UpdateInput struct {
	Name    *string `json:"nome,omitempty" validate:"omitempty,min=1"`
	Ordinal *int    `json:"ordine,omitempty" validate:"omitempty,gte=0"`
}
