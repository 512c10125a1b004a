package groups

import "github.com/odyssey-erp/rbac-console/internal/rbac"

// Group buckets permissions for display.
type Group = rbac.Group

// CreateInput is the payload of POST /gruppi.
type CreateInput struct {
	Name    string `json:"nome" validate:"required"`
	Alias   string `json:"alias,omitempty"`
	Icon    string `json:"icona,omitempty"`
	Ordinal *int   `json:"ordine,omitempty" validate:"omitempty,gte=0"`
}

// UpdateInput carries the fields to change.
type UpdateInput struct {
	Name    *string `json:"nome,omitempty" validate:"omitempty,min=1"`
	Alias   *string `json:"alias,omitempty"`
	Icon    *string `json:"icona,omitempty"`
	Ordinal *int    `json:"ordine,omitempty" validate:"omitempty,gte=0"`
}
