package permissions

import "github.com/odyssey-erp/rbac-console/internal/rbac"

// Permission is an atomic capability owned by at most one group.
type Permission = rbac.Permission

// CreateInput is the payload of POST /permessi.
type CreateInput struct {
	Name    string `json:"nome" validate:"required"`
	Alias   string `json:"alias,omitempty"`
	GroupID *int64 `json:"gruppoId,omitempty" validate:"omitempty,gt=0"`
}

// UpdateInput carries the fields to change. Setting GroupID moves the
// permission to another group.
type UpdateInput struct {
	Name    *string `json:"nome,omitempty" validate:"omitempty,min=1"`
	Alias   *string `json:"alias,omitempty"`
	GroupID *int64  `json:"gruppoId,omitempty" validate:"omitempty,gt=0"`
}
