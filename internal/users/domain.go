package users

import "github.com/odyssey-erp/rbac-console/internal/rbac"

// User is the account managed by this package.
type User = rbac.User

// CreateInput is the payload of POST /users.
type CreateInput struct {
	Name     string  `json:"name" validate:"required"`
	Surname  *string `json:"surname,omitempty"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,password_policy"`
	Active   *bool   `json:"active,omitempty"`
}

// UpdateInput carries the fields to change; nil fields are left untouched.
type UpdateInput struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Surname *string `json:"surname,omitempty"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Active  *bool   `json:"active,omitempty"`
}
