package auth

import "github.com/odyssey-erp/rbac-console/internal/rbac"

// RegisterInput is the self-registration payload.
type RegisterInput struct {
	Name            string  `json:"name" validate:"required"`
	Surname         *string `json:"surname,omitempty"`
	Email           string  `json:"email" validate:"required,email"`
	Password        string  `json:"password" validate:"required,password_policy"`
	PrivacyAccepted bool    `json:"privacyAccepted" validate:"eq=true"`
	PolicyAccepted  bool    `json:"policyAccepted" validate:"eq=true"`
}

// RegisterResult is the backend answer to a registration.
type RegisterResult struct {
	Message string     `json:"message"`
	User    *rbac.User `json:"user"`
}

// ForgotPasswordInput starts the reset flow.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordInput completes the reset flow.
type ResetPasswordInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,password_policy"`
}
