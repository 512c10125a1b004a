// Package auth implements the unauthenticated account flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Service wraps the account endpoints that need no session.
type Service struct {
	client api.Caller
}

// NewService constructs a new Service. client must not attach credentials.
func NewService(client api.Caller) *Service {
	return &Service{client: client}
}

type messageResponse struct {
	Message string `json:"message"`
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (RegisterResult, error) {
	if err := shared.Validate(in); err != nil {
		return RegisterResult{}, err
	}
	var out RegisterResult
	if err := s.client.Call(ctx, &api.Request{Method: http.MethodPost, Path: "/auth/register", Body: in}, &out); err != nil {
		return RegisterResult{}, fmt.Errorf("auth: register: %w", err)
	}
	return out, nil
}

// ForgotPassword asks the backend to mail a reset link.
func (s *Service) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (string, error) {
	if err := shared.Validate(in); err != nil {
		return "", err
	}
	var out messageResponse
	if err := s.client.Call(ctx, &api.Request{Method: http.MethodPost, Path: "/auth/forgot-password", Body: in}, &out); err != nil {
		return "", fmt.Errorf("auth: forgot password: %w", err)
	}
	return out.Message, nil
}

// ResetPassword sets a new password with a reset token.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (string, error) {
	if err := shared.Validate(in); err != nil {
		return "", err
	}
	var out messageResponse
	if err := s.client.Call(ctx, &api.Request{Method: http.MethodPost, Path: "/auth/reset-password", Body: in}, &out); err != nil {
		return "", fmt.Errorf("auth: reset password: %w", err)
	}
	return out.Message, nil
}

// VerifyResetToken reports whether token is still usable. A 400 or 404
// answer means false; other failures are errors.
func (s *Service) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, shared.NewValidationError("token", "is required")
	}
	err := s.client.Call(ctx, &api.Request{
		Method: http.MethodGet,
		Path:   "/auth/verify-reset-token",
		Query:  url.Values{"token": {token}},
	}, nil)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrRejected), errors.Is(err, shared.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("auth: verify reset token: %w", err)
	}
}
