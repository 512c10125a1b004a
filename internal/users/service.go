package users

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) (shared.Page[User], error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, in CreateInput) (User, error)
	Update(ctx context.Context, id int64, in UpdateInput) (User, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// Service validates input before it reaches the backend.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// List returns one page of users.
func (s *Service) List(ctx context.Context, params shared.ListParams) (shared.Page[User], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, fmt.Errorf("users: list: %w", err)
	}
	return page, nil
}

// Get returns a single user.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, shared.NewValidationError("id", "must be greater than 0")
	}
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("users: get %d: %w", id, err)
	}
	return user, nil
}

// Create registers a user on behalf of an administrator.
func (s *Service) Create(ctx context.Context, in CreateInput) (User, error) {
	if err := shared.Validate(in); err != nil {
		return User{}, err
	}
	user, err := s.repo.Create(ctx, in)
	if err != nil {
		return User{}, fmt.Errorf("users: create: %w", err)
	}
	return user, nil
}

// Update changes the non-nil fields of in.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	if id <= 0 {
		return User{}, shared.NewValidationError("id", "must be greater than 0")
	}
	if err := shared.Validate(in); err != nil {
		return User{}, err
	}
	user, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return User{}, fmt.Errorf("users: update %d: %w", id, err)
	}
	return user, nil
}

// Delete removes a user.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "", shared.NewValidationError("id", "must be greater than 0")
	}
	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("users: delete %d: %w", id, err)
	}
	return msg, nil
}
