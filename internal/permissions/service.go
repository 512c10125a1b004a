package permissions

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// RepositoryPort defines data access methods for permissions.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) (shared.Page[Permission], error)
	Get(ctx context.Context, id int64) (Permission, error)
	Create(ctx context.Context, in CreateInput) (Permission, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Permission, error)
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

// List returns one page of permissions.
func (s *Service) List(ctx context.Context, params shared.ListParams) (shared.Page[Permission], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, fmt.Errorf("permissions: list: %w", err)
	}
	return page, nil
}

// Get returns a single permission.
func (s *Service) Get(ctx context.Context, id int64) (Permission, error) {
	if id <= 0 {
		return Permission{}, shared.NewValidationError("id", "must be greater than 0")
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Permission{}, fmt.Errorf("permissions: get %d: %w", id, err)
	}
	return item, nil
}

// Create adds a permission, optionally owned by a group.
func (s *Service) Create(ctx context.Context, in CreateInput) (Permission, error) {
	if err := shared.Validate(in); err != nil {
		return Permission{}, err
	}
	item, err := s.repo.Create(ctx, in)
	if err != nil {
		return Permission{}, fmt.Errorf("permissions: create: %w", err)
	}
	return item, nil
}

// Update changes the non-nil fields of in.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	if id <= 0 {
		return Permission{}, shared.NewValidationError("id", "must be greater than 0")
	}
	if err := shared.Validate(in); err != nil {
		return Permission{}, err
	}
	item, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Permission{}, fmt.Errorf("permissions: update %d: %w", id, err)
	}
	return item, nil
}

// Delete removes a permission.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "", shared.NewValidationError("id", "must be greater than 0")
	}
	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("permissions: delete %d: %w", id, err)
	}
	return msg, nil
}

// AssignGroup moves a permission to groupID. A permission has at most one owning group.
func (s *Service) AssignGroup(ctx context.Context, id, groupID int64) (Permission, error) {
	if groupID <= 0 {
		return Permission{}, shared.NewValidationError("gruppoId", "must be greater than 0")
	}
	return s.Update(ctx, id, UpdateInput{GroupID: &groupID})
}
