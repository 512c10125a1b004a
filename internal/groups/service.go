package groups

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// RepositoryPort defines data access methods for groups.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) (shared.Page[Group], error)
	Get(ctx context.Context, id int64) (Group, error)
	Create(ctx context.Context, in CreateInput) (Group, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Group, error)
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

// List returns one page of groups.
func (s *Service) List(ctx context.Context, params shared.ListParams) (shared.Page[Group], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, fmt.Errorf("groups: list: %w", err)
	}
	return page, nil
}

// Get returns a single group.
func (s *Service) Get(ctx context.Context, id int64) (Group, error) {
	if id <= 0 {
		return Group{}, shared.NewValidationError("id", "must be greater than 0")
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Group{}, fmt.Errorf("groups: get %d: %w", id, err)
	}
	return item, nil
}

// Create adds a permission group.
func (s *Service) Create(ctx context.Context, in CreateInput) (Group, error) {
	if err := shared.Validate(in); err != nil {
		return Group{}, err
	}
	item, err := s.repo.Create(ctx, in)
	if err != nil {
		return Group{}, fmt.Errorf("groups: create: %w", err)
	}
	return item, nil
}

// Update changes the non-nil fields of in.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Group, error) {
	if id <= 0 {
		return Group{}, shared.NewValidationError("id", "must be greater than 0")
	}
	if err := shared.Validate(in); err != nil {
		return Group{}, err
	}
	item, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Group{}, fmt.Errorf("groups: update %d: %w", id, err)
	}
	return item, nil
}

// Delete removes a group.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "", shared.NewValidationError("id", "must be greater than 0")
	}
	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("groups: delete %d: %w", id, err)
	}
	return msg, nil
}
