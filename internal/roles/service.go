package roles

import (
	"context"
	"fmt"

	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	List(ctx context.Context, params shared.ListParams) (shared.Page[Role], error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, in CreateInput) (Role, error)
	Update(ctx context.Context, id int64, in UpdateInput) (Role, error)
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

func (s *Service) List(ctx context.Context, params shared.ListParams) (shared.Page[Role], error) {
	page, err := s.repo.List(ctx, params)
	if err != nil {
		return page, fmt.Errorf("roles: list: %w", err)
	}
	return page, nil
}

// Get returns a single role.
func (s *Service) Get(ctx context.Context, id int64) (Role, error) {
	if id <= 0 {
		return Role{}, shared.NewValidationError("id", "must be greater than 0")
	}
	item, err := s.repo.Get(ctx, id)
	if err != nil {
		return Role{}, fmt.Errorf("roles: get %d: %w", id, err)
	}
	return item, nil
}

// Create adds a role. Role names are unique on the backend.
func (s *Service) Create(ctx context.Context, in CreateInput) (Role, error) {
	if err := shared.Validate(in); err != nil {
		return Role{}, err
	}
	item, err := s.repo.Create(ctx, in)
	if err != nil {
		return Role{}, fmt.Errorf("roles: create: %w", err)
	}
	return item, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (Role, error) {
	if id <= 0 {
		return Role{}, shared.NewValidationError("id", "must be greater than 0")
	}
	if err := shared.Validate(in); err != nil {
		return Role{}, err
	}
	item, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return Role{}, fmt.Errorf("roles: update %d: %w", id, err)
	}
	return item, nil
}

// Delete removes a role.
func (s *Service) Delete(ctx context.Context, id int64) (string, error) {
	if id <= 0 {
		return "", shared.NewValidationError("id", "must be greater than 0")
	}
	msg, err := s.repo.Delete(ctx, id)
	if err != nil {
		return "", fmt.Errorf("roles: delete %d: %w", id, err)
	}
	return msg, nil
}
