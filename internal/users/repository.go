package users

import (
	"context"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Repository reads and writes users through the backend.
type Repository struct {
	res *api.Resource[User]
}

// NewRepository binds the /users collection.
func NewRepository(caller api.Caller) *Repository {
	return &Repository{res: api.NewResource[User](caller, "/users", "user")}
}

func (r *Repository) List(ctx context.Context, params shared.ListParams) (shared.Page[User], error) {
	return r.res.List(ctx, params)
}

func (r *Repository) Get(ctx context.Context, id int64) (User, error) {
	return r.res.Get(ctx, id)
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (User, error) {
	return r.res.Create(ctx, in)
}

func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (User, error) {
	return r.res.Update(ctx, id, in)
}

func (r *Repository) Delete(ctx context.Context, id int64) (string, error) {
	return r.res.Delete(ctx, id)
}
