package permissions

import (
	"context"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Repository reads and writes permissions through the backend.
type Repository struct {
	res *api.Resource[Permission]
}

// NewRepository binds the /permessi collection.
func NewRepository(caller api.Caller) *Repository {
	return &Repository{res: api.NewResource[Permission](caller, "/permessi", "permesso")}
}

func (r *Repository) List(ctx context.Context, params shared.ListParams) (shared.Page[Permission], error) {
	return r.res.List(ctx, params)
}

func (r *Repository) Get(ctx context.Context, id int64) (Permission, error) {
	return r.res.Get(ctx, id)
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (Permission, error) {
	return r.res.Create(ctx, in)
}

func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (Permission, error) {
	return r.res.Update(ctx, id, in)
}

func (r *Repository) Delete(ctx context.Context, id int64) (string, error) {
	return r.res.Delete(ctx, id)
}
