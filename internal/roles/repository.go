package roles

import (
	"context"

	"github.com/odyssey-erp/rbac-console/internal/api"
	"github.com/odyssey-erp/rbac-console/internal/shared"
)

// Repository reads and writes roles through the backend.
type Repository struct {
	res *api.Resource[Role]
}

// NewRepository binds the /ruoli collection.
func NewRepository(caller api.Caller) *Repository {
	return &Repository{res: api.NewResource[Role](caller, "/ruoli", "ruolo")}
}

func (r *Repository) List(ctx context.Context, params shared.ListParams) (shared.Page[Role], error) {
	return r.res.List(ctx, params)
}

func (r *Repository) Get(ctx context.Context, id int64) (Role, error) {
	return r.res.Get(ctx, id)
}

func (r *Repository) Create(ctx context.Context, in CreateInput) (Role, error) {
	return r.res.Create(ctx, in)
}

func (r *Repository) Update(ctx context.Context, id int64, in UpdateInput) (Role, error) {
	return r.res.Update(ctx, id, in)
}

func (r *Repository) Delete(ctx context.Context, id int64) (string, error) {
	return r.res.Delete(ctx, id)
}
