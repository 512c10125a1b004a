package roles

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/testing/backend"
)

func TestRoleLifecycle(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))
	ctx := context.Background()

	ordinal := 5
	created, err := svc.Create(ctx, CreateInput{Name: "Revisore", Ordinal: &ordinal})
	require.NoError(t, err)
	assert.Equal(t, "Revisore", created.Name)
	assert.Equal(t, 5, created.Ordinal)
	assert.Empty(t, created.Permissions)

	_, err = svc.Create(ctx, CreateInput{Name: "Revisore"})
	assert.ErrorIs(t, err, shared.ErrConflict)

	name := "Auditor"
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Auditor", updated.Name)
	assert.Equal(t, 5, updated.Ordinal)

	page, err := svc.List(ctx, shared.ListParams{SortBy: "nome"})
	require.NoError(t, err)
	require.Len(t, page.Pagination.Data, 3)
	assert.Equal(t, []string{"Admin", "Auditor", "Utente"}, []string{
		page.Pagination.Data[0].Name, page.Pagination.Data[1].Name, page.Pagination.Data[2].Name,
	})

	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRoleValidation(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))
	before := srv.Requests()

	_, err := svc.Create(context.Background(), CreateInput{})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["nome"])

	negative := -1
	_, err = svc.Update(context.Background(), 1, UpdateInput{Ordinal: &negative})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "ordine")
	assert.Equal(t, before, srv.Requests())
}

func TestGetRoleIncludesPermissions(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.UserEmail)))

	role, err := svc.Get(context.Background(), srv.RoleID("Admin"))

	require.NoError(t, err)
	assert.NotEmpty(t, role.Permissions)
}
