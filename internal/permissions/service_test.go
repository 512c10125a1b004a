package permissions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/testing/backend"
)

func TestPermissionGroupOwnership(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{Name: "report.read", Alias: "Leggi report"})
	require.NoError(t, err)
	assert.Nil(t, created.GroupID)

	moved, err := svc.AssignGroup(ctx, created.ID, 1)
	require.NoError(t, err)
	require.NotNil(t, moved.GroupID)
	assert.Equal(t, int64(1), *moved.GroupID)
	require.NotNil(t, moved.Group)

	moved, err = svc.AssignGroup(ctx, created.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *moved.GroupID, "reassigning replaces the owner")

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), *got.GroupID)

	_, err = svc.AssignGroup(ctx, created.ID, 0)
	assert.ErrorIs(t, err, shared.ErrValidation)
	_, err = svc.AssignGroup(ctx, created.ID, 999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestPermissionListSearch(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))

	page, err := svc.List(context.Background(), shared.ListParams{Search: "gruppi.", PageSize: 50})
	require.NoError(t, err)

	assert.Equal(t, 4, page.Pagination.TotalItems)
	for _, p := range page.Pagination.Data {
		assert.Contains(t, p.Name, "gruppi.")
	}
}

func TestDeletePermission(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))
	id := srv.PermissionID("gruppi.delete")
	admin := srv.RoleID("Admin")
	require.True(t, srv.HasRolePermission(admin, id))

	_, err := svc.Delete(context.Background(), id)
	require.NoError(t, err)

	assert.False(t, srv.HasRolePermission(admin, id))
	_, err = svc.Delete(context.Background(), id)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
