package groups

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/rbac-console/internal/rbac"
	"github.com/odyssey-erp/rbac-console/internal/shared"
	"github.com/odyssey-erp/rbac-console/internal/testing/backend"
)

func TestGroupLifecycle(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))
	ctx := context.Background()

	ordinal := 0
	created, err := svc.Create(ctx, CreateInput{Name: "Report", Alias: "Reportistica", Icon: "FaChart", Ordinal: &ordinal})
	require.NoError(t, err)
	assert.Equal(t, "Reportistica", created.Label())
	assert.Equal(t, rbac.DefaultIcon, rbac.DefaultIcons().Resolve(created.Icon))

	icon := "FaCog"
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Icon: &icon})
	require.NoError(t, err)
	assert.Equal(t, "FaCog", rbac.DefaultIcons().Resolve(updated.Icon))

	page, err := svc.List(ctx, shared.ListParams{PageSize: 10})
	require.NoError(t, err)
	sorted := rbac.SortGroupsByOrdinal(page.Pagination.Data)
	assert.Equal(t, "Report", sorted[0].Name)

	_, err = svc.Delete(ctx, created.ID)
	require.NoError(t, err)
}

func TestGroupCarriesOwnedPermissions(t *testing.T) {
	srv := backend.New(t)
	svc := NewService(NewRepository(srv.Gateway(backend.AdminEmail)))

	page, err := svc.List(context.Background(), shared.ListParams{Search: rbac.ModuleGroups})
	require.NoError(t, err)
	require.Len(t, page.Pagination.Data, 1)

	group, err := svc.Get(context.Background(), page.Pagination.Data[0].ID)
	require.NoError(t, err)
	names := rbac.PermissionNames(group.Permissions)
	assert.True(t, names.Has("gruppi.read"))
	assert.False(t, names.HasPrefix(shared.PrefixRoles))
}
