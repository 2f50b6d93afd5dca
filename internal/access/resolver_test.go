package access

import (
	"context"
	"testing"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBindings struct {
	// keyed by tokenID + "|" + resourceID + "|" + kind
	roles map[string][]models.Role
}

func (f *fakeBindings) MaxRole(_ context.Context, tokenID, resourceID string, kind models.ResourceKind) (models.Role, bool, error) {
	roles := f.roles[tokenID+"|"+resourceID+"|"+string(kind)]
	if len(roles) == 0 {
		return 0, false, nil
	}
	max := roles[0]
	for _, r := range roles[1:] {
		if r > max {
			max = r
		}
	}
	return max, true, nil
}

type fakeResource struct {
	id     string
	kind   models.ResourceKind
	public bool
}

func (r fakeResource) ResourceID() string                { return r.id }
func (r fakeResource) ResourceKind() models.ResourceKind { return r.kind }
func (r fakeResource) Public() bool                      { return r.public }

func TestResolver_PublicResource(t *testing.T) {
	resolver := NewResolver(&fakeBindings{roles: map[string][]models.Role{}})
	public := fakeResource{id: "l1", kind: models.ResourceKindLayer, public: true}

	t.Run("anonymous caller may view", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "", public, models.RoleViewer)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unbound credential may view", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "t-stranger", public, models.RoleViewer)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("public grants viewing only", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "t-stranger", public, models.RoleEditor)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestResolver_PrivateResource(t *testing.T) {
	bindings := &fakeBindings{roles: map[string][]models.Role{
		"t-owner|l1|layer":  {models.RoleOwner},
		"t-editor|l1|layer": {models.RoleEditor},
		"t-viewer|l1|layer": {models.RoleViewer},
		"t-multi|l1|layer":  {models.RoleViewer, models.RoleEditor},
	}}
	resolver := NewResolver(bindings)
	private := fakeResource{id: "l1", kind: models.ResourceKindLayer}

	t.Run("anonymous caller denied", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "", private, models.RoleViewer)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("owner implies editor and viewer", func(t *testing.T) {
		for _, required := range []models.Role{models.RoleViewer, models.RoleEditor, models.RoleOwner} {
			ok, err := resolver.HasPermission(context.Background(), "t-owner", private, required)
			require.NoError(t, err)
			assert.True(t, ok, "owner should hold %s", required)
		}
	})

	t.Run("editor implies viewer but not owner", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "t-editor", private, models.RoleViewer)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = resolver.HasPermission(context.Background(), "t-editor", private, models.RoleOwner)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("viewer implies nothing further", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "t-viewer", private, models.RoleEditor)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("multiple bindings resolve to maximum", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "t-multi", private, models.RoleEditor)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("unbound credential denied", func(t *testing.T) {
		ok, err := resolver.HasPermission(context.Background(), "t-stranger", private, models.RoleViewer)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, models.RoleOwner.Includes(models.RoleEditor))
	assert.True(t, models.RoleOwner.Includes(models.RoleViewer))
	assert.True(t, models.RoleEditor.Includes(models.RoleViewer))
	assert.False(t, models.RoleViewer.Includes(models.RoleEditor))
	assert.False(t, models.RoleEditor.Includes(models.RoleOwner))
}
