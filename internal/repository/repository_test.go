package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/rapidgeo/rapid/internal/db/bunx"
	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/migrations"
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB(":memory:", 1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}

func newToken(t *testing.T, db *bun.DB, descriptor string) *models.APIToken {
	t.Helper()
	token := &models.APIToken{
		ID:         uuid.NewString(),
		KeyHash:    uuid.NewString(),
		Descriptor: descriptor,
	}
	require.NoError(t, NewBunTokenRepository(db).Create(context.Background(), token))
	return token
}

func pointGeometry(x, y float64) json.RawMessage {
	b, _ := json.Marshal(map[string]any{"type": "Point", "coordinates": []float64{x, y}})
	return b
}

func TestTokenRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunTokenRepository(db)
	ctx := context.Background()

	token := newToken(t, db, "surveyor")

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, token.ID)
		require.NoError(t, err)
		assert.Equal(t, "surveyor", got.Descriptor)
	})

	t.Run("get by key hash", func(t *testing.T) {
		got, err := repo.GetByKeyHash(ctx, token.KeyHash)
		require.NoError(t, err)
		assert.Equal(t, token.ID, got.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("unknown key hash", func(t *testing.T) {
		_, err := repo.GetByKeyHash(ctx, "no-such-hash")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate descriptor", func(t *testing.T) {
		err := repo.Create(ctx, &models.APIToken{
			ID:         uuid.NewString(),
			KeyHash:    uuid.NewString(),
			Descriptor: "surveyor",
		})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("list", func(t *testing.T) {
		tokens, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, tokens, 1)
	})
}

func TestRoleBindingRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBunRoleBindingRepository(db)
	ctx := context.Background()

	token := newToken(t, db, "holder")
	resourceID := uuid.NewString()

	grant := func(role models.Role) {
		t.Helper()
		require.NoError(t, repo.Grant(ctx, &models.RoleBinding{
			ID:           uuid.NewString(),
			TokenID:      token.ID,
			ResourceID:   resourceID,
			ResourceKind: models.ResourceKindLayer,
			Role:         role,
		}))
	}

	t.Run("no binding", func(t *testing.T) {
		_, found, err := repo.MaxRole(ctx, token.ID, resourceID, models.ResourceKindLayer)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("max over multiple bindings", func(t *testing.T) {
		grant(models.RoleViewer)
		grant(models.RoleEditor)

		role, found, err := repo.MaxRole(ctx, token.ID, resourceID, models.ResourceKindLayer)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, models.RoleEditor, role)
	})

	t.Run("kind partitions bindings", func(t *testing.T) {
		_, found, err := repo.MaxRole(ctx, token.ID, resourceID, models.ResourceKindView)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("revoke one role keeps the other", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, token.ID, resourceID, models.ResourceKindLayer, models.RoleEditor))

		role, found, err := repo.MaxRole(ctx, token.ID, resourceID, models.ResourceKindLayer)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, models.RoleViewer, role)
	})

	t.Run("revoke is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Revoke(ctx, token.ID, resourceID, models.ResourceKindLayer, models.RoleEditor))
		require.NoError(t, repo.Revoke(ctx, uuid.NewString(), resourceID, models.ResourceKindLayer, models.RoleOwner))
	})

	t.Run("list for resource", func(t *testing.T) {
		bindings, err := repo.ListForResource(ctx, resourceID, models.ResourceKindLayer)
		require.NoError(t, err)
		assert.Len(t, bindings, 1)
		assert.Equal(t, models.RoleViewer, bindings[0].Role)
	})
}

func TestLayerRepositoryCreateWithOwner(t *testing.T) {
	db := setupTestDB(t)
	layers := NewBunLayerRepository(db)
	bindings := NewBunRoleBindingRepository(db)
	ctx := context.Background()

	owner := newToken(t, db, "owner")
	layer := &models.DataLayer{ID: uuid.NewString(), Descriptor: "wells"}
	require.NoError(t, layers.CreateWithOwner(ctx, layer, owner.ID))

	got, err := layers.GetByID(ctx, layer.ID)
	require.NoError(t, err)
	assert.Equal(t, "wells", got.Descriptor)

	role, found, err := bindings.MaxRole(ctx, owner.ID, layer.ID, models.ResourceKindLayer)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.RoleOwner, role)
}

func TestLayerRepositoryDeleteCascades(t *testing.T) {
	db := setupTestDB(t)
	layers := NewBunLayerRepository(db)
	views := NewBunViewRepository(db)
	features := NewBunFeatureRepository(db)
	bindings := NewBunRoleBindingRepository(db)
	ctx := context.Background()

	owner := newToken(t, db, "owner")
	layer := &models.DataLayer{ID: uuid.NewString(), Descriptor: "doomed"}
	require.NoError(t, layers.CreateWithOwner(ctx, layer, owner.ID))

	feature := &models.Feature{
		ID:          uuid.NewString(),
		LayerID:     layer.ID,
		Geometry:    pointGeometry(1, 2),
		ContentHash: uuid.NewString(),
	}
	require.NoError(t, features.Create(ctx, feature))

	view := &models.GeoView{ID: uuid.NewString(), Descriptor: "window", Geometry: pointGeometry(0, 0)}
	require.NoError(t, views.CreateWithOwner(ctx, view, owner.ID))
	require.NoError(t, views.AddLayer(ctx, view.ID, layer.ID))

	require.NoError(t, layers.Delete(ctx, layer.ID))

	_, err := layers.GetByID(ctx, layer.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = features.GetByID(ctx, feature.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, found, err := bindings.MaxRole(ctx, owner.ID, layer.ID, models.ResourceKindLayer)
	require.NoError(t, err)
	assert.False(t, found)

	attached, err := views.LayersInOrder(ctx, view.ID)
	require.NoError(t, err)
	assert.Empty(t, attached)

	// The view itself is untouched.
	_, err = views.GetByID(ctx, view.ID)
	require.NoError(t, err)

	t.Run("deleting again reports not found", func(t *testing.T) {
		assert.ErrorIs(t, layers.Delete(ctx, layer.ID), ErrNotFound)
	})
}

func TestViewRepositoryAssociations(t *testing.T) {
	db := setupTestDB(t)
	layers := NewBunLayerRepository(db)
	views := NewBunViewRepository(db)
	ctx := context.Background()

	owner := newToken(t, db, "owner")
	view := &models.GeoView{ID: uuid.NewString(), Descriptor: "window", Geometry: pointGeometry(0, 0)}
	require.NoError(t, views.CreateWithOwner(ctx, view, owner.ID))

	first := &models.DataLayer{ID: uuid.NewString(), Descriptor: "first"}
	second := &models.DataLayer{ID: uuid.NewString(), Descriptor: "second"}
	third := &models.DataLayer{ID: uuid.NewString(), Descriptor: "third"}
	for _, l := range []*models.DataLayer{first, second, third} {
		require.NoError(t, layers.CreateWithOwner(ctx, l, owner.ID))
	}

	require.NoError(t, views.AddLayer(ctx, view.ID, first.ID))
	require.NoError(t, views.AddLayer(ctx, view.ID, second.ID))
	require.NoError(t, views.AddLayer(ctx, view.ID, third.ID))

	t.Run("insertion order preserved", func(t *testing.T) {
		got, err := views.LayersInOrder(ctx, view.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, second.ID, got[1].ID)
		assert.Equal(t, third.ID, got[2].ID)
	})

	t.Run("re-adding an attached layer is a no-op", func(t *testing.T) {
		require.NoError(t, views.AddLayer(ctx, view.ID, second.ID))

		got, err := views.LayersInOrder(ctx, view.ID)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, second.ID, got[1].ID)
	})

	t.Run("remove layer", func(t *testing.T) {
		require.NoError(t, views.RemoveLayer(ctx, view.ID, second.ID))

		got, err := views.LayersInOrder(ctx, view.ID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, first.ID, got[0].ID)
		assert.Equal(t, third.ID, got[1].ID)
	})

	t.Run("removing a detached layer succeeds", func(t *testing.T) {
		require.NoError(t, views.RemoveLayer(ctx, view.ID, second.ID))
	})

	t.Run("delete view keeps layers", func(t *testing.T) {
		require.NoError(t, views.Delete(ctx, view.ID))

		_, err := views.GetByID(ctx, view.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = layers.GetByID(ctx, first.ID)
		require.NoError(t, err)
	})
}

func TestFeatureRepositoryContentHash(t *testing.T) {
	db := setupTestDB(t)
	layers := NewBunLayerRepository(db)
	features := NewBunFeatureRepository(db)
	ctx := context.Background()

	owner := newToken(t, db, "owner")
	layer := &models.DataLayer{ID: uuid.NewString(), Descriptor: "wells"}
	require.NoError(t, layers.CreateWithOwner(ctx, layer, owner.ID))

	feature := &models.Feature{
		ID:          uuid.NewString(),
		LayerID:     layer.ID,
		Geometry:    pointGeometry(1, 2),
		ContentHash: "hash-a",
	}
	require.NoError(t, features.Create(ctx, feature))

	t.Run("duplicate hash rejected at insert", func(t *testing.T) {
		err := features.Create(ctx, &models.Feature{
			ID:          uuid.NewString(),
			LayerID:     layer.ID,
			Geometry:    pointGeometry(1, 2),
			ContentHash: "hash-a",
		})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("duplicate hash rejected at update", func(t *testing.T) {
		other := &models.Feature{
			ID:          uuid.NewString(),
			LayerID:     layer.ID,
			Geometry:    pointGeometry(3, 4),
			ContentHash: "hash-b",
		}
		require.NoError(t, features.Create(ctx, other))

		other.ContentHash = "hash-a"
		assert.ErrorIs(t, features.Update(ctx, other), ErrDuplicate)
	})

	t.Run("update keeping own hash succeeds", func(t *testing.T) {
		feature.Properties = models.Properties{"name": "well-1"}
		require.NoError(t, features.Update(ctx, feature))

		got, err := features.GetByID(ctx, feature.ID)
		require.NoError(t, err)
		assert.Equal(t, "well-1", got.Properties["name"])
	})

	t.Run("list by layer", func(t *testing.T) {
		list, err := features.ListByLayer(ctx, layer.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, features.Delete(ctx, feature.ID))
		_, err := features.GetByID(ctx, feature.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, features.Delete(ctx, feature.ID), ErrNotFound)
	})
}
