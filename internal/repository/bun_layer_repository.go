package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/uptrace/bun"
)

// BunLayerRepository persists data layers using Bun.
type BunLayerRepository struct {
	db *bun.DB
}

// NewBunLayerRepository constructs a repository backed by Bun.
func NewBunLayerRepository(db *bun.DB) *BunLayerRepository {
	return &BunLayerRepository{db: db}
}

// CreateWithOwner inserts the layer and the owner binding for ownerTokenID
// as one transaction. A failure on either write rolls back both; no reader
// ever observes the layer without its owner binding.
func (r *BunLayerRepository) CreateWithOwner(ctx context.Context, layer *models.DataLayer, ownerTokenID string) error {
	if layer.ID == "" {
		layer.ID = uuid.NewString()
	}
	now := time.Now()
	layer.CreatedAt = now
	layer.UpdatedAt = now

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(layer).Exec(ctx); err != nil {
			return fmt.Errorf("insert layer: %w", err)
		}

		binding := &models.RoleBinding{
			ID:           uuid.NewString(),
			TokenID:      ownerTokenID,
			ResourceID:   layer.ID,
			ResourceKind: models.ResourceKindLayer,
			Role:         models.RoleOwner,
			GrantedAt:    now,
		}
		if _, err := tx.NewInsert().Model(binding).Exec(ctx); err != nil {
			return fmt.Errorf("insert owner binding: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create layer with owner: %w", err)
	}
	return nil
}

// GetByID fetches a layer by its identifier.
func (r *BunLayerRepository) GetByID(ctx context.Context, id string) (*models.DataLayer, error) {
	layer := new(models.DataLayer)
	err := r.db.NewSelect().Model(layer).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("layer '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query layer: %w", err)
	}
	return layer, nil
}

// List returns all layers ordered from newest to oldest.
func (r *BunLayerRepository) List(ctx context.Context) ([]models.DataLayer, error) {
	var layers []models.DataLayer
	if err := r.db.NewSelect().Model(&layers).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list layers: %w", err)
	}
	if layers == nil {
		layers = []models.DataLayer{}
	}
	return layers, nil
}

// Delete removes the layer plus its features, role bindings, and view
// associations in one transaction. The explicit deletes keep the cascade
// identical across SQLite and PostgreSQL.
func (r *BunLayerRepository) Delete(ctx context.Context, id string) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().
			Model((*models.DataLayer)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete layer: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("layer '%s': %w", id, ErrNotFound)
		}

		if _, err := tx.NewDelete().
			Model((*models.Feature)(nil)).
			Where("layer_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete layer features: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*models.ViewLayer)(nil)).
			Where("layer_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete view associations: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*models.RoleBinding)(nil)).
			Where("resource_id = ?", id).
			Where("resource_kind = ?", models.ResourceKindLayer).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete layer bindings: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete layer cascade: %w", err)
	}
	return nil
}
