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

// BunViewRepository persists geo views and their layer associations using Bun.
type BunViewRepository struct {
	db *bun.DB
}

// NewBunViewRepository constructs a repository backed by Bun.
func NewBunViewRepository(db *bun.DB) *BunViewRepository {
	return &BunViewRepository{db: db}
}

// CreateWithOwner inserts the view and the owner binding for ownerTokenID as
// one transaction, mirroring layer creation.
func (r *BunViewRepository) CreateWithOwner(ctx context.Context, view *models.GeoView, ownerTokenID string) error {
	if view.ID == "" {
		view.ID = uuid.NewString()
	}
	now := time.Now()
	view.CreatedAt = now
	view.UpdatedAt = now

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(view).Exec(ctx); err != nil {
			return fmt.Errorf("insert view: %w", err)
		}

		binding := &models.RoleBinding{
			ID:           uuid.NewString(),
			TokenID:      ownerTokenID,
			ResourceID:   view.ID,
			ResourceKind: models.ResourceKindView,
			Role:         models.RoleOwner,
			GrantedAt:    now,
		}
		if _, err := tx.NewInsert().Model(binding).Exec(ctx); err != nil {
			return fmt.Errorf("insert owner binding: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create view with owner: %w", err)
	}
	return nil
}

// GetByID fetches a view by its identifier.
func (r *BunViewRepository) GetByID(ctx context.Context, id string) (*models.GeoView, error) {
	view := new(models.GeoView)
	err := r.db.NewSelect().Model(view).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("view '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query view: %w", err)
	}
	return view, nil
}

// List returns all views ordered from newest to oldest.
func (r *BunViewRepository) List(ctx context.Context) ([]models.GeoView, error) {
	var views []models.GeoView
	if err := r.db.NewSelect().Model(&views).Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	if views == nil {
		views = []models.GeoView{}
	}
	return views, nil
}

// Delete removes the view, its layer associations, and its role bindings.
// Attached layers and their features are never touched.
func (r *BunViewRepository) Delete(ctx context.Context, id string) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewDelete().
			Model((*models.GeoView)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete view: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("view '%s': %w", id, ErrNotFound)
		}

		if _, err := tx.NewDelete().
			Model((*models.ViewLayer)(nil)).
			Where("view_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete layer associations: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*models.RoleBinding)(nil)).
			Where("resource_id = ?", id).
			Where("resource_kind = ?", models.ResourceKindView).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete view bindings: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete view cascade: %w", err)
	}
	return nil
}

// AddLayer appends a layer to the view's association set. Re-adding an
// already associated layer leaves the original position untouched.
func (r *BunViewRepository) AddLayer(ctx context.Context, viewID, layerID string) error {
	assoc := &models.ViewLayer{
		ViewID:  viewID,
		LayerID: layerID,
		AddedAt: time.Now(),
	}
	_, err := r.db.NewInsert().Model(assoc).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert view layer association: %w", err)
	}
	return nil
}

// RemoveLayer detaches a layer from the view. Removing a layer that was
// never attached succeeds silently; the layer itself is unaffected.
func (r *BunViewRepository) RemoveLayer(ctx context.Context, viewID, layerID string) error {
	_, err := r.db.NewDelete().
		Model((*models.ViewLayer)(nil)).
		Where("view_id = ?", viewID).
		Where("layer_id = ?", layerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete view layer association: %w", err)
	}
	return nil
}

// LayersInOrder returns the view's layers in association insertion order,
// which the projection result preserves.
func (r *BunViewRepository) LayersInOrder(ctx context.Context, viewID string) ([]models.DataLayer, error) {
	var layers []models.DataLayer
	err := r.db.NewSelect().
		Model(&layers).
		Join("JOIN view_layers AS vl ON vl.layer_id = l.id").
		Where("vl.view_id = ?", viewID).
		OrderExpr("vl.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list view layers: %w", err)
	}
	if layers == nil {
		layers = []models.DataLayer{}
	}
	return layers, nil
}
