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

// BunFeatureRepository persists features using Bun.
type BunFeatureRepository struct {
	db *bun.DB
}

// NewBunFeatureRepository constructs a repository backed by Bun.
func NewBunFeatureRepository(db *bun.DB) *BunFeatureRepository {
	return &BunFeatureRepository{db: db}
}

// Create inserts a new feature row. The unique index on content_hash makes
// the absence check and the insert a single atomic unit: of two concurrent
// creations with identical content, exactly one succeeds and the other gets
// ErrDuplicate.
func (r *BunFeatureRepository) Create(ctx context.Context, feature *models.Feature) error {
	if feature.ID == "" {
		feature.ID = uuid.NewString()
	}
	now := time.Now()
	feature.CreatedAt = now
	feature.ModifiedAt = now

	_, err := r.db.NewInsert().Model(feature).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("feature content hash '%s': %w", feature.ContentHash, ErrDuplicate)
		}
		return fmt.Errorf("insert feature: %w", err)
	}
	return nil
}

// GetByID fetches a feature by its identifier.
func (r *BunFeatureRepository) GetByID(ctx context.Context, id string) (*models.Feature, error) {
	feature := new(models.Feature)
	err := r.db.NewSelect().Model(feature).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("feature '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query feature: %w", err)
	}
	return feature, nil
}

// Update persists mutated geometry, properties, layer assignment, and hash.
// The row's own prior hash never conflicts with itself; a conflict with a
// different row surfaces as ErrDuplicate.
func (r *BunFeatureRepository) Update(ctx context.Context, feature *models.Feature) error {
	feature.ModifiedAt = time.Now()

	result, err := r.db.NewUpdate().
		Model(feature).
		Column("layer_id", "geometry", "bbox", "properties", "content_hash", "modified_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("feature content hash '%s': %w", feature.ContentHash, ErrDuplicate)
		}
		return fmt.Errorf("update feature: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("feature '%s': %w", feature.ID, ErrNotFound)
	}
	return nil
}

// Delete removes the feature and, with it, its content hash entry.
func (r *BunFeatureRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.NewDelete().
		Model((*models.Feature)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete feature: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("feature '%s': %w", id, ErrNotFound)
	}
	return nil
}

// ListByLayer returns the layer's features ordered from oldest to newest.
func (r *BunFeatureRepository) ListByLayer(ctx context.Context, layerID string) ([]models.Feature, error) {
	var features []models.Feature
	err := r.db.NewSelect().
		Model(&features).
		Where("layer_id = ?", layerID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list features: %w", err)
	}
	if features == nil {
		features = []models.Feature{}
	}
	return features, nil
}
