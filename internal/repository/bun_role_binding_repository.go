package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/uptrace/bun"
)

// BunRoleBindingRepository persists role bindings using Bun.
type BunRoleBindingRepository struct {
	db *bun.DB
}

// NewBunRoleBindingRepository constructs a repository backed by Bun.
func NewBunRoleBindingRepository(db *bun.DB) *BunRoleBindingRepository {
	return &BunRoleBindingRepository{db: db}
}

// Grant inserts a new binding row.
func (r *BunRoleBindingRepository) Grant(ctx context.Context, binding *models.RoleBinding) error {
	if binding.ID == "" {
		binding.ID = uuid.NewString()
	}
	if binding.GrantedAt.IsZero() {
		binding.GrantedAt = time.Now()
	}

	_, err := r.db.NewInsert().Model(binding).Exec(ctx)
	if err != nil {
		return fmt.Errorf("insert role binding: %w", err)
	}
	return nil
}

// Revoke removes matching binding rows. Revoking a binding that never
// existed succeeds silently.
func (r *BunRoleBindingRepository) Revoke(ctx context.Context, tokenID, resourceID string, kind models.ResourceKind, role models.Role) error {
	_, err := r.db.NewDelete().
		Model((*models.RoleBinding)(nil)).
		Where("token_id = ?", tokenID).
		Where("resource_id = ?", resourceID).
		Where("resource_kind = ?", kind).
		Where("role = ?", role).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete role binding: %w", err)
	}
	return nil
}

// MaxRole returns the highest role the token holds on the resource, and
// whether any binding exists. max() over zero rows yields NULL, which maps
// to "no binding".
func (r *BunRoleBindingRepository) MaxRole(ctx context.Context, tokenID, resourceID string, kind models.ResourceKind) (models.Role, bool, error) {
	var max sql.NullInt64
	err := r.db.NewSelect().
		Model((*models.RoleBinding)(nil)).
		ColumnExpr("max(role)").
		Where("token_id = ?", tokenID).
		Where("resource_id = ?", resourceID).
		Where("resource_kind = ?", kind).
		Scan(ctx, &max)
	if err != nil {
		return 0, false, fmt.Errorf("query max role: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return models.Role(max.Int64), true, nil
}

// ListForResource returns all bindings on a resource.
func (r *BunRoleBindingRepository) ListForResource(ctx context.Context, resourceID string, kind models.ResourceKind) ([]models.RoleBinding, error) {
	var bindings []models.RoleBinding
	err := r.db.NewSelect().
		Model(&bindings).
		Where("resource_id = ?", resourceID).
		Where("resource_kind = ?", kind).
		Order("granted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list role bindings: %w", err)
	}
	if bindings == nil {
		bindings = []models.RoleBinding{}
	}
	return bindings, nil
}
