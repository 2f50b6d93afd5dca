package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/uptrace/bun"
)

// BunTokenRepository persists API tokens using Bun.
type BunTokenRepository struct {
	db *bun.DB
}

// NewBunTokenRepository constructs a repository backed by Bun.
func NewBunTokenRepository(db *bun.DB) *BunTokenRepository {
	return &BunTokenRepository{db: db}
}

// Create inserts a new token row.
func (r *BunTokenRepository) Create(ctx context.Context, token *models.APIToken) error {
	if token.ID == "" || token.KeyHash == "" || token.Descriptor == "" {
		return fmt.Errorf("token id, key hash, and descriptor are required")
	}
	if token.IssuedAt.IsZero() {
		token.IssuedAt = time.Now()
	}

	_, err := r.db.NewInsert().Model(token).Exec(ctx)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("token with descriptor '%s': %w", token.Descriptor, ErrDuplicate)
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByID fetches a token by its identifier.
func (r *BunTokenRepository) GetByID(ctx context.Context, id string) (*models.APIToken, error) {
	token := new(models.APIToken)
	err := r.db.NewSelect().Model(token).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token '%s': %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("query token: %w", err)
	}
	return token, nil
}

// GetByKeyHash fetches a token by the hash of its presented secret key.
func (r *BunTokenRepository) GetByKeyHash(ctx context.Context, keyHash string) (*models.APIToken, error) {
	token := new(models.APIToken)
	err := r.db.NewSelect().Model(token).Where("key_hash = ?", keyHash).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("token key: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("query token by key: %w", err)
	}
	return token, nil
}

// List returns all tokens ordered from newest to oldest.
func (r *BunTokenRepository) List(ctx context.Context) ([]models.APIToken, error) {
	var tokens []models.APIToken
	if err := r.db.NewSelect().Model(&tokens).Order("issued_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	if tokens == nil {
		tokens = []models.APIToken{}
	}
	return tokens, nil
}

func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "23505")
}
