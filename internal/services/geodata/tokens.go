package geodata

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/repository"
)

// CreateToken registers a new API token. The cleartext secret key is
// returned exactly once; only its hash is stored.
func (s *Service) CreateToken(ctx context.Context, descriptor string) (*models.APIToken, string, error) {
	if descriptor == "" {
		return nil, "", fmt.Errorf("%w: descriptor is required", ErrValidation)
	}

	key, keyHash, err := access.GenerateTokenKey()
	if err != nil {
		return nil, "", fmt.Errorf("generate token key: %w", err)
	}

	token := &models.APIToken{
		ID:         uuid.NewString(),
		KeyHash:    keyHash,
		Descriptor: descriptor,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", fmt.Errorf("%w: descriptor %q already in use", ErrValidation, descriptor)
		}
		return nil, "", fmt.Errorf("create token: %w", err)
	}
	return token, key, nil
}

// Authenticate resolves a presented secret key to its token. Returns
// ErrNotFound for unknown keys.
func (s *Service) Authenticate(ctx context.Context, key string) (*models.APIToken, error) {
	token, err := s.tokens.GetByKeyHash(ctx, access.HashTokenKey(key))
	if err != nil {
		return nil, translateRepoError(err)
	}
	return token, nil
}

// GetToken fetches a token by identifier.
func (s *Service) GetToken(ctx context.Context, id string) (*models.APIToken, error) {
	token, err := s.tokens.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err)
	}
	return token, nil
}

// ListTokens returns all registered tokens. Key hashes are included; the
// presentation layer decides what to expose.
func (s *Service) ListTokens(ctx context.Context) ([]models.APIToken, error) {
	return s.tokens.List(ctx)
}
