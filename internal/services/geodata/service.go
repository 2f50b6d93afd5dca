// Package geodata orchestrates the shared-layer domain: token registration,
// layer/view/feature lifecycle, role grants, and the spatial projection.
// Every operation authorizes through the access resolver before touching the
// stores; all failures surface as the typed errors in errors.go.
package geodata

import (
	"context"
	"errors"
	"fmt"

	"github.com/rapidgeo/rapid/internal/access"
	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/repository"
)

// Service orchestrates persistence and authorization for the HTTP handlers
// and the CLI.
type Service struct {
	tokens   repository.TokenRepository
	bindings repository.RoleBindingRepository
	layers   repository.LayerRepository
	views    repository.ViewRepository
	features repository.FeatureRepository
	resolver *access.Resolver
}

// NewService constructs a new Service instance.
func NewService(
	tokens repository.TokenRepository,
	bindings repository.RoleBindingRepository,
	layers repository.LayerRepository,
	views repository.ViewRepository,
	features repository.FeatureRepository,
	resolver *access.Resolver,
) *Service {
	return &Service{
		tokens:   tokens,
		bindings: bindings,
		layers:   layers,
		views:    views,
		features: features,
		resolver: resolver,
	}
}

// CheckPermission reports whether the token may act at the required role on
// the identified resource. Returns ErrNotFound when the resource is unknown.
func (s *Service) CheckPermission(ctx context.Context, tokenID, resourceID string, kind models.ResourceKind, required models.Role) (bool, error) {
	res, err := s.resource(ctx, resourceID, kind)
	if err != nil {
		return false, err
	}
	ok, err := s.resolver.HasPermission(ctx, tokenID, res, required)
	if err != nil {
		return false, fmt.Errorf("resolve permission: %w", err)
	}
	return ok, nil
}

// require fails with ErrNotPermitted unless the token may act at the
// required role on the resource.
func (s *Service) require(ctx context.Context, tokenID string, res models.Resource, required models.Role) error {
	ok, err := s.resolver.HasPermission(ctx, tokenID, res, required)
	if err != nil {
		return fmt.Errorf("resolve permission: %w", err)
	}
	if !ok {
		return ErrNotPermitted
	}
	return nil
}

// resource loads a layer or view by kind for permission evaluation.
func (s *Service) resource(ctx context.Context, resourceID string, kind models.ResourceKind) (models.Resource, error) {
	switch kind {
	case models.ResourceKindLayer:
		layer, err := s.layers.GetByID(ctx, resourceID)
		if err != nil {
			return nil, translateRepoError(err)
		}
		return layer, nil
	case models.ResourceKindView:
		view, err := s.views.GetByID(ctx, resourceID)
		if err != nil {
			return nil, translateRepoError(err)
		}
		return view, nil
	default:
		return nil, fmt.Errorf("%w: unknown resource kind %q", ErrValidation, kind)
	}
}

// translateRepoError maps storage errors onto the service's typed failures.
func translateRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrDuplicateContent
	default:
		return err
	}
}
