package geodata

import (
	"context"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/models"
)

// CreateLayer allocates a new layer and, in the same transaction, the Owner
// binding for the creating token. A partial write is impossible: either both
// rows land or neither does.
func (s *Service) CreateLayer(ctx context.Context, descriptor string, isPublic bool, properties models.Properties, tokenID string) (*models.DataLayer, error) {
	if tokenID == "" {
		return nil, ErrNotPermitted
	}
	if descriptor == "" {
		return nil, fmt.Errorf("%w: descriptor is required", ErrValidation)
	}

	layer := &models.DataLayer{
		Descriptor: descriptor,
		IsPublic:   isPublic,
		Properties: properties,
	}
	if err := s.layers.CreateWithOwner(ctx, layer, tokenID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return layer, nil
}

// GetLayer fetches a layer the token may view.
func (s *Service) GetLayer(ctx context.Context, layerID, tokenID string) (*models.DataLayer, error) {
	layer, err := s.layers.GetByID(ctx, layerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, layer, models.RoleViewer); err != nil {
		return nil, err
	}
	return layer, nil
}

// ListLayers returns every layer the token may view.
func (s *Service) ListLayers(ctx context.Context, tokenID string) ([]models.DataLayer, error) {
	all, err := s.layers.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]models.DataLayer, 0, len(all))
	for i := range all {
		ok, err := s.resolver.HasPermission(ctx, tokenID, &all[i], models.RoleViewer)
		if err != nil {
			return nil, fmt.Errorf("resolve permission: %w", err)
		}
		if ok {
			visible = append(visible, all[i])
		}
	}
	return visible, nil
}

// DeleteLayer removes a layer and cascades to its features, bindings, and
// view associations. Requires Editor or above.
func (s *Service) DeleteLayer(ctx context.Context, layerID, tokenID string) error {
	layer, err := s.layers.GetByID(ctx, layerID)
	if err != nil {
		return translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, layer, models.RoleEditor); err != nil {
		return err
	}
	return translateRepoError(s.layers.Delete(ctx, layerID))
}
