package geodata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/geo"
)

// CreateView allocates a new geo view with the given GeoJSON window geometry
// and, in the same transaction, the Owner binding for the creating token.
func (s *Service) CreateView(ctx context.Context, geometry json.RawMessage, descriptor string, properties models.Properties, isPublic bool, tokenID string) (*models.GeoView, error) {
	if tokenID == "" {
		return nil, ErrNotPermitted
	}
	if descriptor == "" {
		return nil, fmt.Errorf("%w: descriptor is required", ErrValidation)
	}

	window, err := geo.Parse(geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	view := &models.GeoView{
		Descriptor: descriptor,
		Geometry:   geometry,
		BBox:       geo.Bound(window),
		Properties: properties,
		IsPublic:   isPublic,
	}
	if err := s.views.CreateWithOwner(ctx, view, tokenID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	return view, nil
}

// GetView fetches a view the token may view.
func (s *Service) GetView(ctx context.Context, viewID, tokenID string) (*models.GeoView, error) {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, view, models.RoleViewer); err != nil {
		return nil, err
	}
	return view, nil
}

// ListViews returns every view the token may view.
func (s *Service) ListViews(ctx context.Context, tokenID string) ([]models.GeoView, error) {
	all, err := s.views.List(ctx)
	if err != nil {
		return nil, err
	}

	visible := make([]models.GeoView, 0, len(all))
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

// DeleteView removes a view, its associations, and its bindings. Attached
// layers are untouched. Requires Editor or above.
func (s *Service) DeleteView(ctx context.Context, viewID, tokenID string) error {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, view, models.RoleEditor); err != nil {
		return err
	}
	return translateRepoError(s.views.Delete(ctx, viewID))
}

// AddLayerToView attaches a layer to a view's association set. Requires
// Editor or above on the view; no permission on the layer is needed.
func (s *Service) AddLayerToView(ctx context.Context, viewID, layerID, tokenID string) error {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return translateRepoError(err)
	}
	if _, err := s.layers.GetByID(ctx, layerID); err != nil {
		return translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, view, models.RoleEditor); err != nil {
		return err
	}
	return translateRepoError(s.views.AddLayer(ctx, viewID, layerID))
}

// RemoveLayerFromView detaches a layer from a view. The layer and its
// features are unaffected. Requires Editor or above on the view.
func (s *Service) RemoveLayerFromView(ctx context.Context, viewID, layerID, tokenID string) error {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return translateRepoError(err)
	}
	if _, err := s.layers.GetByID(ctx, layerID); err != nil {
		return translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, view, models.RoleEditor); err != nil {
		return err
	}
	return translateRepoError(s.views.RemoveLayer(ctx, viewID, layerID))
}
