package geodata

import (
	"context"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/geo"
)

// LayerProjection is one view layer's contribution to a projection: the
// identifiers of its features intersecting the view window. An attached
// layer with nothing in the window still appears with an empty FeatureIDs;
// a layer the caller may not view is absent entirely.
type LayerProjection struct {
	LayerID    string   `json:"uid"`
	FeatureIDs []string `json:"features"`
}

// ProjectView computes the permission- and geometry-filtered feature listing
// a view currently exposes, in association insertion order.
//
// The view-level Viewer gate controls whether the projection is attempted at
// all; each layer's own Viewer gate is then enforced independently, so a
// caller with access to the view but not to one of its layers never sees
// that layer's features.
func (s *Service) ProjectView(ctx context.Context, viewID, tokenID string) ([]LayerProjection, error) {
	view, err := s.views.GetByID(ctx, viewID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, view, models.RoleViewer); err != nil {
		return nil, err
	}

	window, err := geo.Parse(view.Geometry)
	if err != nil {
		return nil, fmt.Errorf("stored view geometry: %w", err)
	}

	layers, err := s.views.LayersInOrder(ctx, viewID)
	if err != nil {
		return nil, err
	}

	result := make([]LayerProjection, 0, len(layers))
	for i := range layers {
		layer := &layers[i]

		visible, err := s.resolver.HasPermission(ctx, tokenID, layer, models.RoleViewer)
		if err != nil {
			return nil, fmt.Errorf("resolve permission: %w", err)
		}
		if !visible {
			continue
		}

		features, err := s.features.ListByLayer(ctx, layer.ID)
		if err != nil {
			return nil, err
		}

		ids := make([]string, 0, len(features))
		for j := range features {
			geom, err := geo.Parse(features[j].Geometry)
			if err != nil {
				return nil, fmt.Errorf("stored feature geometry '%s': %w", features[j].ID, err)
			}
			if geo.Intersects(window, geom) {
				ids = append(ids, features[j].ID)
			}
		}

		result = append(result, LayerProjection{LayerID: layer.ID, FeatureIDs: ids})
	}
	return result, nil
}
