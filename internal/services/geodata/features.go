package geodata

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/geo"
)

// CreateFeature inserts a new feature under a layer. Requires Editor or
// above on the layer. The content hash over geometry+properties is the
// system-wide dedup boundary: an identical feature anywhere fails with
// ErrDuplicateContent.
func (s *Service) CreateFeature(ctx context.Context, geometry json.RawMessage, layerID string, properties models.Properties, tokenID string) (*models.Feature, error) {
	layer, err := s.layers.GetByID(ctx, layerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, layer, models.RoleEditor); err != nil {
		return nil, err
	}

	geom, err := geo.Parse(geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	feature := &models.Feature{
		LayerID:     layerID,
		Geometry:    geometry,
		BBox:        geo.Bound(geom),
		Properties:  properties,
		ContentHash: geo.ContentHash(geometry, properties),
	}
	if err := s.features.Create(ctx, feature); err != nil {
		return nil, translateRepoError(err)
	}
	return feature, nil
}

// GetFeature fetches a feature the token may view via its owning layer.
func (s *Service) GetFeature(ctx context.Context, featureID, tokenID string) (*models.Feature, error) {
	feature, err := s.features.GetByID(ctx, featureID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	layer, err := s.layers.GetByID(ctx, feature.LayerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, layer, models.RoleViewer); err != nil {
		return nil, err
	}
	return feature, nil
}

// ListLayerFeatures returns a layer's features for a token with Viewer
// access.
func (s *Service) ListLayerFeatures(ctx context.Context, layerID, tokenID string) ([]models.Feature, error) {
	layer, err := s.layers.GetByID(ctx, layerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, layer, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.features.ListByLayer(ctx, layerID)
}

// UpdateFeature replaces a feature's geometry, properties, and optionally
// its owning layer. Requires Editor on the current layer and, when the layer
// changes, on the destination layer as well. The content hash is recomputed
// and re-validated; the feature's own prior hash never conflicts with
// itself.
func (s *Service) UpdateFeature(ctx context.Context, featureID string, geometry json.RawMessage, layerID string, properties models.Properties, tokenID string) (*models.Feature, error) {
	feature, err := s.features.GetByID(ctx, featureID)
	if err != nil {
		return nil, translateRepoError(err)
	}

	current, err := s.layers.GetByID(ctx, feature.LayerID)
	if err != nil {
		return nil, translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, current, models.RoleEditor); err != nil {
		return nil, err
	}

	if layerID != "" && layerID != feature.LayerID {
		dest, err := s.layers.GetByID(ctx, layerID)
		if err != nil {
			return nil, translateRepoError(err)
		}
		if err := s.require(ctx, tokenID, dest, models.RoleEditor); err != nil {
			return nil, err
		}
		feature.LayerID = layerID
	}

	geom, err := geo.Parse(geometry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	feature.Geometry = geometry
	feature.BBox = geo.Bound(geom)
	feature.Properties = properties
	feature.ContentHash = geo.ContentHash(geometry, properties)

	if err := s.features.Update(ctx, feature); err != nil {
		return nil, translateRepoError(err)
	}
	return feature, nil
}

// DeleteFeature removes a feature and frees its content hash. Requires
// Editor or above on the owning layer.
func (s *Service) DeleteFeature(ctx context.Context, featureID, tokenID string) error {
	feature, err := s.features.GetByID(ctx, featureID)
	if err != nil {
		return translateRepoError(err)
	}

	layer, err := s.layers.GetByID(ctx, feature.LayerID)
	if err != nil {
		return translateRepoError(err)
	}
	if err := s.require(ctx, tokenID, layer, models.RoleEditor); err != nil {
		return err
	}
	return translateRepoError(s.features.Delete(ctx, featureID))
}
