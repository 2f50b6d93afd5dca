package repository

import (
	"context"

	"github.com/rapidgeo/rapid/internal/db/models"
)

// TokenRepository exposes persistence operations for API tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *models.APIToken) error
	GetByID(ctx context.Context, id string) (*models.APIToken, error)
	GetByKeyHash(ctx context.Context, keyHash string) (*models.APIToken, error)
	List(ctx context.Context) ([]models.APIToken, error)
}

// RoleBindingRepository exposes persistence operations for role bindings.
type RoleBindingRepository interface {
	Grant(ctx context.Context, binding *models.RoleBinding) error
	// Revoke is idempotent: removing a binding that never existed succeeds.
	Revoke(ctx context.Context, tokenID, resourceID string, kind models.ResourceKind, role models.Role) error
	MaxRole(ctx context.Context, tokenID, resourceID string, kind models.ResourceKind) (models.Role, bool, error)
	ListForResource(ctx context.Context, resourceID string, kind models.ResourceKind) ([]models.RoleBinding, error)
}

// LayerRepository exposes persistence operations for data layers.
type LayerRepository interface {
	// CreateWithOwner inserts the layer and its owner binding in one
	// transaction. No reader ever observes the layer without the binding.
	CreateWithOwner(ctx context.Context, layer *models.DataLayer, ownerTokenID string) error
	GetByID(ctx context.Context, id string) (*models.DataLayer, error)
	List(ctx context.Context) ([]models.DataLayer, error)
	// Delete cascades to the layer's features, its role bindings, and every
	// view association referencing it.
	Delete(ctx context.Context, id string) error
}

// ViewRepository exposes persistence operations for geo views and their
// layer associations.
type ViewRepository interface {
	CreateWithOwner(ctx context.Context, view *models.GeoView, ownerTokenID string) error
	GetByID(ctx context.Context, id string) (*models.GeoView, error)
	List(ctx context.Context) ([]models.GeoView, error)
	// Delete removes the view, its associations, and its role bindings;
	// attached layers are untouched.
	Delete(ctx context.Context, id string) error

	AddLayer(ctx context.Context, viewID, layerID string) error
	RemoveLayer(ctx context.Context, viewID, layerID string) error
	// LayersInOrder returns the view's layers in association insertion order.
	LayersInOrder(ctx context.Context, viewID string) ([]models.DataLayer, error)
}

// FeatureRepository exposes persistence operations for features.
type FeatureRepository interface {
	// Create returns ErrDuplicate when another feature already holds the
	// same content hash. The check and the insert are a single atomic unit.
	Create(ctx context.Context, feature *models.Feature) error
	GetByID(ctx context.Context, id string) (*models.Feature, error)
	Update(ctx context.Context, feature *models.Feature) error
	Delete(ctx context.Context, id string) error
	ListByLayer(ctx context.Context, layerID string) ([]models.Feature, error)
}
