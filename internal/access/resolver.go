// Package access implements the permission resolver and credential helpers.
// The resolver is the single place where the role hierarchy is evaluated;
// every read and write path in the service layer goes through it.
package access

import (
	"context"

	"github.com/rapidgeo/rapid/internal/db/models"
)

// BindingReader is the slice of the role binding store the resolver needs.
type BindingReader interface {
	// MaxRole returns the highest role granted to the token on the resource,
	// and whether any binding exists at all.
	MaxRole(ctx context.Context, tokenID, resourceID string, kind models.ResourceKind) (models.Role, bool, error)
}

// Resolver answers "may this credential perform this capability on this
// resource". It is read-only and safe for concurrent use. It performs no
// existence check on the resource; callers resolve the resource first.
type Resolver struct {
	bindings BindingReader
}

// NewResolver constructs a resolver over the given binding store.
func NewResolver(bindings BindingReader) *Resolver {
	return &Resolver{bindings: bindings}
}

// HasPermission evaluates the access decision for tokenID (empty string =
// anonymous caller) against a resource at the required role level.
//
// Public resources are viewable by anyone, credential or not. Everything
// else requires a binding whose maximum role includes the required one.
func (r *Resolver) HasPermission(ctx context.Context, tokenID string, resource models.Resource, required models.Role) (bool, error) {
	if resource.Public() && required == models.RoleViewer {
		return true, nil
	}
	if tokenID == "" {
		return false, nil
	}

	max, found, err := r.bindings.MaxRole(ctx, tokenID, resource.ResourceID(), resource.ResourceKind())
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	return max.Includes(required), nil
}
