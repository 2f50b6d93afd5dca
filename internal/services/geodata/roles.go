package geodata

import (
	"context"

	"github.com/rapidgeo/rapid/internal/db/models"
)

// GrantRole grants targetTokenID the given role on a resource. The caller
// must hold Owner on the resource; the target token must exist.
func (s *Service) GrantRole(ctx context.Context, resourceID string, kind models.ResourceKind, targetTokenID string, role models.Role, callerTokenID string) error {
	res, err := s.resource(ctx, resourceID, kind)
	if err != nil {
		return err
	}
	if err := s.require(ctx, callerTokenID, res, models.RoleOwner); err != nil {
		return err
	}
	if _, err := s.tokens.GetByID(ctx, targetTokenID); err != nil {
		return translateRepoError(err)
	}

	return s.bindings.Grant(ctx, &models.RoleBinding{
		TokenID:      targetTokenID,
		ResourceID:   resourceID,
		ResourceKind: kind,
		Role:         role,
	})
}

// RevokeRole removes a granted role from targetTokenID on a resource. The
// caller must hold Owner on the resource. Revoking a binding that never
// existed succeeds and changes nothing.
func (s *Service) RevokeRole(ctx context.Context, resourceID string, kind models.ResourceKind, targetTokenID string, role models.Role, callerTokenID string) error {
	res, err := s.resource(ctx, resourceID, kind)
	if err != nil {
		return err
	}
	if err := s.require(ctx, callerTokenID, res, models.RoleOwner); err != nil {
		return err
	}

	return s.bindings.Revoke(ctx, targetTokenID, resourceID, kind, role)
}
