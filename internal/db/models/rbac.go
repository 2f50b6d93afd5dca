package models

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Role is an ordered capability level. Higher roles include every capability
// of the roles below them, so all hierarchy checks reduce to a single
// comparison via Includes.
type Role int16

const (
	RoleViewer Role = iota
	RoleEditor
	RoleOwner
)

// Includes reports whether a holder of r may act at the required level.
func (r Role) Includes(required Role) bool {
	return r >= required
}

func (r Role) String() string {
	switch r {
	case RoleViewer:
		return "viewer"
	case RoleEditor:
		return "editor"
	case RoleOwner:
		return "owner"
	default:
		return fmt.Sprintf("role(%d)", int16(r))
	}
}

// ParseRole converts the wire representation of a role back to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "viewer":
		return RoleViewer, nil
	case "editor":
		return RoleEditor, nil
	case "owner":
		return RoleOwner, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

// ResourceKind distinguishes the two resource types that carry role bindings.
type ResourceKind string

const (
	ResourceKindLayer ResourceKind = "layer"
	ResourceKindView  ResourceKind = "view"
)

// ParseResourceKind converts the wire representation of a resource kind.
func ParseResourceKind(s string) (ResourceKind, error) {
	switch s {
	case string(ResourceKindLayer):
		return ResourceKindLayer, nil
	case string(ResourceKindView):
		return ResourceKindView, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q", s)
	}
}

// Resource is implemented by every entity that can be the target of a role
// binding. The permission resolver depends only on this interface, never on
// the concrete entity types.
type Resource interface {
	ResourceID() string
	ResourceKind() ResourceKind
	Public() bool
}

// RoleBinding is a granted (token, resource, role) fact. Multiple bindings
// for the same (token, resource) pair may coexist with different roles; the
// resolver takes the maximum.
type RoleBinding struct {
	bun.BaseModel `bun:"table:role_bindings,alias:rb"`

	ID           string       `bun:"id,pk,type:uuid"`
	TokenID      string       `bun:"token_id,notnull,type:uuid"` // FK to api_tokens(id)
	ResourceID   string       `bun:"resource_id,notnull,type:uuid"`
	ResourceKind ResourceKind `bun:"resource_kind,notnull"`
	Role         Role         `bun:"role,notnull"`
	GrantedAt    time.Time    `bun:"granted_at,notnull,default:current_timestamp"`
}
