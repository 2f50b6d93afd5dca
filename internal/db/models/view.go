package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// GeoView is a geometric window plus a weak, many-to-many reference set to
// layers. The association is lookup-only: deleting a view never touches the
// attached layers or their features.
type GeoView struct {
	bun.BaseModel `bun:"table:geo_views,alias:v"`

	ID         string          `bun:"id,pk,type:uuid"`
	Descriptor string          `bun:"descriptor,notnull"`
	Geometry   json.RawMessage `bun:"geometry,notnull,type:jsonb"` // GeoJSON window geometry
	BBox       BoundingBox     `bun:"bbox,type:jsonb"`
	Properties Properties      `bun:"properties,type:jsonb"`
	IsPublic   bool            `bun:"is_public,notnull,default:false"`
	CreatedAt  time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}

func (v *GeoView) ResourceID() string         { return v.ID }
func (v *GeoView) ResourceKind() ResourceKind { return ResourceKindView }
func (v *GeoView) Public() bool               { return v.IsPublic }

// ViewLayer is one row of the view/layer association table. The monotonic
// primary key preserves association insertion order, which projection
// iteration depends on.
type ViewLayer struct {
	bun.BaseModel `bun:"table:view_layers,alias:vl"`

	ID      int64     `bun:"id,pk,autoincrement"`
	ViewID  string    `bun:"view_id,notnull,type:uuid"`  // FK to geo_views(id)
	LayerID string    `bun:"layer_id,notnull,type:uuid"` // FK to layers(id)
	AddedAt time.Time `bun:"added_at,notnull,default:current_timestamp"`
}
