package models

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Feature is an atomic geometry + properties record owned by exactly one
// layer. ContentHash is a deterministic digest of geometry and properties and
// is unique system-wide; a second feature with identical content is rejected
// at insert rather than silently duplicated.
type Feature struct {
	bun.BaseModel `bun:"table:features,alias:f"`

	ID          string          `bun:"id,pk,type:uuid"`
	LayerID     string          `bun:"layer_id,notnull,type:uuid"` // FK to layers(id)
	Geometry    json.RawMessage `bun:"geometry,notnull,type:jsonb"`
	BBox        BoundingBox     `bun:"bbox,type:jsonb"`
	Properties  Properties      `bun:"properties,type:jsonb"`
	ContentHash string          `bun:"content_hash,notnull,unique"`
	CreatedAt   time.Time       `bun:"created_at,notnull,default:current_timestamp"`
	ModifiedAt  time.Time       `bun:"modified_at,notnull,default:current_timestamp"`
}
