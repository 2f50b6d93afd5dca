package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DataLayer is an owned collection of geometric features. A layer exclusively
// owns its features: deleting the layer cascades to its features and to every
// role binding and view association referencing it.
type DataLayer struct {
	bun.BaseModel `bun:"table:layers,alias:l"`

	ID         string     `bun:"id,pk,type:uuid"`
	Descriptor string     `bun:"descriptor,notnull"`
	Properties Properties `bun:"properties,type:jsonb"`
	IsPublic   bool       `bun:"is_public,notnull,default:false"`
	CreatedAt  time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

func (l *DataLayer) ResourceID() string         { return l.ID }
func (l *DataLayer) ResourceKind() ResourceKind { return ResourceKindLayer }
func (l *DataLayer) Public() bool               { return l.IsPublic }
