package server

import (
	"encoding/json"
	"time"

	"github.com/rapidgeo/rapid/internal/db/models"
	"github.com/rapidgeo/rapid/internal/services/geodata"
)

// The view models below are stateless projections of the persisted entities.
// Options that include or exclude detail are parameters here, never flags
// written onto a shared entity instance.

type tokenVM struct {
	UID        string    `json:"uid"`
	Descriptor string    `json:"descriptor"`
	IssuedAt   time.Time `json:"issued"`
	Key        string    `json:"key,omitempty"` // populated only at creation
}

func newTokenVM(t *models.APIToken, key string) tokenVM {
	return tokenVM{
		UID:        t.ID,
		Descriptor: t.Descriptor,
		IssuedAt:   t.IssuedAt,
		Key:        key,
	}
}

type layerVM struct {
	UID        string            `json:"uid"`
	Descriptor string            `json:"descriptor"`
	Properties models.Properties `json:"properties,omitempty"`
	IsPublic   bool              `json:"is_public"`
	Features   []string          `json:"features,omitempty"`
}

// newLayerVM renders a layer; featureIDs may be nil to omit the listing.
func newLayerVM(l *models.DataLayer, featureIDs []string) layerVM {
	return layerVM{
		UID:        l.ID,
		Descriptor: l.Descriptor,
		Properties: l.Properties,
		IsPublic:   l.IsPublic,
		Features:   featureIDs,
	}
}

type viewVM struct {
	UID        string                    `json:"uid"`
	Descriptor string                    `json:"descriptor"`
	Geometry   json.RawMessage           `json:"geometry,omitempty"`
	BBox       models.BoundingBox        `json:"bbox"`
	Properties models.Properties         `json:"properties,omitempty"`
	IsPublic   bool                      `json:"is_public"`
	Layers     []geodata.LayerProjection `json:"layers,omitempty"`
}

type viewVMOptions struct {
	IncludeGeometry   bool
	IncludeProjection bool
}

// newViewVM renders a view; the projection is supplied by the caller when
// requested so this stays a pure formatting step.
func newViewVM(v *models.GeoView, projection []geodata.LayerProjection, opts viewVMOptions) viewVM {
	vm := viewVM{
		UID:        v.ID,
		Descriptor: v.Descriptor,
		BBox:       v.BBox,
		Properties: v.Properties,
		IsPublic:   v.IsPublic,
	}
	if opts.IncludeGeometry {
		vm.Geometry = v.Geometry
	}
	if opts.IncludeProjection {
		vm.Layers = projection
	}
	return vm
}

type featureVM struct {
	UID        string             `json:"uid"`
	Type       string             `json:"type"`
	Layer      string             `json:"layer"`
	Geometry   json.RawMessage    `json:"geometry"`
	BBox       models.BoundingBox `json:"bbox"`
	Properties models.Properties  `json:"properties,omitempty"`
	CreatedAt  time.Time          `json:"created"`
	ModifiedAt time.Time          `json:"modified"`
}

func newFeatureVM(f *models.Feature) featureVM {
	return featureVM{
		UID:        f.ID,
		Type:       "Feature",
		Layer:      f.LayerID,
		Geometry:   f.Geometry,
		BBox:       f.BBox,
		Properties: f.Properties,
		CreatedAt:  f.CreatedAt,
		ModifiedAt: f.ModifiedAt,
	}
}
