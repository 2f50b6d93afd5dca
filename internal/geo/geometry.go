// Package geo wraps the external geometry and content-hash capabilities the
// core depends on. Nothing outside this package imports the geometry library
// directly.
package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	geojson "github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Parse decodes a GeoJSON geometry object. Deterministic and side-effect
// free; a malformed or empty input is the caller's validation error.
func Parse(raw json.RawMessage) (orb.Geometry, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty geometry")
	}
	g, err := geojson.UnmarshalGeometry(raw)
	if err != nil {
		return nil, fmt.Errorf("parse geometry: %w", err)
	}
	geom := g.Geometry()
	if geom == nil {
		return nil, fmt.Errorf("parse geometry: no coordinates")
	}
	return geom, nil
}

// Bound computes the [minX, minY, maxX, maxY] envelope of a geometry.
func Bound(g orb.Geometry) [4]float64 {
	b := g.Bound()
	return [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
}

// Intersects reports whether a feature geometry falls inside a window
// geometry. Point-in-polygon tests are exact; for other geometry pairs the
// test degrades to envelope overlap, which is the resolution the projection
// index needs.
func Intersects(window, feature orb.Geometry) bool {
	if !window.Bound().Intersects(feature.Bound()) {
		return false
	}

	switch w := window.(type) {
	case orb.Polygon:
		return polygonCovers(w, feature)
	case orb.MultiPolygon:
		return multiPolygonCovers(w, feature)
	}
	return true
}

func polygonCovers(w orb.Polygon, feature orb.Geometry) bool {
	switch f := feature.(type) {
	case orb.Point:
		return planar.PolygonContains(w, f)
	case orb.MultiPoint:
		for _, p := range f {
			if planar.PolygonContains(w, p) {
				return true
			}
		}
		return false
	}
	// Lines and polygons whose envelope overlaps the window count as
	// intersecting.
	return true
}

func multiPolygonCovers(w orb.MultiPolygon, feature orb.Geometry) bool {
	switch f := feature.(type) {
	case orb.Point:
		return planar.MultiPolygonContains(w, f)
	case orb.MultiPoint:
		for _, p := range f {
			if planar.MultiPolygonContains(w, p) {
				return true
			}
		}
		return false
	}
	return true
}
