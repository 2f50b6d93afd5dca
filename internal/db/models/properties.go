package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Properties is an opaque JSON blob attached to layers, views, and features.
// The core never interprets its contents beyond canonical hashing.
type Properties map[string]any

// Scan implements sql.Scanner for reading from database
func (p *Properties) Scan(value any) error {
	if value == nil {
		*p = nil
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan Properties: expected []byte or string, got %T", value)
	}

	if len(raw) == 0 {
		*p = nil
		return nil
	}
	return json.Unmarshal(raw, p)
}

// Value implements driver.Valuer for writing to database
func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// BoundingBox is a derived [minX, minY, maxX, maxY] envelope stored alongside
// each geometry for cheap spatial pre-filtering.
type BoundingBox [4]float64

// Scan implements sql.Scanner for reading from database
func (b *BoundingBox) Scan(value any) error {
	if value == nil {
		*b = BoundingBox{}
		return nil
	}

	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("failed to scan BoundingBox: expected []byte or string, got %T", value)
	}

	var coords [4]float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return fmt.Errorf("failed to unmarshal BoundingBox: %w", err)
	}
	*b = coords
	return nil
}

// Value implements driver.Valuer for writing to database
func (b BoundingBox) Value() (driver.Value, error) {
	raw, err := json.Marshal([4]float64(b))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}
