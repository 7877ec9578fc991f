package model

import (
	"strings"

	"github.com/twpayne/go-geom"
)

// RawFeature is one tagged geometric entity as returned by a feature provider.
// It is read-only input to normalization and is discarded after conversion.
type RawFeature struct {
	ID          string            // provider identifier, e.g. "123456"
	ElementType string            // node, way, relation; may be empty
	Tags        map[string]string // raw OSM tags
	Geometry    geom.T            // WGS84 lon/lat geometry
}

// Tag returns the trimmed value of key and whether it is present. A key
// holding only whitespace counts as absent.
func (f RawFeature) Tag(key string) (string, bool) {
	v, ok := f.Tags[key]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	return v, true
}

// Name returns the feature's name tag, or "" when it has none.
func (f RawFeature) Name() string {
	v, _ := f.Tag("name")
	return v
}
