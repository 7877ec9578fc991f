package source

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/model"
)

// GeoJSON reads features from a GeoJSON FeatureCollection file, such as an
// Overpass Turbo export. The query's tag filter and bbox are applied
// locally; the place name is ignored because the file is already scoped.
type GeoJSON struct {
	path string
}

// NewGeoJSON creates a provider for the file at path.
func NewGeoJSON(path string) *GeoJSON {
	return &GeoJSON{path: path}
}

// Features loads the file and returns the features matching q.
func (p *GeoJSON) Features(_ context.Context, q model.Query) ([]model.RawFeature, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: read %s", p.path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "source: parse %s", p.path)
	}

	out := make([]model.RawFeature, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		raw := fromGeoJSON(f)
		if !MatchesTags(raw, q.Tags) || !intersects(raw.Geometry, q.BBox) {
			continue
		}
		out = append(out, raw)
	}
	zap.L().Info("source: loaded geojson",
		zap.String("path", p.path),
		zap.Int("features", len(fc.Features)),
		zap.Int("matched", len(out)),
	)
	return out, nil
}

func fromGeoJSON(f *geojson.Feature) model.RawFeature {
	tags := make(map[string]string, len(f.Properties))
	for k, v := range f.Properties {
		if s, ok := propertyString(v); ok {
			tags[k] = s
		}
	}

	raw := model.RawFeature{ID: f.ID, Tags: tags, Geometry: f.Geometry}
	// Overpass Turbo writes "@id": "way/123"; osmnx exports carry element/id.
	if ref, ok := tags["@id"]; ok {
		if typ, id, found := strings.Cut(ref, "/"); found {
			raw.ElementType, raw.ID = typ, id
		}
	}
	if raw.ElementType == "" {
		if typ, ok := tags["element"]; ok {
			raw.ElementType = typ
		}
	}
	if strings.Contains(raw.ID, "/") {
		typ, id, _ := strings.Cut(raw.ID, "/")
		raw.ID = id
		if raw.ElementType == "" {
			raw.ElementType = typ
		}
	}
	return raw
}

// propertyString flattens a GeoJSON property to an OSM tag value. Nested
// objects and arrays are not tags and are skipped.
func propertyString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

// MatchesTags reports whether f carries at least one key of the filter with
// an accepted value. An empty filter matches everything.
func MatchesTags(f model.RawFeature, filter model.TagFilter) bool {
	if len(filter) == 0 {
		return true
	}
	for key, m := range filter {
		v, ok := f.Tag(key)
		if !ok {
			continue
		}
		if m.Any {
			return true
		}
		for _, want := range m.Values {
			if v == want {
				return true
			}
		}
	}
	return false
}

func intersects(g geom.T, b *model.BBox) bool {
	if b == nil {
		return true
	}
	gb := g.Bounds()
	if gb.IsEmpty() {
		return false
	}
	box := geom.NewBounds(geom.XY).Set(b.West, b.South, b.East, b.North)
	return gb.Overlaps(geom.XY, box)
}
