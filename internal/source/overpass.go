// Package source implements the feature providers the record builder reads
// from: the live Overpass API and GeoJSON files exported earlier.
package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/pkg/geocode"
	"github.com/sells-group/ghostbiz/pkg/overpass"
)

// Overpass fetches features from the Overpass API. Place names are resolved
// to OSM areas through Nominatim. Names listed in the override table are
// queried by bounding box first and fall back to the area query on failure.
type Overpass struct {
	client    overpass.Client
	places    geocode.Client
	overrides map[string]model.BBox
}

// NewOverpass creates an Overpass provider. overrides maps known
// problematic place names to the bounding box to use instead.
func NewOverpass(client overpass.Client, places geocode.Client, overrides map[string]model.BBox) *Overpass {
	norm := make(map[string]model.BBox, len(overrides))
	for name, b := range overrides {
		norm[normalizePlace(name)] = b
	}
	return &Overpass{client: client, places: places, overrides: norm}
}

// Features runs q against Overpass.
func (p *Overpass) Features(ctx context.Context, q model.Query) ([]model.RawFeature, error) {
	bbox := q.BBox
	if bbox == nil && q.Place != "" {
		if b, ok := p.overrides[normalizePlace(q.Place)]; ok {
			zap.L().Info("source: using bbox override", zap.String("place", q.Place))
			bbox = &b
		}
	}

	if bbox != nil {
		features, err := p.client.Fetch(ctx, overpass.Request{Tags: q.Tags, BBox: bbox})
		if err == nil {
			return features, nil
		}
		if q.Place == "" || ctx.Err() != nil {
			return nil, eris.Wrap(err, "source: bbox query")
		}
		zap.L().Warn("source: bbox query failed, falling back to place query",
			zap.String("place", q.Place),
			zap.Error(err),
		)
	}

	if q.Place == "" {
		return nil, eris.New("source: query needs a place or a bbox")
	}
	return p.byPlace(ctx, q)
}

func (p *Overpass) byPlace(ctx context.Context, q model.Query) ([]model.RawFeature, error) {
	place, err := p.places.Resolve(ctx, q.Place)
	if err != nil {
		return nil, eris.Wrapf(err, "source: resolve %q", q.Place)
	}
	zap.L().Info("source: resolved place",
		zap.String("place", q.Place),
		zap.String("display_name", place.DisplayName),
		zap.String("osm_type", place.OSMType),
		zap.Int64("osm_id", place.OSMID),
	)

	req := overpass.Request{Tags: q.Tags}
	if id, ok := place.AreaID(); ok {
		req.AreaID = id
	} else {
		b := place.BBox
		req.BBox = &b
	}
	features, err := p.client.Fetch(ctx, req)
	if err != nil {
		return nil, eris.Wrapf(err, "source: place query %q", q.Place)
	}
	return features, nil
}

func normalizePlace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
