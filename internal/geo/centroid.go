package geo

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Centroid returns the WGS84 lon/lat of g's centroid, computed in the
// projection selected by kind.
func Centroid(g geom.T, kind Kind) (lon, lat float64, err error) {
	if g == nil {
		return 0, 0, eris.New("geo: nil geometry")
	}
	if gc, ok := g.(*geom.GeometryCollection); ok {
		return collectionCentroid(gc, kind)
	}
	if !flat(g) {
		return 0, 0, eris.Errorf("geo: unsupported geometry %T", g)
	}
	if empty(g) {
		return 0, 0, eris.New("geo: empty geometry")
	}

	proj := projectionFor(g, kind)
	projected, err := Project(g, proj)
	if err != nil {
		return 0, 0, err
	}

	c := planarCentroid(projected)
	lon, lat = proj.Inverse(c[0], c[1])
	return lon, lat, nil
}

// collectionCentroid reduces a collection the way its highest-dimension
// members would: polygons weighted by area, lines by length, points by count.
// Lower-dimension members are ignored when a higher one is present.
func collectionCentroid(gc *geom.GeometryCollection, kind Kind) (lon, lat float64, err error) {
	ms := members(gc)
	if len(ms) == 0 {
		return 0, 0, eris.New("geo: empty geometry collection")
	}

	proj := projectionFor(gc, kind)
	type part struct {
		c   geom.Coord
		dim int
		w   float64
	}
	parts := make([]part, 0, len(ms))
	top := 0
	for _, m := range ms {
		pm, err := Project(m, proj)
		if err != nil {
			return 0, 0, err
		}
		dim, w := measure(pm)
		if dim > top {
			top = dim
		}
		parts = append(parts, part{c: planarCentroid(pm), dim: dim, w: w})
	}

	var sx, sy, sw float64
	n := 0
	for _, p := range parts {
		if p.dim != top {
			continue
		}
		sx += p.c[0] * p.w
		sy += p.c[1] * p.w
		sw += p.w
		n++
	}
	if sw == 0 {
		// Zero-area or zero-length members count equally.
		sx, sy = 0, 0
		for _, p := range parts {
			if p.dim == top {
				sx += p.c[0]
				sy += p.c[1]
			}
		}
		sw = float64(n)
	}

	lon, lat = proj.Inverse(sx/sw, sy/sw)
	return lon, lat, nil
}

// members flattens nested collections and skips empty or unsupported members.
func members(gc *geom.GeometryCollection) []geom.T {
	var out []geom.T
	for _, m := range gc.Geoms() {
		switch t := m.(type) {
		case nil:
		case *geom.GeometryCollection:
			out = append(out, members(t)...)
		default:
			if flat(t) && !empty(t) {
				out = append(out, t)
			}
		}
	}
	return out
}

// measure returns the topological dimension of a projected geometry and its
// size in that dimension.
func measure(g geom.T) (dim int, size float64) {
	switch t := g.(type) {
	case *geom.Polygon:
		return 2, math.Abs(t.Area())
	case *geom.MultiPolygon:
		return 2, math.Abs(t.Area())
	case *geom.LineString:
		return 1, t.Length()
	case *geom.MultiLineString:
		return 1, t.Length()
	case *geom.LinearRing:
		return 1, geom.NewLineStringFlat(t.Layout(), t.FlatCoords()).Length()
	case *geom.MultiPoint:
		return 0, float64(t.NumPoints())
	default:
		return 0, 1
	}
}

// planarCentroid is xy.Centroid with a vertex-mean fallback for degenerate
// shapes (zero length or area).
func planarCentroid(g geom.T) geom.Coord {
	c, err := xy.Centroid(g)
	if err != nil || len(c) < 2 || math.IsNaN(c[0]) || math.IsNaN(c[1]) {
		return vertexMean(g)
	}
	return c
}

// flat reports whether g stores its coordinates in a single flat slice.
func flat(g geom.T) bool {
	switch g.(type) {
	case *geom.Point, *geom.MultiPoint, *geom.LineString, *geom.LinearRing,
		*geom.Polygon, *geom.MultiLineString, *geom.MultiPolygon:
		return true
	default:
		return false
	}
}

func empty(g geom.T) bool {
	return g.Stride() < 2 || len(g.FlatCoords()) < g.Stride()
}

// Project returns a copy of g with every coordinate passed through p.Forward.
// Collections are not supported; project their members instead.
func Project(g geom.T, p Projection) (geom.T, error) {
	if g == nil || !flat(g) {
		return nil, eris.Errorf("geo: unsupported geometry %T", g)
	}
	src := g.FlatCoords()
	stride := g.Stride()
	flatCoords := make([]float64, len(src))
	copy(flatCoords, src)
	for i := 0; i+1 < len(flatCoords); i += stride {
		flatCoords[i], flatCoords[i+1] = p.Forward(flatCoords[i], flatCoords[i+1])
	}

	layout := g.Layout()
	switch g.(type) {
	case *geom.Point:
		return geom.NewPointFlat(layout, flatCoords), nil
	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(layout, flatCoords), nil
	case *geom.LineString:
		return geom.NewLineStringFlat(layout, flatCoords), nil
	case *geom.LinearRing:
		return geom.NewLinearRingFlat(layout, flatCoords), nil
	case *geom.Polygon:
		return geom.NewPolygonFlat(layout, flatCoords, g.Ends()), nil
	case *geom.MultiLineString:
		return geom.NewMultiLineStringFlat(layout, flatCoords, g.Ends()), nil
	default:
		return geom.NewMultiPolygonFlat(layout, flatCoords, g.Endss()), nil
	}
}

func projectionFor(g geom.T, kind Kind) Projection {
	if kind == KindWebMercator {
		return WebMercator{}
	}
	b := g.Bounds()
	return EqualArea{
		Lon0: (b.Min(0) + b.Max(0)) / 2,
		Lat0: (b.Min(1) + b.Max(1)) / 2,
	}
}

func vertexMean(g geom.T) geom.Coord {
	flat := g.FlatCoords()
	stride := g.Stride()
	var sx, sy float64
	n := 0
	for i := 0; i+1 < len(flat); i += stride {
		sx += flat[i]
		sy += flat[i+1]
		n++
	}
	return geom.Coord{sx / float64(n), sy / float64(n)}
}
