package overpass

import (
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"

	"github.com/sells-group/ghostbiz/internal/model"
)

// Response is the JSON body of an `out geom` query.
type Response struct {
	Version   float64   `json:"version"`
	Generator string    `json:"generator"`
	Remark    string    `json:"remark,omitempty"`
	Elements  []Element `json:"elements"`
}

// Element is one node, way or relation.
type Element struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Lat      *float64          `json:"lat,omitempty"`
	Lon      *float64          `json:"lon,omitempty"`
	Tags     map[string]string `json:"tags,omitempty"`
	Geometry []*LatLon         `json:"geometry,omitempty"`
	Members  []Member          `json:"members,omitempty"`
}

// Member is a relation member with its inlined geometry.
type Member struct {
	Type     string    `json:"type"`
	Ref      int64     `json:"ref"`
	Role     string    `json:"role"`
	Lat      *float64  `json:"lat,omitempty"`
	Lon      *float64  `json:"lon,omitempty"`
	Geometry []*LatLon `json:"geometry,omitempty"`
}

// LatLon is a vertex. Overpass emits null for vertices it clipped away.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RemarkError is a runtime error the interpreter reported in the body of a
// 200 response.
type RemarkError struct {
	Remark string
}

func (e *RemarkError) Error() string {
	return "overpass: " + e.Remark
}

// Transient reports whether the remark describes server load rather than a
// bad query.
func (e *RemarkError) Transient() bool {
	r := strings.ToLower(e.Remark)
	return strings.Contains(r, "timed out") || strings.Contains(r, "out of memory")
}

// Failed reports whether the interpreter aborted the query.
func (r *Response) Failed() bool {
	return strings.Contains(strings.ToLower(r.Remark), "error")
}

// Features converts tagged elements with usable geometry into raw features,
// keeping response order.
func (r *Response) Features() []model.RawFeature {
	out := make([]model.RawFeature, 0, len(r.Elements))
	for _, el := range r.Elements {
		if len(el.Tags) == 0 {
			continue
		}
		g := el.geometry()
		if g == nil {
			continue
		}
		out = append(out, model.RawFeature{
			ID:          strconv.FormatInt(el.ID, 10),
			ElementType: el.Type,
			Tags:        el.Tags,
			Geometry:    g,
		})
	}
	return out
}

func (el Element) geometry() geom.T {
	switch el.Type {
	case "node":
		if el.Lat == nil || el.Lon == nil {
			return nil
		}
		return geom.NewPointFlat(geom.XY, []float64{*el.Lon, *el.Lat})
	case "way":
		flat := flatten(el.Geometry)
		if len(flat) < 4 {
			return nil
		}
		if isRing(flat) {
			return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
		}
		return geom.NewLineStringFlat(geom.XY, flat)
	case "relation":
		return relationGeometry(el.Members)
	default:
		return nil
	}
}

// relationGeometry builds a MultiPolygon from the outer rings when the
// outer ways close, falling back to the member lines, then member nodes.
// Inner rings are dropped; only the centroid is ever used.
func relationGeometry(members []Member) geom.T {
	var outer, lines [][]float64
	var points []float64
	for _, m := range members {
		switch m.Type {
		case "way":
			flat := flatten(m.Geometry)
			if len(flat) < 4 {
				continue
			}
			lines = append(lines, flat)
			if m.Role == "outer" || m.Role == "" {
				outer = append(outer, flat)
			}
		case "node":
			if m.Lat != nil && m.Lon != nil {
				points = append(points, *m.Lon, *m.Lat)
			}
		}
	}

	if rings := assembleRings(outer); len(rings) > 0 {
		var flat []float64
		endss := make([][]int, 0, len(rings))
		for _, ring := range rings {
			flat = append(flat, ring...)
			endss = append(endss, []int{len(flat)})
		}
		return geom.NewMultiPolygonFlat(geom.XY, flat, endss)
	}
	if len(lines) > 0 {
		var flat []float64
		ends := make([]int, 0, len(lines))
		for _, l := range lines {
			flat = append(flat, l...)
			ends = append(ends, len(flat))
		}
		return geom.NewMultiLineStringFlat(geom.XY, flat, ends)
	}
	if len(points) > 0 {
		return geom.NewMultiPointFlat(geom.XY, points)
	}
	return nil
}

// assembleRings joins way segments that share endpoints into closed rings.
// Segments that never close are discarded.
func assembleRings(segments [][]float64) [][]float64 {
	pending := make([][]float64, 0, len(segments))
	var rings [][]float64
	for _, s := range segments {
		if isRing(s) {
			rings = append(rings, s)
		} else {
			pending = append(pending, s)
		}
	}

	for len(pending) > 0 {
		cur := pending[0]
		pending = pending[1:]
		for !isRing(cur) {
			joined := false
			for i, s := range pending {
				if next, ok := join(cur, s); ok {
					cur = next
					pending = append(pending[:i], pending[i+1:]...)
					joined = true
					break
				}
			}
			if !joined {
				break
			}
		}
		if isRing(cur) {
			rings = append(rings, cur)
		}
	}
	return rings
}

// join appends b to a when they share an endpoint, reversing as needed.
func join(a, b []float64) ([]float64, bool) {
	aEnd := a[len(a)-2:]
	aStart := a[:2]
	switch {
	case samePoint(aEnd, b[:2]):
		return concat(a, b[2:]), true
	case samePoint(aEnd, b[len(b)-2:]):
		return concat(a, reverse(b)[2:]), true
	case samePoint(aStart, b[len(b)-2:]):
		return concat(b, a[2:]), true
	case samePoint(aStart, b[:2]):
		return concat(reverse(b), a[2:]), true
	}
	return nil, false
}

func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

func reverse(flat []float64) []float64 {
	out := make([]float64, len(flat))
	for i, j := 0, len(flat)-2; j >= 0; i, j = i+2, j-2 {
		out[i], out[i+1] = flat[j], flat[j+1]
	}
	return out
}

func samePoint(a, b []float64) bool {
	return a[0] == b[0] && a[1] == b[1]
}

// isRing reports whether flat is a closed ring of at least four vertices.
func isRing(flat []float64) bool {
	return len(flat) >= 8 && samePoint(flat[:2], flat[len(flat)-2:])
}

func flatten(pts []*LatLon) []float64 {
	flat := make([]float64, 0, 2*len(pts))
	for _, p := range pts {
		if p == nil {
			continue
		}
		flat = append(flat, p.Lon, p.Lat)
	}
	return flat
}
