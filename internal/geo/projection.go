// Package geo reduces feature geometries to WGS84 centroid points. Centroids
// are always computed in a planar metric projection and reprojected back to
// lon/lat, never on raw geographic coordinates.
package geo

import (
	"math"

	"github.com/rotisserie/eris"
)

const earthRadius = 6378137.0 // WGS84 semi-major axis, meters

// maxMercatorLat is the latitude at which Web Mercator becomes square.
const maxMercatorLat = 85.05112878

// Projection converts between WGS84 lon/lat degrees and planar meters.
type Projection interface {
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

// Projection kinds accepted by ParseKind.
const (
	KindEqualArea   = "equal_area"
	KindWebMercator = "web_mercator"
)

// Kind selects how a projection is built for a given geometry.
type Kind string

// ParseKind validates a projection kind name. Empty selects equal area.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", KindEqualArea:
		return KindEqualArea, nil
	case KindWebMercator, "epsg:3857", "EPSG:3857":
		return KindWebMercator, nil
	default:
		return "", eris.Errorf("geo: unknown projection %q (valid: %s, %s)", s, KindEqualArea, KindWebMercator)
	}
}

// WebMercator is the spherical EPSG:3857 projection.
type WebMercator struct{}

// Forward projects lon/lat to Web Mercator meters.
func (WebMercator) Forward(lon, lat float64) (float64, float64) {
	lat = math.Max(-maxMercatorLat, math.Min(maxMercatorLat, lat))
	x := earthRadius * radians(lon)
	y := earthRadius * math.Log(math.Tan(math.Pi/4+radians(lat)/2))
	return x, y
}

// Inverse converts Web Mercator meters back to lon/lat.
func (WebMercator) Inverse(x, y float64) (float64, float64) {
	lon := degrees(x / earthRadius)
	lat := degrees(2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2)
	return lon, lat
}

// EqualArea is a Lambert cylindrical equal-area projection whose standard
// parallel and central meridian sit at the feature's own location, so areas
// are exact and local distances are nearly true.
type EqualArea struct {
	Lon0 float64
	Lat0 float64
}

// Forward projects lon/lat to equal-area meters.
func (p EqualArea) Forward(lon, lat float64) (float64, float64) {
	k := math.Cos(radians(p.Lat0))
	x := earthRadius * radians(lon-p.Lon0) * k
	y := earthRadius * math.Sin(radians(lat)) / k
	return x, y
}

// Inverse converts equal-area meters back to lon/lat.
func (p EqualArea) Inverse(x, y float64) (float64, float64) {
	k := math.Cos(radians(p.Lat0))
	s := math.Max(-1, math.Min(1, y*k/earthRadius))
	lat := degrees(math.Asin(s))
	lon := p.Lon0 + degrees(x/(earthRadius*k))
	return lon, lat
}

func radians(d float64) float64 { return d * math.Pi / 180 }
func degrees(r float64) float64 { return r * 180 / math.Pi }
