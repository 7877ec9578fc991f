package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestParseKind(t *testing.T) {
	k, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, Kind(KindEqualArea), k)

	k, err = ParseKind("EPSG:3857")
	require.NoError(t, err)
	assert.Equal(t, Kind(KindWebMercator), k)

	_, err = ParseKind("utm")
	assert.Error(t, err)
}

func TestWebMercatorRoundTrip(t *testing.T) {
	p := WebMercator{}
	for _, c := range [][2]float64{{12.5683, 55.6761}, {-122.4194, 37.7749}, {0, 0}, {151.2093, -33.8688}} {
		x, y := p.Forward(c[0], c[1])
		lon, lat := p.Inverse(x, y)
		assert.InDelta(t, c[0], lon, 1e-9)
		assert.InDelta(t, c[1], lat, 1e-9)
	}

	x, y := p.Forward(0, 0)
	assert.InDelta(t, 0, x, 1e-6)
	assert.InDelta(t, 0, y, 1e-6)
}

func TestEqualAreaRoundTrip(t *testing.T) {
	p := EqualArea{Lon0: 12.5, Lat0: 55.7}
	for _, c := range [][2]float64{{12.5683, 55.6761}, {12.4, 55.8}, {12.5, 55.7}} {
		x, y := p.Forward(c[0], c[1])
		lon, lat := p.Inverse(x, y)
		assert.InDelta(t, c[0], lon, 1e-9)
		assert.InDelta(t, c[1], lat, 1e-9)
	}
}

func TestCentroid_Point(t *testing.T) {
	g := geom.NewPointFlat(geom.XY, []float64{12.5683, 55.6761})
	for _, kind := range []Kind{KindEqualArea, KindWebMercator} {
		lon, lat, err := Centroid(g, kind)
		require.NoError(t, err)
		assert.InDelta(t, 12.5683, lon, 1e-9)
		assert.InDelta(t, 55.6761, lat, 1e-9)
	}
}

func TestCentroid_SquarePolygon(t *testing.T) {
	ring := []float64{
		12.580, 55.670,
		12.590, 55.670,
		12.590, 55.680,
		12.580, 55.680,
		12.580, 55.670,
	}
	g := geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})

	for _, kind := range []Kind{KindEqualArea, KindWebMercator} {
		lon, lat, err := Centroid(g, kind)
		require.NoError(t, err)
		assert.InDelta(t, 12.585, lon, 1e-6)
		assert.InDelta(t, 55.675, lat, 1e-4)
	}
}

func TestCentroid_LineString(t *testing.T) {
	g := geom.NewLineStringFlat(geom.XY, []float64{10.0, 60.0, 10.002, 60.0})
	lon, lat, err := Centroid(g, KindEqualArea)
	require.NoError(t, err)
	assert.InDelta(t, 10.001, lon, 1e-6)
	assert.InDelta(t, 60.0, lat, 1e-6)
}

func TestCentroid_MultiPolygon(t *testing.T) {
	a := []float64{0, 0, 0.001, 0, 0.001, 0.001, 0, 0.001, 0, 0}
	b := []float64{0.002, 0, 0.003, 0, 0.003, 0.001, 0.002, 0.001, 0.002, 0}
	flat := append(append([]float64{}, a...), b...)
	g := geom.NewMultiPolygonFlat(geom.XY, flat, [][]int{{len(a)}, {len(a) + len(b)}})

	lon, lat, err := Centroid(g, KindEqualArea)
	require.NoError(t, err)
	assert.InDelta(t, 0.0015, lon, 1e-7)
	assert.InDelta(t, 0.0005, lat, 1e-7)
}

func TestCentroid_Errors(t *testing.T) {
	_, _, err := Centroid(nil, KindEqualArea)
	assert.Error(t, err)

	_, _, err = Centroid(geom.NewLineString(geom.XY), KindEqualArea)
	assert.Error(t, err)
}

func TestCentroid_GeometryCollection(t *testing.T) {
	a := geom.NewPolygonFlat(geom.XY, []float64{0, 0, 0.001, 0, 0.001, 0.001, 0, 0.001, 0, 0}, []int{10})
	b := geom.NewPolygonFlat(geom.XY, []float64{0.002, 0, 0.003, 0, 0.003, 0.001, 0.002, 0.001, 0.002, 0}, []int{10})
	gc := geom.NewGeometryCollection().MustPush(a, b)

	lon, lat, err := Centroid(gc, KindEqualArea)
	require.NoError(t, err)
	assert.InDelta(t, 0.0015, lon, 1e-7)
	assert.InDelta(t, 0.0005, lat, 1e-7)
}

func TestCentroid_GeometryCollectionIgnoresLowerDimensions(t *testing.T) {
	square := geom.NewPolygonFlat(geom.XY, []float64{0, 0, 0.001, 0, 0.001, 0.001, 0, 0.001, 0, 0}, []int{10})
	far := geom.NewPointFlat(geom.XY, []float64{0.5, 0.5})
	gc := geom.NewGeometryCollection().MustPush(far, square)

	lon, lat, err := Centroid(gc, KindEqualArea)
	require.NoError(t, err)
	assert.InDelta(t, 0.0005, lon, 1e-7)
	assert.InDelta(t, 0.0005, lat, 1e-7)
}

func TestCentroid_NestedCollectionOfPoints(t *testing.T) {
	inner := geom.NewGeometryCollection().MustPush(geom.NewPointFlat(geom.XY, []float64{0.002, 0}))
	gc := geom.NewGeometryCollection().MustPush(geom.NewPointFlat(geom.XY, []float64{0, 0}), inner)

	lon, lat, err := Centroid(gc, KindWebMercator)
	require.NoError(t, err)
	assert.InDelta(t, 0.001, lon, 1e-9)
	assert.InDelta(t, 0, lat, 1e-9)
}

func TestCentroid_EmptyCollection(t *testing.T) {
	_, _, err := Centroid(geom.NewGeometryCollection(), KindEqualArea)
	assert.Error(t, err)

	_, err = Project(geom.NewGeometryCollection(), WebMercator{})
	assert.Error(t, err)
}

func TestVertexMean(t *testing.T) {
	g := geom.NewLineStringFlat(geom.XY, []float64{0, 0, 2, 4, 4, 2})
	c := vertexMean(g)
	assert.InDelta(t, 2, c[0], 1e-12)
	assert.InDelta(t, 2, c[1], 1e-12)
}
