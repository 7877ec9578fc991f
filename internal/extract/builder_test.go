package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/ghostbiz/internal/geo"
	"github.com/sells-group/ghostbiz/internal/model"
)

type stubProvider struct {
	features []model.RawFeature
	err      error
	gotQuery model.Query
}

func (s *stubProvider) Features(_ context.Context, q model.Query) ([]model.RawFeature, error) {
	s.gotQuery = q
	return s.features, s.err
}

func point(lon, lat float64) geom.T {
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}

func named(name string, tags map[string]string) model.RawFeature {
	t := map[string]string{"name": name}
	for k, v := range tags {
		t[k] = v
	}
	return model.RawFeature{ID: name, ElementType: "node", Tags: t, Geometry: point(12.58, 55.68)}
}

func TestBuild_FiltersUnnamedAndPreservesOrder(t *testing.T) {
	p := &stubProvider{features: []model.RawFeature{
		named("Zulu Bar", map[string]string{"amenity": "bar"}),
		{ID: "x", Tags: map[string]string{"shop": "bakery", "phone": "123", "website": "x.dk"}, Geometry: point(1, 1)},
		named("Alpha Shop", map[string]string{"shop": "books"}),
		{ID: "y", Tags: map[string]string{"name": "   "}, Geometry: point(1, 1)},
		{ID: "z", Tags: map[string]string{"name": "nan"}, Geometry: nil},
		named("Mike Cafe", nil),
	}}

	q := model.Query{Place: "København, Danmark"}
	res := NewBuilder(p).Build(context.Background(), q)

	require.NoError(t, res.FetchErr)
	assert.False(t, res.Degraded())
	assert.Equal(t, q, p.gotQuery)
	assert.Equal(t, 6, res.Fetched)
	assert.Equal(t, 3, res.Dropped)
	require.Len(t, res.Records, 3)
	assert.Equal(t, "Zulu Bar", res.Records[0].Name)
	assert.Equal(t, "Alpha Shop", res.Records[1].Name)
	assert.Equal(t, "Mike Cafe", res.Records[2].Name)
	for _, r := range res.Records {
		assert.NotEmpty(t, r.Name)
		assert.InDelta(t, 55.68, r.Lat, 1e-9)
		assert.InDelta(t, 12.58, r.Lon, 1e-9)
	}
}

func TestBuild_ProviderErrorDegradesToEmpty(t *testing.T) {
	p := &stubProvider{err: errors.New("overpass: 504 gateway timeout")}
	res := NewBuilder(p).Build(context.Background(), model.Query{Place: "Nowhere"})

	assert.Empty(t, res.Records)
	assert.True(t, res.Degraded())
	assert.Contains(t, res.FetchErr.Error(), "504")
}

func TestBuild_BadGeometryDegradesToEmpty(t *testing.T) {
	p := &stubProvider{features: []model.RawFeature{
		named("Good", nil),
		{ID: "9", Tags: map[string]string{"name": "Broken"}, Geometry: nil},
	}}
	res := NewBuilder(p).Build(context.Background(), model.Query{})

	assert.Empty(t, res.Records)
	assert.True(t, res.Degraded())
	assert.Equal(t, 2, res.Fetched)
}

func TestBuild_EmptyCollectionIsNotDegraded(t *testing.T) {
	res := NewBuilder(&stubProvider{}).Build(context.Background(), model.Query{})
	assert.Empty(t, res.Records)
	assert.False(t, res.Degraded())
}

func TestFromFeatures_ProjectedCentroid(t *testing.T) {
	ring := []float64{
		12.580, 55.670,
		12.590, 55.670,
		12.590, 55.680,
		12.580, 55.680,
		12.580, 55.670,
	}
	f := model.RawFeature{
		ID:       "1",
		Tags:     map[string]string{"name": "Magasin", "shop": "department_store"},
		Geometry: geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)}),
	}
	b := NewBuilder(nil, WithProjection(geo.KindWebMercator))
	records, dropped, err := b.FromFeatures([]model.RawFeature{f})
	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, records, 1)
	assert.InDelta(t, 12.585, records[0].Lon, 1e-6)
	assert.InDelta(t, 55.675, records[0].Lat, 1e-4)
	assert.Equal(t, "way", records[0].OSMType)
	assert.Equal(t, "Shop: Department Store", records[0].BusinessType)
}

func TestClean(t *testing.T) {
	tests := []struct {
		name    string
		website *string
		want    *string
	}{
		{"bare domain gets scheme", model.Str("example.com"), model.Str("http://example.com")},
		{"https unchanged", model.Str("https://example.com"), model.Str("https://example.com")},
		{"http unchanged", model.Str("http://example.com"), model.Str("http://example.com")},
		{"upper case scheme unchanged", model.Str("HTTPS://EXAMPLE.COM"), model.Str("HTTPS://EXAMPLE.COM")},
		{"nil stays nil", nil, nil},
		{"empty becomes nil", model.Str(""), nil},
		{"sentinel becomes nil", model.Str("None"), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(model.BusinessRecord{Name: "X", Website: tt.website})
			assert.Equal(t, tt.want, got.Website)
		})
	}
}

func TestClean_PhoneAndSentinels(t *testing.T) {
	r := Clean(model.BusinessRecord{
		Name:    "X",
		Phone:   model.Str("  +45 12 34 56 78\t"),
		Email:   model.Str("nan"),
		Brand:   model.Str(""),
		Address: model.Str("None"),
		Cuisine: model.Str("pizza"),
	})
	assert.Equal(t, model.Str("+45 12 34 56 78"), r.Phone)
	assert.Nil(t, r.Email)
	assert.Nil(t, r.Brand)
	assert.Nil(t, r.Address)
	assert.Equal(t, model.Str("pizza"), r.Cuisine)

	r = Clean(model.BusinessRecord{Name: "X", Phone: model.Str("   ")})
	assert.Nil(t, r.Phone)
}

func TestBuild_GeometryCollectionKeepsTable(t *testing.T) {
	shop := named("Corner Shop", map[string]string{"shop": "convenience"})
	shop.ElementType = ""
	shop.Geometry = geom.NewGeometryCollection().MustPush(
		geom.NewPointFlat(geom.XY, []float64{12.580, 55.680}),
		geom.NewPointFlat(geom.XY, []float64{12.582, 55.680}),
	)
	p := &stubProvider{features: []model.RawFeature{
		named("Kaffe Bar", map[string]string{"amenity": "cafe"}),
		shop,
	}}

	res := NewBuilder(p).Build(context.Background(), model.Query{Place: "København, Danmark"})

	require.NoError(t, res.FetchErr)
	assert.False(t, res.Degraded())
	require.Len(t, res.Records, 2)
	assert.Equal(t, "Kaffe Bar", res.Records[0].Name)
	assert.Equal(t, "Corner Shop", res.Records[1].Name)
	assert.Equal(t, "unknown", res.Records[1].OSMType)
	assert.InDelta(t, 12.581, res.Records[1].Lon, 1e-6)
	assert.InDelta(t, 55.680, res.Records[1].Lat, 1e-6)
}
