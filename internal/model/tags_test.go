package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTagFilterYAML(t *testing.T) {
	data := []byte(`
shop: true
amenity:
  - restaurant
  - cafe
`)
	f, err := ParseTagFilterYAML(data)
	require.NoError(t, err)
	assert.Equal(t, TagMatch{Any: true}, f["shop"])
	assert.Equal(t, TagMatch{Values: []string{"restaurant", "cafe"}}, f["amenity"])
	assert.Equal(t, []string{"amenity", "shop"}, f.Keys())
}

func TestParseTagFilterYAML_RejectsFalse(t *testing.T) {
	_, err := ParseTagFilterYAML([]byte("shop: false\n"))
	assert.Error(t, err)
}

func TestParseTagFilterYAML_Empty(t *testing.T) {
	_, err := ParseTagFilterYAML([]byte("{}\n"))
	assert.Error(t, err)
}

func TestParseTagFilter(t *testing.T) {
	f, err := ParseTagFilter(map[string]any{
		"shop":    true,
		"office":  "true",
		"amenity": []any{"bar", "pub"},
		"tourism": []string{"hotel"},
	})
	require.NoError(t, err)
	assert.True(t, f["shop"].Any)
	assert.True(t, f["office"].Any)
	assert.Equal(t, []string{"bar", "pub"}, f["amenity"].Values)
	assert.Equal(t, []string{"hotel"}, f["tourism"].Values)
}

func TestParseTagFilter_Invalid(t *testing.T) {
	_, err := ParseTagFilter(map[string]any{"shop": 3})
	assert.Error(t, err)

	_, err = ParseTagFilter(map[string]any{"shop": false})
	assert.Error(t, err)

	_, err = ParseTagFilter(nil)
	assert.Error(t, err)
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("55.68, 55.678,12.585,12.583")
	require.NoError(t, err)
	assert.InDelta(t, 55.68, b.North, 1e-9)
	assert.InDelta(t, 55.678, b.South, 1e-9)
	assert.InDelta(t, 12.585, b.East, 1e-9)
	assert.InDelta(t, 12.583, b.West, 1e-9)
}

func TestParseBBox_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"1,2,3",
		"a,b,c,d",
		"55.0,56.0,12.5,12.4", // south above north
		"55.7,55.6,12.4,12.5", // west above east
		"95,55,12.5,12.4",
	} {
		_, err := ParseBBox(in)
		assert.Error(t, err, in)
	}
}

func TestRawFeatureTag(t *testing.T) {
	f := RawFeature{Tags: map[string]string{"name": "  Cafe Nord ", "phone": "   "}}
	v, ok := f.Tag("name")
	assert.True(t, ok)
	assert.Equal(t, "Cafe Nord", v)

	_, ok = f.Tag("phone")
	assert.False(t, ok)

	_, ok = f.Tag("email")
	assert.False(t, ok)
	assert.Equal(t, "Cafe Nord", f.Name())
}

func TestBusinessRecordHasWebsite(t *testing.T) {
	assert.False(t, BusinessRecord{}.HasWebsite())
	assert.False(t, BusinessRecord{Website: Str("")}.HasWebsite())
	assert.True(t, BusinessRecord{Website: Str("http://a.dk")}.HasWebsite())
	assert.Equal(t, "", Deref(nil))
	assert.Equal(t, "x", Deref(Str("x")))
}
