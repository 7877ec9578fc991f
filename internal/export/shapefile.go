package export

import (
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ghostbiz/internal/model"
)

// dbfStringSize is the widest character field dBase allows.
const dbfStringSize = 254

// shapefileFields maps output columns to dBase field names, which are
// limited to ten characters. lat/lon are stored in the geometry and as
// numeric attributes.
var shapefileFields = []struct {
	column string
	field  shp.Field
}{
	{"id", shp.StringField("id", 32)},
	{"name", shp.StringField("name", dbfStringSize)},
	{"business_type", shp.StringField("bus_type", 128)},
	{"primary_tag", shp.StringField("prim_tag", 32)},
	{"address", shp.StringField("address", dbfStringSize)},
	{"phone", shp.StringField("phone", 64)},
	{"email", shp.StringField("email", 128)},
	{"website", shp.StringField("website", dbfStringSize)},
	{"opening_hours", shp.StringField("open_hours", dbfStringSize)},
	{"brand", shp.StringField("brand", 128)},
	{"cuisine", shp.StringField("cuisine", 128)},
	{"wheelchair", shp.StringField("wheelchair", 16)},
	{"wifi", shp.StringField("wifi", 16)},
	{"payment_cards", shp.StringField("payment", 128)},
	{"lat", shp.FloatField("lat", 16, 8)},
	{"lon", shp.FloatField("lon", 16, 8)},
	{"element_type", shp.StringField("elem_type", 16)},
	{"osm_type", shp.StringField("osm_type", 16)},
}

// WriteShapefile writes records as WGS84 points with one attribute per
// column. go-shp writes the .shp, .shx and .dbf siblings of path.
func WriteShapefile(path string, records []model.BusinessRecord) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	defer w.Close()

	fields := make([]shp.Field, len(shapefileFields))
	for i, f := range shapefileFields {
		fields[i] = f.field
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	for _, r := range records {
		row := int(w.Write(&shp.Point{X: r.Lon, Y: r.Lat}))
		values := Row(r)
		for i, f := range shapefileFields {
			var v any
			switch f.column {
			case "lat":
				v = r.Lat
			case "lon":
				v = r.Lon
			default:
				v = truncate(values[i], int(f.field.Size))
			}
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "export: write %s for %q", f.column, r.Name)
			}
		}
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
