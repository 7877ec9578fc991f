// Package export writes the business record table to CSV, XLSX or an ESRI
// Shapefile of points.
package export

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ghostbiz/internal/model"
)

// Output formats.
const (
	FormatCSV       = "csv"
	FormatXLSX      = "xlsx"
	FormatShapefile = "shp"
)

// Columns is the output table header, one column per record field.
var Columns = []string{
	"id", "name", "business_type", "primary_tag", "address", "phone", "email",
	"website", "opening_hours", "brand", "cuisine", "wheelchair", "wifi",
	"payment_cards", "lat", "lon", "element_type", "osm_type",
}

// Row renders r in Columns order. Null fields become empty strings.
func Row(r model.BusinessRecord) []string {
	return []string{
		model.Deref(r.ID),
		r.Name,
		r.BusinessType,
		r.PrimaryTag,
		model.Deref(r.Address),
		model.Deref(r.Phone),
		model.Deref(r.Email),
		model.Deref(r.Website),
		model.Deref(r.OpeningHours),
		model.Deref(r.Brand),
		model.Deref(r.Cuisine),
		model.Deref(r.Wheelchair),
		model.Deref(r.Wifi),
		model.Deref(r.PaymentCards),
		formatCoord(r.Lat),
		formatCoord(r.Lon),
		model.Deref(r.ElementType),
		r.OSMType,
	}
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatFor returns format if set, otherwise infers it from the extension
// of path. Unknown extensions default to CSV.
func FormatFor(path, format string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".xlsx":
			return FormatXLSX, nil
		case ".shp":
			return FormatShapefile, nil
		default:
			return FormatCSV, nil
		}
	}
	switch f := strings.ToLower(format); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	case FormatShapefile, "shapefile":
		return FormatShapefile, nil
	default:
		return "", eris.Errorf("export: unknown format %q (valid: csv, xlsx, shp)", format)
	}
}

// Write writes records to path in the given format.
func Write(path, format string, records []model.BusinessRecord) error {
	f, err := FormatFor(path, format)
	if err != nil {
		return err
	}
	switch f {
	case FormatXLSX:
		return WriteXLSX(path, records)
	case FormatShapefile:
		return WriteShapefile(path, records)
	default:
		return WriteCSVFile(path, records)
	}
}
