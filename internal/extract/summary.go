package extract

import (
	"math"
	"sort"

	"github.com/sells-group/ghostbiz/internal/model"
)

// TypeCount is one bucket of the business type distribution.
type TypeCount struct {
	BusinessType string
	Count        int
}

// TypeDistribution returns the n most common business types, most frequent
// first. Ties sort by type name.
func TypeDistribution(records []model.BusinessRecord, n int) []TypeCount {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.BusinessType]++
	}
	out := make([]TypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TypeCount{BusinessType: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].BusinessType < out[j].BusinessType
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Extent is the lat/lon range covered by a table.
type Extent struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

// CoordinateRange returns the extent of records, or false for an empty table.
func CoordinateRange(records []model.BusinessRecord) (Extent, bool) {
	if len(records) == 0 {
		return Extent{}, false
	}
	e := Extent{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for _, r := range records {
		e.MinLat = math.Min(e.MinLat, r.Lat)
		e.MaxLat = math.Max(e.MaxLat, r.Lat)
		e.MinLon = math.Min(e.MinLon, r.Lon)
		e.MaxLon = math.Max(e.MaxLon, r.Lon)
	}
	return e, true
}
