package main

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/config"
	"github.com/sells-group/ghostbiz/internal/extract"
	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/resilience"
	"github.com/sells-group/ghostbiz/internal/source"
	"github.com/sells-group/ghostbiz/pkg/geocode"
	"github.com/sells-group/ghostbiz/pkg/overpass"
)

// queryFlags are shared by every command that fetches features.
type queryFlags struct {
	place    string
	bbox     string
	tagsFile string
	geojson  string
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.place, "place", "", "place name to search (default from source.place)")
	cmd.Flags().StringVar(&f.bbox, "bbox", "", "bounding box north,south,east,west; overrides --place")
	cmd.Flags().StringVar(&f.tagsFile, "tags-file", "", "YAML tag filter file (default from source.tags)")
	cmd.Flags().StringVar(&f.geojson, "geojson", "", "read features from a GeoJSON file instead of Overpass")
}

// query builds the feature query from flags, falling back to configuration.
func (f *queryFlags) query(c *config.Config) (model.Query, error) {
	q := model.Query{Place: c.Source.Place}
	if f.place != "" {
		q.Place = f.place
	}

	if f.bbox != "" {
		b, err := model.ParseBBox(f.bbox)
		if err != nil {
			return q, eris.Wrap(err, "parse --bbox")
		}
		q.BBox = &b
	}

	if f.tagsFile != "" {
		data, err := os.ReadFile(f.tagsFile)
		if err != nil {
			return q, eris.Wrapf(err, "read tags file %s", f.tagsFile)
		}
		tags, err := model.ParseTagFilterYAML(data)
		if err != nil {
			return q, eris.Wrapf(err, "parse tags file %s", f.tagsFile)
		}
		q.Tags = tags
	} else {
		tags, err := c.TagFilter()
		if err != nil {
			return q, eris.Wrap(err, "source.tags")
		}
		q.Tags = tags
	}
	return q, nil
}

// newProvider returns the configured feature provider. --geojson wins over
// source.kind.
func newProvider(c *config.Config, geojsonPath string) extract.Provider {
	if geojsonPath == "" && c.Source.Kind == "geojson" {
		geojsonPath = c.Source.GeoJSONPath
	}
	if geojsonPath != "" {
		return source.NewGeoJSON(geojsonPath)
	}

	retry := resilience.DefaultPolicy().WithAttempts(c.Source.RetryAttempts)
	op := overpass.NewClient(
		overpass.WithURL(c.Source.OverpassURL),
		overpass.WithTimeout(time.Duration(c.Source.TimeoutSecs)*time.Second),
		overpass.WithUserAgent(c.Source.UserAgent),
		overpass.WithRetryPolicy(retry),
	)
	places := geocode.NewClient(
		geocode.WithBaseURL(c.Source.NominatimURL),
		geocode.WithUserAgent(c.Source.UserAgent),
		geocode.WithRetryPolicy(retry),
	)
	return source.NewOverpass(op, places, c.Source.BBoxOverrides)
}

// buildTable fetches features and builds the business table.
func buildTable(ctx context.Context, c *config.Config, flags *queryFlags) (extract.Result, error) {
	q, err := flags.query(c)
	if err != nil {
		return extract.Result{}, err
	}
	kind, err := c.Projection()
	if err != nil {
		return extract.Result{}, err
	}

	zap.L().Info("fetching businesses",
		zap.String("place", q.Place),
		zap.Bool("bbox", q.BBox != nil),
		zap.Strings("tags", q.Tags.Keys()),
	)
	res := extract.NewBuilder(newProvider(c, flags.geojson), extract.WithProjection(kind)).Build(ctx, q)
	if res.Degraded() {
		zap.L().Warn("feature fetch failed; continuing with an empty table", zap.Error(res.FetchErr))
	}
	logTableSummary(res.Records)
	return res, nil
}

func logTableSummary(records []model.BusinessRecord) {
	zap.L().Info("business table ready", zap.Int("records", len(records)))

	for _, tc := range extract.TypeDistribution(records, 10) {
		zap.L().Info("business type",
			zap.String("type", tc.BusinessType),
			zap.Int("count", tc.Count),
		)
	}
	if e, ok := extract.CoordinateRange(records); ok {
		zap.L().Info("coordinate range",
			zap.Float64("min_lat", e.MinLat),
			zap.Float64("max_lat", e.MaxLat),
			zap.Float64("min_lon", e.MinLon),
			zap.Float64("max_lon", e.MaxLon),
		)
	}
}
