// Package extract builds the canonical business table from a feature
// collection: unnamed features are dropped, the rest normalized, reduced to
// projected centroids and cleaned.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/geo"
	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/normalize"
)

// Provider fetches raw features for a query.
type Provider interface {
	Features(ctx context.Context, q model.Query) ([]model.RawFeature, error)
}

// Result is the outcome of a Build. Records is empty whenever FetchErr is set;
// an empty Records with a nil FetchErr means the area genuinely had no
// named businesses.
type Result struct {
	Records  []model.BusinessRecord
	Fetched  int   // features returned by the provider
	Dropped  int   // features without a usable name
	FetchErr error // fetch or normalization failure that degraded the table to empty
}

// Degraded reports whether the table was emptied because of a failure.
func (r Result) Degraded() bool {
	return r.FetchErr != nil
}

// Option configures a Builder.
type Option func(*Builder)

// WithProjection selects the planar projection used for centroids.
func WithProjection(k geo.Kind) Option {
	return func(b *Builder) {
		b.projection = k
	}
}

// Builder turns provider output into BusinessRecords.
type Builder struct {
	provider   Provider
	projection geo.Kind
}

// NewBuilder creates a Builder reading from p.
func NewBuilder(p Provider, opts ...Option) *Builder {
	b := &Builder{provider: p, projection: geo.KindEqualArea}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Build fetches and normalizes the features for q. It never returns an error:
// failures degrade to an empty table with Result.FetchErr set.
func (b *Builder) Build(ctx context.Context, q model.Query) Result {
	log := zap.L().With(zap.String("component", "extract.builder"))

	features, err := b.provider.Features(ctx, q)
	if err != nil {
		log.Error("feature fetch failed, returning empty table", zap.Error(err))
		return Result{FetchErr: eris.Wrap(err, "extract: fetch features")}
	}

	records, dropped, err := b.FromFeatures(features)
	if err != nil {
		log.Error("normalization failed, returning empty table", zap.Error(err))
		return Result{Fetched: len(features), FetchErr: err}
	}

	log.Info("built business table",
		zap.Int("features", len(features)),
		zap.Int("named", len(records)),
		zap.Int("dropped_unnamed", dropped),
	)
	return Result{Records: records, Fetched: len(features), Dropped: dropped}
}

// FromFeatures normalizes an already-fetched collection, preserving input
// order. Any per-feature failure fails the whole collection.
func (b *Builder) FromFeatures(features []model.RawFeature) (records []model.BusinessRecord, dropped int, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, dropped = nil, 0
			err = eris.Errorf("extract: normalize: %v", r)
		}
	}()

	// Filter first so unnamed features never reach the projection step.
	named := make([]model.RawFeature, 0, len(features))
	for _, f := range features {
		if isBlank(f.Name()) {
			dropped++
			continue
		}
		named = append(named, f)
	}

	records = make([]model.BusinessRecord, 0, len(named))
	for i, f := range named {
		lon, lat, cErr := geo.Centroid(f.Geometry, b.projection)
		if cErr != nil {
			return nil, 0, eris.Wrapf(cErr, "extract: centroid for %s (feature %d)", describe(f), i)
		}
		rec := normalize.Normalize(f)
		rec.Lat = lat
		rec.Lon = lon
		records = append(records, Clean(rec))
	}
	return records, dropped, nil
}

// Clean applies the table-wide field cleanup: website scheme injection, phone
// trimming and, last, nulling of empty/sentinel strings in every field.
func Clean(r model.BusinessRecord) model.BusinessRecord {
	if r.Website != nil && !isBlank(*r.Website) && !hasScheme(*r.Website) {
		r.Website = model.Str("http://" + *r.Website)
	}
	if r.Phone != nil {
		r.Phone = model.Str(strings.TrimSpace(*r.Phone))
	}

	for _, p := range []**string{
		&r.ID, &r.Address, &r.Phone, &r.Email, &r.Website,
		&r.OpeningHours, &r.Brand, &r.Cuisine, &r.Wheelchair, &r.Wifi,
		&r.PaymentCards, &r.ElementType,
	} {
		if *p != nil && isBlank(**p) {
			*p = nil
		}
	}
	return r
}

var schemes = []string{"http://", "https://"}

func hasScheme(u string) bool {
	lower := strings.ToLower(u)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// isBlank reports whether s is one of the representations of "no value".
func isBlank(s string) bool {
	switch s {
	case "", "nan", "None":
		return true
	}
	return false
}

func describe(f model.RawFeature) string {
	if f.ElementType != "" && f.ID != "" {
		return fmt.Sprintf("%s/%s", f.ElementType, f.ID)
	}
	if f.ID != "" {
		return f.ID
	}
	return fmt.Sprintf("%q", f.Name())
}
