// Package verify checks business records against the Google Places API and
// records one outcome per business name in a checkpoint store.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/store"
	"github.com/sells-group/ghostbiz/pkg/google"
)

// PlaceholderAPIKey is the value shipped in the default configuration.
const PlaceholderAPIKey = "Replace with your actual API key"

// ErrMissingCredential is returned when the Places API key is unset or still
// a placeholder. No lookups or checkpoint writes happen in that case.
var ErrMissingCredential = errors.New("verify: google api key is missing or a placeholder")

var placeholderKeys = []string{
	PlaceholderAPIKey,
	"YOUR_API_KEY",
	"your-api-key",
	"changeme",
}

// IsPlaceholderKey reports whether key is empty or a known placeholder.
func IsPlaceholderKey(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}
	for _, p := range placeholderKeys {
		if strings.EqualFold(key, p) {
			return true
		}
	}
	return false
}

// Config holds orchestrator settings.
type Config struct {
	APIKey       string
	RadiusMeters float64
	// Delay is the pause after every external lookup.
	Delay time.Duration
}

// Summary counts what a run did.
type Summary struct {
	Total        int `json:"total"`
	Checkpointed int `json:"already_checkpointed"`
	HasWebsite   int `json:"has_osm_website"`
	Found        int `json:"found"`
	NotFound     int `json:"not_found"`
	Errors       int `json:"api_errors"`
}

// Queried is the number of external lookups issued.
func (s Summary) Queried() int {
	return s.Found + s.NotFound + s.Errors
}

// Processed is the number of outcomes appended during the run.
func (s Summary) Processed() int {
	return s.HasWebsite + s.Queried()
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSleep replaces the delay function. It must return ctx.Err() if the
// context ends before d elapses.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) {
		o.sleep = fn
	}
}

// WithLogger sets the logger; the global zap logger is used otherwise.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		o.log = l
	}
}

// Orchestrator runs the per-record verification state machine.
type Orchestrator struct {
	client google.Client
	store  store.Store
	cfg    Config
	sleep  func(ctx context.Context, d time.Duration) error
	log    *zap.Logger
}

// New creates an Orchestrator.
func New(client google.Client, st store.Store, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		store:  st,
		cfg:    cfg,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = zap.L()
	}
	return o
}

// Run verifies every record whose name has no checkpoint entry yet. Lookup
// failures become API_ERROR outcomes; only a missing credential, a checkpoint
// failure or context cancellation end the run early.
func (o *Orchestrator) Run(ctx context.Context, records []model.BusinessRecord) (Summary, error) {
	sum := Summary{Total: len(records)}
	if IsPlaceholderKey(o.cfg.APIKey) {
		return sum, eris.Wrap(ErrMissingCredential, "verify: refusing to start")
	}
	if err := o.store.Load(ctx); err != nil {
		return sum, eris.Wrap(err, "verify: load checkpoint")
	}
	processed := o.store.Len()
	o.log.Info("verify: starting",
		zap.Int("records", len(records)),
		zap.Int("checkpointed", processed),
	)

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return sum, eris.Wrap(err, "verify: interrupted")
		}
		if o.store.Contains(rec.Name) {
			sum.Checkpointed++
			continue
		}
		processed++
		o.log.Info(fmt.Sprintf("verify: [%d/%d] %s", processed, len(records), rec.Name))

		if rec.HasWebsite() {
			if err := o.record(ctx, skipped(rec)); err != nil {
				return sum, err
			}
			sum.HasWebsite++
			continue
		}

		out, err := o.query(ctx, rec)
		if err != nil {
			return sum, err
		}
		if err := o.record(ctx, out); err != nil {
			return sum, err
		}
		switch out.Status {
		case model.StatusAPIError:
			sum.Errors++
		case model.StatusNotFound:
			sum.NotFound++
		default:
			sum.Found++
		}

		if err := o.sleep(ctx, o.cfg.Delay); err != nil {
			return sum, eris.Wrap(err, "verify: interrupted")
		}
	}

	o.log.Info("verify: complete",
		zap.Int("total", sum.Total),
		zap.Int("processed", sum.Processed()),
		zap.Int("already_checkpointed", sum.Checkpointed),
		zap.Int("has_osm_website", sum.HasWebsite),
		zap.Int("found", sum.Found),
		zap.Int("not_found", sum.NotFound),
		zap.Int("api_errors", sum.Errors),
	)
	return sum, nil
}

// query issues one lookup for rec. It only returns an error when ctx ended
// during the call; every other failure is folded into the outcome.
func (o *Orchestrator) query(ctx context.Context, rec model.BusinessRecord) (model.VerificationOutcome, error) {
	resp, err := o.client.TextSearch(ctx, google.TextSearchRequest{
		TextQuery:    rec.Name,
		Lat:          rec.Lat,
		Lon:          rec.Lon,
		RadiusMeters: o.cfg.RadiusMeters,
	})
	if err != nil {
		if ctx.Err() != nil {
			return model.VerificationOutcome{}, eris.Wrap(ctx.Err(), "verify: interrupted")
		}
		o.log.Warn("verify: lookup failed",
			zap.String("name", rec.Name),
			zap.Error(err),
		)
		return failed(rec), nil
	}

	top := resp.First()
	if top == nil {
		return notFound(rec), nil
	}
	return found(rec, top), nil
}

func (o *Orchestrator) record(ctx context.Context, out model.VerificationOutcome) error {
	if err := o.store.Append(ctx, out); err != nil {
		return eris.Wrapf(err, "verify: checkpoint %q", out.OSMName)
	}
	return nil
}

func skipped(rec model.BusinessRecord) model.VerificationOutcome {
	return model.VerificationOutcome{
		OSMName: rec.Name,
		Lat:     rec.Lat,
		Lon:     rec.Lon,
		Website: model.Str(*rec.Website),
		Status:  model.StatusHasOSMWebsite,
	}
}

func found(rec model.BusinessRecord, p *google.Place) model.VerificationOutcome {
	return model.VerificationOutcome{
		OSMName:      rec.Name,
		Lat:          rec.Lat,
		Lon:          rec.Lon,
		ExternalName: optional(p.DisplayName.Text),
		Website:      optional(p.WebsiteURI),
		Status:       p.BusinessStatus,
	}
}

func notFound(rec model.BusinessRecord) model.VerificationOutcome {
	return model.VerificationOutcome{
		OSMName:  rec.Name,
		Lat:      rec.Lat,
		Lon:      rec.Lon,
		Status:   model.StatusNotFound,
		NotFound: true,
	}
}

func failed(rec model.BusinessRecord) model.VerificationOutcome {
	return model.VerificationOutcome{
		OSMName:  rec.Name,
		Lat:      rec.Lat,
		Lon:      rec.Lon,
		Status:   model.StatusAPIError,
		NotFound: true,
	}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
