// Package geocode resolves free-text place names to OpenStreetMap areas via
// the Nominatim search API.
package geocode

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/resilience"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "ghostbiz/1.0 (+https://github.com/sells-group/ghostbiz)"

	// Overpass derives area ids from OSM ids by a fixed offset per element type.
	relationAreaOffset = 3600000000
	wayAreaOffset      = 2400000000
)

// ErrNoMatch is returned when Nominatim knows nothing by the given name.
var ErrNoMatch = eris.New("geocode: place not found")

// Client resolves place names.
type Client interface {
	// Resolve returns the best match for a free-text place name.
	Resolve(ctx context.Context, place string) (*Place, error)
}

// Place is a resolved OSM place.
type Place struct {
	DisplayName string
	OSMType     string // node, way, relation
	OSMID       int64
	Lat         float64
	Lon         float64
	BBox        model.BBox
}

// AreaID returns the Overpass area id for the place. Nodes have no area.
func (p Place) AreaID() (int64, bool) {
	switch p.OSMType {
	case "relation":
		return relationAreaOffset + p.OSMID, true
	case "way":
		return wayAreaOffset + p.OSMID, true
	default:
		return 0, false
	}
}

// Option configures the client.
type Option func(*nominatim)

// WithBaseURL overrides the Nominatim endpoint.
func WithBaseURL(url string) Option {
	return func(n *nominatim) {
		n.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *nominatim) {
		n.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires an identifying agent.
func WithUserAgent(ua string) Option {
	return func(n *nominatim) {
		if ua != "" {
			n.userAgent = ua
		}
	}
}

// WithRateLimit sets the requests-per-second limit.
func WithRateLimit(rps float64) Option {
	return func(n *nominatim) {
		n.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryPolicy overrides the retry policy for transient failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(n *nominatim) {
		n.retry = p
	}
}

type nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.Policy
	cache      *placeCache
}

// NewClient creates a Nominatim client.
func NewClient(opts ...Option) Client {
	n := &nominatim{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(1, 1), // Nominatim policy: max 1 req/s
		retry:      resilience.DefaultPolicy(),
		cache:      newPlaceCache(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.retry.OnRetry == nil {
		n.retry.OnRetry = resilience.Logger("nominatim")
	}
	return n
}

// Resolve returns the first search hit for place. Hits are cached for the
// lifetime of the client.
func (n *nominatim) Resolve(ctx context.Context, place string) (*Place, error) {
	if p, ok := n.cache.get(place); ok {
		return p, nil
	}
	p, err := resilience.Do(ctx, n.retry, func(ctx context.Context) (*Place, error) {
		return n.search(ctx, place)
	})
	if err != nil {
		return nil, err
	}
	n.cache.put(place, p)
	return p, nil
}
