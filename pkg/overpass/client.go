// Package overpass queries the OpenStreetMap Overpass API and converts the
// returned elements into raw features with go-geom geometries.
package overpass

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/resilience"
)

const (
	defaultURL       = "https://overpass-api.de/api/interpreter"
	defaultUserAgent = "ghostbiz/1.0 (+https://github.com/sells-group/ghostbiz)"
)

// Client runs Overpass queries.
type Client interface {
	// Fetch runs r and returns the matching tagged elements as features.
	Fetch(ctx context.Context, r Request) ([]model.RawFeature, error)
}

// Option configures the client.
type Option func(*client)

// WithURL overrides the interpreter endpoint.
func WithURL(u string) Option {
	return func(c *client) {
		c.url = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP timeout of the default client. Overpass itself
// is told the same bound in the query header.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.httpClient.Timeout = d + 30*time.Second
			c.timeoutSecs = int(d / time.Second)
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit sets the maximum query rate.
func WithRateLimit(limit rate.Limit) Option {
	return func(c *client) {
		c.limiter = rate.NewLimiter(limit, 1)
	}
}

// WithRetryPolicy overrides the retry policy for transient failures.
func WithRetryPolicy(p resilience.Policy) Option {
	return func(c *client) {
		c.retry = p
	}
}

type client struct {
	url         string
	userAgent   string
	timeoutSecs int
	httpClient  *http.Client
	limiter     *rate.Limiter
	retry       resilience.Policy
}

// NewClient creates an Overpass client.
func NewClient(opts ...Option) Client {
	c := &client{
		url:         defaultURL,
		userAgent:   defaultUserAgent,
		timeoutSecs: 180,
		httpClient:  &http.Client{Timeout: 210 * time.Second},
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		retry:       resilience.DefaultPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.Logger("overpass")
	}
	return c
}

func (c *client) Fetch(ctx context.Context, r Request) ([]model.RawFeature, error) {
	if r.TimeoutSecs == 0 {
		r.TimeoutSecs = c.timeoutSecs
	}
	ql, err := BuildQuery(r)
	if err != nil {
		return nil, err
	}
	zap.L().Debug("overpass: query", zap.String("ql", ql))

	resp, err := resilience.Do(ctx, c.retry, func(ctx context.Context) (*Response, error) {
		return c.post(ctx, ql)
	})
	if err != nil {
		return nil, err
	}
	features := resp.Features()
	zap.L().Info("overpass: fetched",
		zap.Int("elements", len(resp.Elements)),
		zap.Int("features", len(features)),
	)
	return features, nil
}

func (c *client) post(ctx context.Context, ql string) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "overpass: rate limit")
	}

	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: build request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "overpass: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse("overpass", resp); err != nil {
		return nil, eris.Wrap(err, "overpass: interpreter")
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, eris.Wrap(err, "overpass: decode response")
	}
	if out.Failed() {
		// Runtime errors such as timeouts arrive as 200 with a remark.
		return nil, eris.Wrap(&RemarkError{Remark: out.Remark}, "overpass: interpreter")
	}
	return &out, nil
}
