package geocode

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/sells-group/ghostbiz/internal/resilience"
)

// newTestClient returns a client pointed at h with no rate limit and
// millisecond retries.
func newTestClient(t *testing.T, h http.Handler) *nominatim {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c := NewClient(
		WithBaseURL(srv.URL),
		WithRetryPolicy(resilience.Policy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}),
	).(*nominatim)
	c.limiter = rate.NewLimiter(rate.Inf, 1)
	return c
}
