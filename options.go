package pollbase

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL sets the Pollbase API base URL (e.g. "https://api.pollbase.io").
// If not set, defaults to the POLLBASE_API_URL environment variable.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom http.Client for making requests.
// Useful for testing, proxying, or custom transport configurations.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the HTTP request timeout.
// If not set, defaults to the POLLBASE_TIMEOUT environment variable or 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithTokenStore sets the token persistence backend.
// If not set, an in-memory store is used.
func WithTokenStore(s TokenStore) Option {
	return func(c *Client) {
		c.tokenStore = s
	}
}

// WithToken seeds the session with an existing access token, e.g. one
// restored from a credentials file.
func WithToken(token string) Option {
	return func(c *Client) {
		c.initialToken = token
	}
}

// WithExpiryBuffer sets how close to expiry a token may get before the
// client refreshes it ahead of a request. Defaults to 5 minutes.
func WithExpiryBuffer(d time.Duration) Option {
	return func(c *Client) {
		c.expiryBuffer = d
	}
}

// WithOnSessionExpired registers a callback fired exactly once when the
// session is torn down (refresh failure, repeated 401, or Logout). CLI and
// UI callers use this to route the user back to login.
func WithOnSessionExpired(fn func()) Option {
	return func(c *Client) {
		c.onExpired = fn
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics registers client metrics with the given Prometheus registerer.
// Without this option no metrics are recorded.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Client) {
		c.metrics = NewMetrics(reg)
	}
}

// WithTracerProvider enables an OpenTelemetry span around every request.
// Without this option no spans are created.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer("github.com/pollbase/pollbase-go")
		}
	}
}

// WithCacheTTL enables the TTL cache for cached reads (analytics endpoints).
// If not set, defaults to the POLLBASE_CACHE_TTL environment variable or
// disabled.
func WithCacheTTL(d time.Duration) Option {
	return func(c *Client) {
		c.cacheTTL = d
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}
