package pollbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// refreshPath is the token refresh endpoint. Requests to it bypass the
// freshness check and never trigger a nested refresh on 401.
const refreshPath = "/auth/refresh"

// Client is the Pollbase API client. It attaches a bearer token to every
// request, refreshes the token ahead of expiry, and retries a request once
// after a 401. Construct with NewClient; the zero value is not usable.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	logger     *slog.Logger
	session    *SessionManager
	metrics    *Metrics
	tracer     trace.Tracer

	// Cache fields. Used only by cached GETs (analytics reads).
	cache    sync.Map
	cacheTTL time.Duration

	// Construction-time settings consumed by NewClient.
	tokenStore   TokenStore
	expiryBuffer time.Duration
	initialToken string
	onExpired    func()

	// Typed API surfaces, one per REST path family.
	Auth          *AuthService
	Forms         *FormsService
	Users         *UsersService
	Elections     *ElectionsService
	RBAC          *RBACService
	Webhooks      *WebhooksService
	APIKeys       *APIKeysService
	Notifications *NotificationsService
	Collation     *CollationService
	Geographic    *GeographicService
	Analytics     *AnalyticsService
	Security      *SecurityService
}

// cacheEntry is a cached GET response body with expiry.
type cacheEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewClient creates a new Pollbase API client.
// It reads configuration from POLLBASE_* environment variables by default;
// options override those.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   os.Getenv("POLLBASE_API_URL"),
		timeout:   parseDurationEnv("POLLBASE_TIMEOUT", 30*time.Second),
		cacheTTL:  parseDurationEnv("POLLBASE_CACHE_TTL", 0),
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}

	c.session = NewSessionManager(c.tokenStore, c.expiryBuffer, c.logger)
	c.session.refresh = c.refreshToken
	c.session.onExpired = c.onExpired
	if c.initialToken != "" {
		_ = c.session.SetToken(c.initialToken)
	}

	c.Auth = &AuthService{c}
	c.Forms = &FormsService{c}
	c.Users = &UsersService{c}
	c.Elections = &ElectionsService{c}
	c.RBAC = &RBACService{c}
	c.Webhooks = &WebhooksService{c}
	c.APIKeys = &APIKeysService{c}
	c.Notifications = &NotificationsService{c}
	c.Collation = &CollationService{c}
	c.Geographic = &GeographicService{c}
	c.Analytics = &AnalyticsService{c}
	c.Security = &SecurityService{c}

	return c
}

// Session exposes the client's session manager, mainly for tests and for
// callers that need Logout or Authenticated checks.
func (c *Client) Session() *SessionManager { return c.session }

// envelope is the response convention shared by every Pollbase endpoint.
type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
	Meta    *PageMeta           `json:"meta"`
}

// do performs an authenticated request against a versioned API path.
// On 401 it refreshes the session (single-flight) and retries exactly once.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any) (*PageMeta, error) {
	token, err := c.session.EnsureFresh(ctx)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	meta, status, err := c.send(ctx, method, path, query, payload, token, result)
	if status != http.StatusUnauthorized {
		return meta, err
	}

	// One refresh-and-retry. A second 401 is terminal.
	c.logger.Debug("401 received, refreshing session and retrying once",
		"method", method, "path", path)
	c.metrics.incAuthRetry()
	token, refreshErr := c.session.ForceRefresh(ctx)
	if refreshErr != nil {
		return nil, refreshErr
	}

	meta, status, err = c.send(ctx, method, path, query, payload, token, result)
	if status == http.StatusUnauthorized {
		c.session.teardown()
		return nil, &AuthError{Reason: "request unauthorized after refresh", Cause: err}
	}
	return meta, err
}

// send performs a single HTTP round trip and decodes the envelope.
// The returned status is zero when no response was received.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, token string, result any) (*PageMeta, int, error) {
	u := strings.TrimRight(c.baseURL, "/") + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	var span trace.Span
	if c.tracer != nil {
		ctx, span = c.tracer.Start(ctx, method+" "+path, trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", path),
			attribute.String("pollbase.request_id", requestID),
		))
		defer span.End()
		req = req.WithContext(ctx)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.observeRequest(method, statusLabel(resp, err), time.Since(start))
	if err != nil {
		c.logger.Warn("request transport failure",
			"method", method, "path", path, "request_id", requestID, "error", err)
		if span != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		return nil, 0, &TransportError{Method: method, Path: path, Cause: err}
	}
	defer resp.Body.Close()

	if span != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		if resp.StatusCode >= 400 {
			span.SetStatus(codes.Error, resp.Status)
		}
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	var env envelope
	if len(respBody) > 0 {
		// Non-envelope bodies (proxies, HTML error pages) are tolerated;
		// classification falls back to the bare status code.
		_ = json.Unmarshal(respBody, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, c.classify(method, path, requestID, resp, &env)
	}

	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("unmarshal response data: %w", err)
		}
	}
	return env.Meta, resp.StatusCode, nil
}

// classify maps a non-2xx response to the error taxonomy. 401 is handled by
// the caller; everything here is surfaced without retry.
func (c *Client) classify(method, path, requestID string, resp *http.Response, env *envelope) error {
	base := APIError{
		StatusCode: resp.StatusCode,
		Message:    env.Message,
		RequestID:  requestID,
		Method:     method,
		Path:       path,
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return &base
	case resp.StatusCode == http.StatusForbidden:
		c.logger.Warn("authorization denied", "method", method, "path", path, "request_id", requestID)
		return &base
	case resp.StatusCode == http.StatusUnprocessableEntity:
		c.logger.Debug("validation rejected", "method", method, "path", path, "fields", len(env.Errors))
		return &ValidationError{APIError: base, Fields: env.Errors}
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		c.logger.Warn("rate limited", "method", method, "path", path, "retry_after", retryAfter)
		return &RateLimitError{APIError: base, RetryAfter: retryAfter}
	case resp.StatusCode >= 500:
		c.logger.Warn("server error", "method", method, "path", path,
			"status", resp.StatusCode, "request_id", requestID)
		return &base
	default:
		c.logger.Debug("request failed", "method", method, "path", path, "status", resp.StatusCode)
		return &base
	}
}

// refreshToken calls POST /auth/refresh with the current token. It is the
// SessionManager's refreshFunc and deliberately does not go through do():
// a 401 here must tear the session down, never recurse into another refresh.
func (c *Client) refreshToken(ctx context.Context, current string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var data struct {
		AccessToken string `json:"access_token"`
	}
	_, status, err := c.send(ctx, http.MethodPost, refreshPath, nil, []byte("{}"), current, &data)
	if err != nil {
		c.metrics.incRefresh("failure")
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return "", &AuthError{Reason: "refresh rejected", Cause: err}
		}
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if data.AccessToken == "" {
		c.metrics.incRefresh("failure")
		return "", &AuthError{Reason: "refresh returned empty token"}
	}
	c.metrics.incRefresh("success")
	return data.AccessToken, nil
}

// get performs an authenticated GET and decodes the data field into result.
func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	_, err := c.do(ctx, http.MethodGet, path, query, nil, result)
	return err
}

// getList performs an authenticated GET returning pagination metadata.
func (c *Client) getList(ctx context.Context, path string, query url.Values, result any) (*PageMeta, error) {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// post performs an authenticated POST.
func (c *Client) post(ctx context.Context, path string, body, result any) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, body, result)
	return err
}

// put performs an authenticated PUT.
func (c *Client) put(ctx context.Context, path string, body, result any) error {
	_, err := c.do(ctx, http.MethodPut, path, nil, body, result)
	return err
}

// patch performs an authenticated PATCH.
func (c *Client) patch(ctx context.Context, path string, body, result any) error {
	_, err := c.do(ctx, http.MethodPatch, path, nil, body, result)
	return err
}

// delete performs an authenticated DELETE.
func (c *Client) delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, nil, nil)
	return err
}

// getCached performs a GET through the client's TTL cache. Used by the
// analytics reads, which are expensive server-side and tolerate staleness.
// With a zero cache TTL it degrades to a plain GET.
func (c *Client) getCached(ctx context.Context, path string, query url.Values, result any) error {
	if c.cacheTTL <= 0 {
		return c.get(ctx, path, query, result)
	}

	key := cacheKey(path, query)
	if entry, ok := c.cache.Load(key); ok {
		ce := entry.(*cacheEntry)
		if time.Now().Before(ce.expiresAt) {
			c.metrics.incCacheHit()
			return json.Unmarshal(ce.data, result)
		}
		c.cache.Delete(key)
	}

	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return err
	}
	c.cache.Store(key, &cacheEntry{data: raw, expiresAt: time.Now().Add(c.cacheTTL)})
	if result != nil {
		return json.Unmarshal(raw, result)
	}
	return nil
}

// cacheKey builds a stable cache key from the request path and query.
func cacheKey(path string, query url.Values) uint64 {
	h := xxhash.New()
	_, _ = h.WriteString(path)
	_, _ = h.WriteString("?")
	_, _ = h.WriteString(query.Encode())
	return h.Sum64()
}

// statusLabel is the metrics label for a round trip outcome.
func statusLabel(resp *http.Response, err error) string {
	if err != nil {
		return "transport_error"
	}
	return strconv.Itoa(resp.StatusCode)
}

// parseRetryAfter parses a Retry-After header given in seconds.
// HTTP-date values are not produced by the Pollbase API.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// Helper functions for env var parsing.

func parseDurationEnv(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	// Try parsing as seconds (integer).
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	// Try parsing as duration string.
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return defaultVal
}
