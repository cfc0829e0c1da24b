package pollbase

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// writeEnvelope writes a success envelope with the given data payload.
func writeEnvelope(t *testing.T, w http.ResponseWriter, data any, meta *PageMeta) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal envelope data: %v", err)
	}
	_ = json.NewEncoder(w).Encode(envelope{Success: true, Data: raw, Meta: meta})
}

// writeError writes a failure envelope with the given status.
func writeError(w http.ResponseWriter, status int, message string, fields map[string][]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: message, Errors: fields})
}

// writeRefresh writes a refresh success envelope carrying a new token.
func writeRefresh(w http.ResponseWriter, token string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"data":    map[string]string{"access_token": token},
	})
}

func TestAttachBearerAndEnvelopeDecode(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/forms" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer "+token {
			t.Errorf("unexpected auth header: %s", got)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header")
		}
		writeEnvelope(t, w, []Form{{ID: "f1", Title: "Census"}}, &PageMeta{Page: 1, PerPage: 20, Total: 1})
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithToken(token))

	forms, meta, err := client.Forms.List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(forms) != 1 || forms[0].ID != "f1" {
		t.Errorf("unexpected forms: %+v", forms)
	}
	if meta == nil || meta.Total != 1 {
		t.Errorf("unexpected meta: %+v", meta)
	}
}

// TestProactiveRefreshSingleFlight is the canonical scenario: three
// concurrent list calls with a token expiring inside the buffer produce
// exactly one refresh followed by three resource calls carrying the new
// token.
func TestProactiveRefreshSingleFlight(t *testing.T) {
	oldToken := mintToken(t, time.Now().Add(1*time.Minute))
	newToken := mintToken(t, time.Now().Add(1*time.Hour))

	var refreshCalls, resourceCalls atomic.Int32
	var tokensSeen sync.Map

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshCalls.Add(1)
			if got := r.Header.Get("Authorization"); got != "Bearer "+oldToken {
				t.Errorf("refresh should carry the current token, got %s", got)
			}
			// Hold the refresh open long enough for all callers to park.
			time.Sleep(50 * time.Millisecond)
			writeRefresh(w, newToken)
		case "/v1/forms":
			n := resourceCalls.Add(1)
			tokensSeen.Store(n, r.Header.Get("Authorization"))
			writeEnvelope(t, w, []Form{}, nil)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithToken(oldToken))

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = client.Forms.List(context.Background(), ListOptions{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("call %d: unexpected error: %v", i, err)
		}
	}
	if got := refreshCalls.Load(); got != 1 {
		t.Errorf("expected exactly 1 refresh call, got %d", got)
	}
	if got := resourceCalls.Load(); got != 3 {
		t.Errorf("expected 3 resource calls, got %d", got)
	}
	tokensSeen.Range(func(_, v any) bool {
		if v.(string) != "Bearer "+newToken {
			t.Errorf("resource call carried %s, want refreshed token", v)
		}
		return true
	})
}

func Test401RefreshAndRetryOnce(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))
	newToken := mintToken(t, time.Now().Add(2*time.Hour))

	var refreshCalls, resourceCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshCalls.Add(1)
			writeRefresh(w, newToken)
		case "/v1/users/u1":
			if resourceCalls.Add(1) == 1 {
				// Token revoked server-side: first attempt fails.
				writeError(w, http.StatusUnauthorized, "token revoked", nil)
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer "+newToken {
				t.Errorf("retry should carry refreshed token, got %s", got)
			}
			writeEnvelope(t, w, User{ID: "u1", Email: "a@b.c"}, nil)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithToken(token))

	u, err := client.Users.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("unexpected user: %+v", u)
	}
	if refreshCalls.Load() != 1 {
		t.Errorf("expected 1 refresh, got %d", refreshCalls.Load())
	}
	if resourceCalls.Load() != 2 {
		t.Errorf("expected 2 resource attempts, got %d", resourceCalls.Load())
	}
}

func TestSecond401ForcesLogoutWithoutRetryLoop(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))

	var refreshCalls, resourceCalls atomic.Int32
	var expiredCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshCalls.Add(1)
			writeRefresh(w, mintToken(t, time.Now().Add(1*time.Hour)))
		default:
			resourceCalls.Add(1)
			writeError(w, http.StatusUnauthorized, "nope", nil)
		}
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithToken(token),
		WithOnSessionExpired(func() { expiredCalls.Add(1) }),
	)

	_, err := client.Users.Get(context.Background(), "u1")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	if resourceCalls.Load() != 2 {
		t.Errorf("expected exactly 2 attempts (original + one retry), got %d", resourceCalls.Load())
	}
	if refreshCalls.Load() != 1 {
		t.Errorf("expected exactly 1 refresh, got %d", refreshCalls.Load())
	}
	if expiredCalls.Load() != 1 {
		t.Errorf("expected session torn down once, got %d", expiredCalls.Load())
	}
	if client.Session().Authenticated() {
		t.Error("session should be cleared")
	}
}

func TestRefreshEndpointNeverNestsRefresh(t *testing.T) {
	// An expired token whose refresh is also rejected must fail terminally
	// after a single refresh attempt.
	token := mintToken(t, time.Now().Add(1*time.Minute))

	var refreshCalls atomic.Int32
	var expiredCalls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/refresh" {
			t.Errorf("resource endpoint should never be reached, got %s", r.URL.Path)
		}
		refreshCalls.Add(1)
		writeError(w, http.StatusUnauthorized, "refresh token expired", nil)
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithToken(token),
		WithOnSessionExpired(func() { expiredCalls.Add(1) }),
	)

	_, _, err := client.Forms.List(context.Background(), ListOptions{})
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected *AuthError, got %T", err)
	}
	if refreshCalls.Load() != 1 {
		t.Errorf("expected exactly 1 refresh attempt, got %d", refreshCalls.Load())
	}
	if expiredCalls.Load() != 1 {
		t.Errorf("expected session cleared once, got %d", expiredCalls.Load())
	}
}

func TestErrorClassification(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))

	tests := []struct {
		name     string
		status   int
		fields   map[string][]string
		headers  map[string]string
		sentinel error
	}{
		{"forbidden", http.StatusForbidden, nil, nil, ErrForbidden},
		{"not found", http.StatusNotFound, nil, nil, ErrNotFound},
		{"validation", http.StatusUnprocessableEntity, map[string][]string{"title": {"is required"}}, nil, ErrValidation},
		{"rate limited", http.StatusTooManyRequests, nil, map[string]string{"Retry-After": "30"}, ErrRateLimited},
		{"server error", http.StatusInternalServerError, nil, nil, ErrServer},
		{"bad gateway", http.StatusBadGateway, nil, nil, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.headers {
					w.Header().Set(k, v)
				}
				writeError(w, tt.status, tt.name, tt.fields)
			}))
			defer server.Close()

			client := NewClient(WithBaseURL(server.URL), WithToken(token))
			_, _, err := client.Forms.List(context.Background(), ListOptions{})
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}

			switch tt.status {
			case http.StatusUnprocessableEntity:
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("expected *ValidationError, got %T", err)
				}
				if got := verr.Fields["title"]; len(got) != 1 || got[0] != "is required" {
					t.Errorf("unexpected field errors: %v", verr.Fields)
				}
			case http.StatusTooManyRequests:
				var rerr *RateLimitError
				if !errors.As(err, &rerr) {
					t.Fatalf("expected *RateLimitError, got %T", err)
				}
				if rerr.RetryAfter != 30*time.Second {
					t.Errorf("expected RetryAfter=30s, got %v", rerr.RetryAfter)
				}
			}
		})
	}
}

func TestTransportError(t *testing.T) {
	// A listener that is immediately closed simulates an unreachable server.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := listener.Addr().String()
	listener.Close()

	client := NewClient(
		WithBaseURL("http://"+addr),
		WithToken(mintToken(t, time.Now().Add(1*time.Hour))),
		WithTimeout(500*time.Millisecond),
	)

	_, _, err = client.Forms.List(context.Background(), ListOptions{})
	var terr *TransportError
	if !errors.As(err, &terr) {
		t.Fatalf("expected *TransportError, got %T: %v", err, err)
	}
	if terr.Cause == nil {
		t.Error("expected Cause to be set")
	}
}

func TestLoginStoresTokenAndMe(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			if r.Header.Get("Authorization") != "" {
				t.Error("login must not carry a bearer token")
			}
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["email"] != "admin@example.org" {
				t.Errorf("unexpected email: %s", body["email"])
			}
			writeEnvelope(t, w, map[string]any{
				"access_token": token,
				"user":         User{ID: "u1", Email: "admin@example.org"},
			}, nil)
		case "/auth/me":
			if got := r.Header.Get("Authorization"); got != "Bearer "+token {
				t.Errorf("me should carry the login token, got %s", got)
			}
			writeEnvelope(t, w, User{ID: "u1", Email: "admin@example.org"}, nil)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))

	u, err := client.Auth.Login(context.Background(), "admin@example.org", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("unexpected user: %+v", u)
	}
	if !client.Session().Authenticated() {
		t.Fatal("session should be authenticated after login")
	}

	me, err := client.Auth.Me(context.Background())
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if me.Email != "admin@example.org" {
		t.Errorf("unexpected me: %+v", me)
	}
}

func TestLoginRejectsInvalidEmailClientSide(t *testing.T) {
	client := NewClient(WithBaseURL("http://unused.invalid"))
	if _, err := client.Auth.Login(context.Background(), "not-an-email", "pw"); err == nil {
		t.Fatal("expected client-side validation error")
	}
}

func TestAnalyticsCachedRead(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(t, w, Overview{ActiveForms: 4}, nil)
	}))
	defer server.Close()

	client := NewClient(
		WithBaseURL(server.URL),
		WithToken(token),
		WithCacheTTL(1*time.Minute),
	)

	for i := 0; i < 2; i++ {
		o, err := client.Analytics.Overview(context.Background())
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if o.ActiveForms != 4 {
			t.Errorf("call %d: unexpected overview: %+v", i, o)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("expected server hit once, got %d", calls.Load())
	}
}

func TestAnalytics404NotMasked(t *testing.T) {
	token := mintToken(t, time.Now().Add(1*time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no data yet", nil)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithToken(token))

	// A missing dataset is a real error, never substituted with placeholder
	// numbers.
	if _, err := client.Analytics.Overview(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMetricsRecorded(t *testing.T) {
	oldToken := mintToken(t, time.Now().Add(1*time.Minute))
	newToken := mintToken(t, time.Now().Add(1*time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			writeRefresh(w, newToken)
			return
		}
		writeEnvelope(t, w, []Form{}, nil)
	}))
	defer server.Close()

	reg := prometheus.NewRegistry()
	client := NewClient(
		WithBaseURL(server.URL),
		WithToken(oldToken),
		WithMetrics(reg),
	)

	if _, _, err := client.Forms.List(context.Background(), ListOptions{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fams, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	var refreshFam *dto.MetricFamily
	for _, f := range fams {
		if f.GetName() == "pollbase_token_refreshes_total" {
			refreshFam = f
		}
	}
	if refreshFam == nil {
		t.Fatal("expected pollbase_token_refreshes_total to be registered")
	}
	var success float64
	for _, m := range refreshFam.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetName() == "result" && l.GetValue() == "success" {
				success = m.GetCounter().GetValue()
			}
		}
	}
	if success != 1 {
		t.Errorf("expected 1 successful refresh recorded, got %v", success)
	}
}

func TestEnvVarConfiguration(t *testing.T) {
	t.Setenv("POLLBASE_API_URL", "http://env-server:9000")
	t.Setenv("POLLBASE_TIMEOUT", "10")

	client := NewClient()

	if client.baseURL != "http://env-server:9000" {
		t.Errorf("expected base URL from env, got %s", client.baseURL)
	}
	if client.timeout != 10*time.Second {
		t.Errorf("expected timeout=10s from env, got %v", client.timeout)
	}
}
