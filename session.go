package pollbase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// sessionState is the refresh lifecycle state of a session.
// Transitions: stateIdle -> stateRefreshing -> stateIdle.
type sessionState int

const (
	stateIdle sessionState = iota
	stateRefreshing
)

// refreshOutcome is what parked callers receive when a refresh settles.
// Every caller parked during one refresh receives the same outcome.
type refreshOutcome struct {
	token string
	err   error
}

// refreshFunc performs the network refresh call with the current token and
// returns the new access token. Implemented by Client so the refresh request
// bypasses EnsureFresh and can never trigger a nested refresh.
type refreshFunc func(ctx context.Context, current string) (string, error)

// SessionManager owns the session token and the refresh state machine for
// one client. It is safe for concurrent use.
//
// At most one refresh network call is in flight at any time: the first
// caller that finds the state Idle performs the call, every caller that
// arrives while the state is Refreshing parks on a queue and is resolved,
// in arrival order, with the same token or the same failure.
type SessionManager struct {
	store     TokenStore
	buffer    time.Duration
	refresh   refreshFunc
	onExpired func()
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	state   sessionState
	waiters []chan refreshOutcome

	// clearMu serializes session teardown so logout stays idempotent even
	// when a refresh failure races an explicit Logout.
	clearMu sync.Mutex
}

// NewSessionManager creates a session manager backed by the given store.
// Most callers never construct one directly; NewClient does.
func NewSessionManager(store TokenStore, buffer time.Duration, logger *slog.Logger) *SessionManager {
	if store == nil {
		store = NewMemoryTokenStore()
	}
	if buffer <= 0 {
		buffer = DefaultExpiryBuffer
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:  store,
		buffer: buffer,
		logger: logger,
		now:    time.Now,
	}
}

// Token returns the current access token without freshness checks.
// Returns ErrNotAuthenticated when the store is empty.
func (m *SessionManager) Token() (string, error) {
	tok, err := m.store.Load()
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if tok == "" {
		return "", ErrNotAuthenticated
	}
	return tok, nil
}

// SetToken stores a new access token, e.g. after login.
func (m *SessionManager) SetToken(token string) error {
	if err := m.store.Save(token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// Authenticated reports whether a token is present in the store.
func (m *SessionManager) Authenticated() bool {
	tok, err := m.store.Load()
	return err == nil && tok != ""
}

// EnsureFresh returns a token that is valid beyond the expiry buffer,
// refreshing first when the stored token is expiring or malformed.
func (m *SessionManager) EnsureFresh(ctx context.Context) (string, error) {
	tok, err := m.Token()
	if err != nil {
		return "", err
	}
	if !expiresWithin(tok, m.buffer, m.now()) {
		return tok, nil
	}
	m.logger.Debug("access token within expiry buffer, refreshing", "buffer", m.buffer)
	return m.ForceRefresh(ctx)
}

// ForceRefresh refreshes the token regardless of its remaining lifetime,
// subject to single-flight coalescing. Used by the 401 retry path.
func (m *SessionManager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.state == stateRefreshing {
		ch := make(chan refreshOutcome, 1)
		m.waiters = append(m.waiters, ch)
		m.mu.Unlock()
		select {
		case out := <-ch:
			return out.token, out.err
		case <-ctx.Done():
			// The shared refresh keeps running for the other waiters; only
			// this caller gives up.
			return "", ctx.Err()
		}
	}
	m.state = stateRefreshing
	m.mu.Unlock()

	return m.runRefresh(ctx)
}

// runRefresh performs the network refresh and settles all parked waiters.
// Caller must have transitioned the state to Refreshing.
func (m *SessionManager) runRefresh(ctx context.Context) (string, error) {
	current, err := m.store.Load()
	if err != nil || current == "" {
		if err == nil {
			err = ErrNotAuthenticated
		}
		return m.settle("", err)
	}

	if m.refresh == nil {
		return m.settle("", fmt.Errorf("session manager has no refresh function"))
	}

	// Detach from the initiating caller's cancellation: the refresh outcome
	// is shared with every parked waiter, so one caller's context must not
	// abort it. The refresh function applies its own timeout.
	token, err := m.refresh(context.WithoutCancel(ctx), current)
	return m.settle(token, err)
}

// settle records the refresh outcome, returns the state machine to Idle,
// and resolves parked waiters in FIFO order.
func (m *SessionManager) settle(token string, err error) (string, error) {
	if err == nil {
		if saveErr := m.store.Save(token); saveErr != nil {
			token = ""
			err = fmt.Errorf("save refreshed token: %w", saveErr)
		} else {
			m.logger.Debug("access token refreshed")
		}
	}
	if err != nil {
		m.logger.Warn("token refresh failed, clearing session", "error", err)
		m.teardown()
	}

	m.mu.Lock()
	m.state = stateIdle
	waiters := m.waiters
	m.waiters = nil
	m.mu.Unlock()

	for _, ch := range waiters {
		ch <- refreshOutcome{token: token, err: err}
	}
	return token, err
}

// Logout clears the session. Safe to call repeatedly; the expiry callback
// fires only when a token was actually present.
func (m *SessionManager) Logout() {
	m.teardown()
}

// teardown clears the stored token exactly once per established session.
func (m *SessionManager) teardown() {
	m.clearMu.Lock()
	defer m.clearMu.Unlock()

	tok, err := m.store.Load()
	if err == nil && tok == "" {
		return
	}
	if err := m.store.Clear(); err != nil {
		m.logger.Warn("failed to clear token store", "error", err)
	}
	if m.onExpired != nil {
		m.onExpired()
	}
}
