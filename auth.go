package pollbase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthService handles authentication: login, logout, session introspection,
// and explicit refresh.
type AuthService struct {
	c *Client
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates with email and password and stores the returned
// access token in the client's session.
func (s *AuthService) Login(ctx context.Context, email, password string) (*User, error) {
	req := loginRequest{Email: email, Password: password}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	var data struct {
		AccessToken string `json:"access_token"`
		User        *User  `json:"user"`
	}
	// Login is the one unauthenticated call; it goes straight to send so it
	// neither requires nor refreshes an existing token.
	if _, _, err := s.c.send(ctx, http.MethodPost, "/auth/login", nil, payload, "", &data); err != nil {
		return nil, err
	}
	if data.AccessToken == "" {
		return nil, fmt.Errorf("login response missing access token")
	}
	if err := s.c.session.SetToken(data.AccessToken); err != nil {
		return nil, err
	}
	return data.User, nil
}

// Logout invalidates the session server-side, then clears local state.
// The local session is cleared even when the server call fails.
func (s *AuthService) Logout(ctx context.Context) error {
	err := s.c.post(ctx, "/auth/logout", nil, nil)
	s.c.session.Logout()
	return err
}

// Me returns the account the session belongs to.
func (s *AuthService) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.c.get(ctx, "/auth/me", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh forces a token refresh, subject to single-flight coalescing.
// Normal use never needs this; the client refreshes automatically.
func (s *AuthService) Refresh(ctx context.Context) error {
	_, err := s.c.session.ForceRefresh(ctx)
	return err
}
