package pollbase

import (
	"context"
	"net/url"
)

// UsersService manages platform user accounts.
type UsersService struct {
	c *Client
}

// CreateUserRequest is the payload for UsersService.Create. The server
// emails an activation link; no password travels through this client.
type CreateUserRequest struct {
	Email     string   `json:"email" validate:"required,email"`
	FirstName string   `json:"first_name" validate:"required"`
	LastName  string   `json:"last_name" validate:"required"`
	Roles     []string `json:"roles,omitempty"`
}

// UpdateUserRequest is the payload for UsersService.Update.
type UpdateUserRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}

// List returns user accounts with pagination.
func (s *UsersService) List(ctx context.Context, opts ListOptions) ([]User, *PageMeta, error) {
	var users []User
	meta, err := s.c.getList(ctx, "/v1/users", opts.Values(), &users)
	if err != nil {
		return nil, nil, err
	}
	return users, meta, nil
}

// Get returns one user by ID.
func (s *UsersService) Get(ctx context.Context, id string) (*User, error) {
	var u User
	if err := s.c.get(ctx, "/v1/users/"+url.PathEscape(id), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create invites a new user account.
func (s *UsersService) Create(ctx context.Context, req CreateUserRequest) (*User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var u User
	if err := s.c.post(ctx, "/v1/users", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Update modifies a user's profile fields.
func (s *UsersService) Update(ctx context.Context, id string, req UpdateUserRequest) (*User, error) {
	var u User
	if err := s.c.patch(ctx, "/v1/users/"+url.PathEscape(id), req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Deactivate suspends a user account. Their sessions are revoked server-side.
func (s *UsersService) Deactivate(ctx context.Context, id string) error {
	return s.c.post(ctx, "/v1/users/"+url.PathEscape(id)+"/deactivate", nil, nil)
}

// Activate re-enables a previously deactivated account.
func (s *UsersService) Activate(ctx context.Context, id string) error {
	return s.c.post(ctx, "/v1/users/"+url.PathEscape(id)+"/activate", nil, nil)
}
