package pollbase

import (
	"context"
	"net/url"
)

// APIKeysService manages server-issued API credentials.
type APIKeysService struct {
	c *Client
}

// CreateAPIKeyRequest is the payload for APIKeysService.Create.
type CreateAPIKeyRequest struct {
	Name   string   `json:"name" validate:"required,max=100"`
	Scopes []string `json:"scopes,omitempty"`
}

// CreatedAPIKey is the create response: the key metadata plus the raw key
// material, which is shown exactly once.
type CreatedAPIKey struct {
	APIKey
	Key string `json:"key"`
}

// List returns API keys, including revoked ones.
func (s *APIKeysService) List(ctx context.Context, opts ListOptions) ([]APIKey, *PageMeta, error) {
	var keys []APIKey
	meta, err := s.c.getList(ctx, "/v1/api-keys", opts.Values(), &keys)
	if err != nil {
		return nil, nil, err
	}
	return keys, meta, nil
}

// Create issues a new API key. The raw key appears only in this response.
func (s *APIKeysService) Create(ctx context.Context, req CreateAPIKeyRequest) (*CreatedAPIKey, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var k CreatedAPIKey
	if err := s.c.post(ctx, "/v1/api-keys", req, &k); err != nil {
		return nil, err
	}
	return &k, nil
}

// Revoke permanently disables an API key.
func (s *APIKeysService) Revoke(ctx context.Context, id string) error {
	return s.c.post(ctx, "/v1/api-keys/"+url.PathEscape(id)+"/revoke", nil, nil)
}
