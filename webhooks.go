package pollbase

import (
	"context"
	"net/url"
)

// WebhooksService manages event delivery targets. Delivery itself (retries,
// signing, backoff) is handled by the platform, not this client.
type WebhooksService struct {
	c *Client
}

// CreateWebhookRequest is the payload for WebhooksService.Create.
type CreateWebhookRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1"`
}

// UpdateWebhookRequest is the payload for WebhooksService.Update.
type UpdateWebhookRequest struct {
	URL    *string   `json:"url,omitempty" validate:"omitempty,url"`
	Events *[]string `json:"events,omitempty"`
	Active *bool     `json:"active,omitempty"`
}

// WebhookSecret is returned when a webhook is created or its secret is
// rotated. The secret is shown exactly once.
type WebhookSecret struct {
	WebhookID string `json:"webhook_id"`
	Secret    string `json:"secret"`
}

// List returns registered webhooks.
func (s *WebhooksService) List(ctx context.Context, opts ListOptions) ([]Webhook, *PageMeta, error) {
	var ws []Webhook
	meta, err := s.c.getList(ctx, "/v1/webhooks", opts.Values(), &ws)
	if err != nil {
		return nil, nil, err
	}
	return ws, meta, nil
}

// Get returns one webhook by ID.
func (s *WebhooksService) Get(ctx context.Context, id string) (*Webhook, error) {
	var w Webhook
	if err := s.c.get(ctx, "/v1/webhooks/"+url.PathEscape(id), nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Create registers a webhook and returns it together with its signing
// secret. The secret is not retrievable afterwards.
func (s *WebhooksService) Create(ctx context.Context, req CreateWebhookRequest) (*Webhook, *WebhookSecret, error) {
	if err := validateRequest(req); err != nil {
		return nil, nil, err
	}
	var data struct {
		Webhook
		Secret string `json:"secret"`
	}
	if err := s.c.post(ctx, "/v1/webhooks", req, &data); err != nil {
		return nil, nil, err
	}
	return &data.Webhook, &WebhookSecret{WebhookID: data.ID, Secret: data.Secret}, nil
}

// Update modifies a webhook's target, subscribed events, or active flag.
func (s *WebhooksService) Update(ctx context.Context, id string, req UpdateWebhookRequest) (*Webhook, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var w Webhook
	if err := s.c.patch(ctx, "/v1/webhooks/"+url.PathEscape(id), req, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

// Delete unregisters a webhook.
func (s *WebhooksService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, "/v1/webhooks/"+url.PathEscape(id))
}

// Test asks the platform to send a synthetic event to the webhook and
// returns the delivery record.
func (s *WebhooksService) Test(ctx context.Context, id string) (*WebhookDelivery, error) {
	var d WebhookDelivery
	if err := s.c.post(ctx, "/v1/webhooks/"+url.PathEscape(id)+"/test", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RotateSecret replaces the webhook's signing secret and returns the new
// one. In-flight deliveries signed with the old secret may still arrive.
func (s *WebhooksService) RotateSecret(ctx context.Context, id string) (*WebhookSecret, error) {
	var sec WebhookSecret
	if err := s.c.post(ctx, "/v1/webhooks/"+url.PathEscape(id)+"/rotate-secret", nil, &sec); err != nil {
		return nil, err
	}
	return &sec, nil
}

// Deliveries returns recent delivery attempts for a webhook.
func (s *WebhooksService) Deliveries(ctx context.Context, id string, opts ListOptions) ([]WebhookDelivery, *PageMeta, error) {
	var ds []WebhookDelivery
	meta, err := s.c.getList(ctx, "/v1/webhooks/"+url.PathEscape(id)+"/deliveries", opts.Values(), &ds)
	if err != nil {
		return nil, nil, err
	}
	return ds, meta, nil
}
