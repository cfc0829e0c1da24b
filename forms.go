package pollbase

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// FormsService manages data-collection forms and their responses.
type FormsService struct {
	c *Client
}

// CreateFormRequest is the payload for FormsService.Create.
type CreateFormRequest struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description,omitempty"`
	Fields      []FormField `json:"fields,omitempty" validate:"omitempty,dive"`
}

// UpdateFormRequest is the payload for FormsService.Update. Nil fields are
// left unchanged server-side.
type UpdateFormRequest struct {
	Title       *string      `json:"title,omitempty" validate:"omitempty,max=200"`
	Description *string      `json:"description,omitempty"`
	Fields      *[]FormField `json:"fields,omitempty"`
}

// ExportResult is a signed download link for a form's responses.
type ExportResult struct {
	URL       string    `json:"url"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expires_at"`
}

// List returns forms with pagination.
func (s *FormsService) List(ctx context.Context, opts ListOptions) ([]Form, *PageMeta, error) {
	var forms []Form
	meta, err := s.c.getList(ctx, "/v1/forms", opts.Values(), &forms)
	if err != nil {
		return nil, nil, err
	}
	return forms, meta, nil
}

// Get returns one form by ID.
func (s *FormsService) Get(ctx context.Context, id string) (*Form, error) {
	var f Form
	if err := s.c.get(ctx, "/v1/forms/"+url.PathEscape(id), nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create creates a draft form.
func (s *FormsService) Create(ctx context.Context, req CreateFormRequest) (*Form, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var f Form
	if err := s.c.post(ctx, "/v1/forms", req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Update modifies a form. Published forms reject schema changes server-side.
func (s *FormsService) Update(ctx context.Context, id string, req UpdateFormRequest) (*Form, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var f Form
	if err := s.c.patch(ctx, "/v1/forms/"+url.PathEscape(id), req, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Delete removes a form and all of its responses.
func (s *FormsService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, "/v1/forms/"+url.PathEscape(id))
}

// Publish transitions a draft form to published, opening it for responses.
func (s *FormsService) Publish(ctx context.Context, id string) (*Form, error) {
	var f Form
	if err := s.c.post(ctx, "/v1/forms/"+url.PathEscape(id)+"/publish", nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Close stops a published form from accepting further responses.
func (s *FormsService) Close(ctx context.Context, id string) (*Form, error) {
	var f Form
	if err := s.c.post(ctx, "/v1/forms/"+url.PathEscape(id)+"/close", nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Responses returns submitted responses for a form with pagination.
func (s *FormsService) Responses(ctx context.Context, id string, opts ListOptions) ([]FormResponse, *PageMeta, error) {
	var rs []FormResponse
	meta, err := s.c.getList(ctx, "/v1/forms/"+url.PathEscape(id)+"/responses", opts.Values(), &rs)
	if err != nil {
		return nil, nil, err
	}
	return rs, meta, nil
}

// Export asks the server to prepare a response export and returns a signed
// download link. Supported formats: "csv", "xlsx", "json".
func (s *FormsService) Export(ctx context.Context, id, format string) (*ExportResult, error) {
	switch format {
	case "csv", "xlsx", "json":
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
	var res ExportResult
	body := map[string]string{"format": format}
	if err := s.c.post(ctx, "/v1/forms/"+url.PathEscape(id)+"/export", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
