package pollbase

import (
	"context"
	"time"
)

// SecurityService manages platform security settings and reads the
// server-side audit trail.
type SecurityService struct {
	c *Client
}

// SecuritySettings are the tenant-wide security controls.
type SecuritySettings struct {
	MFARequired        bool `json:"mfa_required"`
	SessionTTLMinutes  int  `json:"session_ttl_minutes"`
	PasswordMinLength  int  `json:"password_min_length"`
	IPAllowlistEnabled bool `json:"ip_allowlist_enabled"`
}

// UpdateSecuritySettingsRequest is the payload for SecurityService.UpdateSettings.
// Nil fields are left unchanged.
type UpdateSecuritySettingsRequest struct {
	MFARequired        *bool `json:"mfa_required,omitempty"`
	SessionTTLMinutes  *int  `json:"session_ttl_minutes,omitempty" validate:"omitempty,min=5,max=1440"`
	PasswordMinLength  *int  `json:"password_min_length,omitempty" validate:"omitempty,min=8,max=128"`
	IPAllowlistEnabled *bool `json:"ip_allowlist_enabled,omitempty"`
}

// AuditEvent is one entry in the platform's security audit trail.
type AuditEvent struct {
	ID         string    `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	IP         string    `json:"ip,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Settings returns the current security settings.
func (s *SecurityService) Settings(ctx context.Context) (*SecuritySettings, error) {
	var set SecuritySettings
	if err := s.c.get(ctx, "/v1/security/settings", nil, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// UpdateSettings applies partial changes to the security settings.
func (s *SecurityService) UpdateSettings(ctx context.Context, req UpdateSecuritySettingsRequest) (*SecuritySettings, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var set SecuritySettings
	if err := s.c.patch(ctx, "/v1/security/settings", req, &set); err != nil {
		return nil, err
	}
	return &set, nil
}

// AuditEvents returns the server-side audit trail, newest first.
func (s *SecurityService) AuditEvents(ctx context.Context, opts ListOptions) ([]AuditEvent, *PageMeta, error) {
	var evs []AuditEvent
	meta, err := s.c.getList(ctx, "/v1/security/audit-events", opts.Values(), &evs)
	if err != nil {
		return nil, nil, err
	}
	return evs, meta, nil
}
