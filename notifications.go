package pollbase

import (
	"context"
	"net/url"
)

// NotificationsService reads and acknowledges the current user's
// notifications and manages delivery preferences.
type NotificationsService struct {
	c *Client
}

// NotificationPreferences controls which events notify the current user
// and over which channels.
type NotificationPreferences struct {
	EmailEnabled bool     `json:"email_enabled"`
	InAppEnabled bool     `json:"in_app_enabled"`
	MutedEvents  []string `json:"muted_events,omitempty"`
}

// List returns the current user's notifications, newest first.
func (s *NotificationsService) List(ctx context.Context, opts ListOptions) ([]Notification, *PageMeta, error) {
	var ns []Notification
	meta, err := s.c.getList(ctx, "/v1/notifications", opts.Values(), &ns)
	if err != nil {
		return nil, nil, err
	}
	return ns, meta, nil
}

// MarkRead acknowledges one notification.
func (s *NotificationsService) MarkRead(ctx context.Context, id string) error {
	return s.c.post(ctx, "/v1/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// MarkAllRead acknowledges every unread notification.
func (s *NotificationsService) MarkAllRead(ctx context.Context) error {
	return s.c.post(ctx, "/v1/notifications/read-all", nil, nil)
}

// Preferences returns the current user's notification preferences.
func (s *NotificationsService) Preferences(ctx context.Context) (*NotificationPreferences, error) {
	var p NotificationPreferences
	if err := s.c.get(ctx, "/v1/notifications/preferences", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePreferences replaces the current user's notification preferences.
func (s *NotificationsService) UpdatePreferences(ctx context.Context, p NotificationPreferences) (*NotificationPreferences, error) {
	var out NotificationPreferences
	if err := s.c.put(ctx, "/v1/notifications/preferences", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
