package pollbase

import (
	"context"
	"net/url"
)

// CollationService tracks result collation: per-unit tally submissions
// rolling up through the geographic hierarchy. Approval rules and roll-up
// arithmetic live server-side.
type CollationService struct {
	c *Client
}

// Sessions returns collation sessions, optionally filtered by status.
func (s *CollationService) Sessions(ctx context.Context, opts ListOptions) ([]CollationSession, *PageMeta, error) {
	var cs []CollationSession
	meta, err := s.c.getList(ctx, "/v1/collation/sessions", opts.Values(), &cs)
	if err != nil {
		return nil, nil, err
	}
	return cs, meta, nil
}

// Session returns one collation session by ID.
func (s *CollationService) Session(ctx context.Context, id string) (*CollationSession, error) {
	var cs CollationSession
	if err := s.c.get(ctx, "/v1/collation/sessions/"+url.PathEscape(id), nil, &cs); err != nil {
		return nil, err
	}
	return &cs, nil
}

// Status summarizes reporting progress for a collation session.
func (s *CollationService) Status(ctx context.Context, id string) (*CollationStatus, error) {
	var st CollationStatus
	if err := s.c.get(ctx, "/v1/collation/sessions/"+url.PathEscape(id)+"/status", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// Submissions returns tally submissions within a session.
func (s *CollationService) Submissions(ctx context.Context, id string, opts ListOptions) ([]CollationSubmission, *PageMeta, error) {
	var subs []CollationSubmission
	meta, err := s.c.getList(ctx, "/v1/collation/sessions/"+url.PathEscape(id)+"/submissions", opts.Values(), &subs)
	if err != nil {
		return nil, nil, err
	}
	return subs, meta, nil
}

// ApproveSubmission accepts a unit's submitted tally into the roll-up.
func (s *CollationService) ApproveSubmission(ctx context.Context, id string) error {
	return s.c.post(ctx, "/v1/collation/submissions/"+url.PathEscape(id)+"/approve", nil, nil)
}

// RejectSubmission rejects a submission with a reason; the reporting unit
// must resubmit.
func (s *CollationService) RejectSubmission(ctx context.Context, id, reason string) error {
	body := map[string]string{"reason": reason}
	return s.c.post(ctx, "/v1/collation/submissions/"+url.PathEscape(id)+"/reject", body, nil)
}
