package pollbase

import (
	"context"
	"net/url"
	"time"
)

// AnalyticsService reads server-computed analytics. These endpoints are
// expensive server-side and tolerate staleness, so reads go through the
// client's TTL cache when one is configured (WithCacheTTL).
//
// A missing analytics dataset is surfaced as ErrNotFound. The client never
// substitutes placeholder data for a 404.
type AnalyticsService struct {
	c *Client
}

// FormSummary aggregates response activity for one form.
type FormSummary struct {
	FormID          string    `json:"form_id"`
	ResponseCount   int       `json:"response_count"`
	CompletionRate  float64   `json:"completion_rate"`
	AverageDuration float64   `json:"average_duration_seconds"`
	LastResponseAt  time.Time `json:"last_response_at"`
}

// SeriesPoint is one bucket in a response time series.
type SeriesPoint struct {
	Bucket time.Time `json:"bucket"`
	Count  int       `json:"count"`
}

// TurnoutReport is the turnout breakdown for an election.
type TurnoutReport struct {
	ElectionID     string  `json:"election_id"`
	EligibleVoters int     `json:"eligible_voters"`
	VotesCast      int     `json:"votes_cast"`
	Turnout        float64 `json:"turnout"`
}

// Overview is the platform-wide dashboard summary.
type Overview struct {
	ActiveForms     int `json:"active_forms"`
	TotalResponses  int `json:"total_responses"`
	OpenElections   int `json:"open_elections"`
	ActiveUsers     int `json:"active_users"`
	PendingWebhooks int `json:"pending_webhooks"`
}

// FormSummary returns aggregate response statistics for a form.
func (s *AnalyticsService) FormSummary(ctx context.Context, formID string) (*FormSummary, error) {
	var sum FormSummary
	if err := s.c.getCached(ctx, "/v1/analytics/forms/"+url.PathEscape(formID)+"/summary", nil, &sum); err != nil {
		return nil, err
	}
	return &sum, nil
}

// ResponseSeries returns a bucketed time series of responses for a form.
// Supported intervals: "hour", "day", "week".
func (s *AnalyticsService) ResponseSeries(ctx context.Context, formID, interval string) ([]SeriesPoint, error) {
	q := url.Values{}
	if interval != "" {
		q.Set("interval", interval)
	}
	var pts []SeriesPoint
	if err := s.c.getCached(ctx, "/v1/analytics/forms/"+url.PathEscape(formID)+"/series", q, &pts); err != nil {
		return nil, err
	}
	return pts, nil
}

// ElectionTurnout returns the turnout report for an election.
func (s *AnalyticsService) ElectionTurnout(ctx context.Context, electionID string) (*TurnoutReport, error) {
	var tr TurnoutReport
	if err := s.c.getCached(ctx, "/v1/analytics/elections/"+url.PathEscape(electionID)+"/turnout", nil, &tr); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Overview returns the platform-wide dashboard summary.
func (s *AnalyticsService) Overview(ctx context.Context) (*Overview, error) {
	var o Overview
	if err := s.c.getCached(ctx, "/v1/analytics/overview", nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
