package pollbase

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// PageMeta is the pagination block carried in list response envelopes.
type PageMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Total   int `json:"total"`
}

// ListOptions are the pagination and filter parameters shared by list
// endpoints. The zero value requests the server defaults.
type ListOptions struct {
	Page    int
	PerPage int
	// Search is a free-text filter applied server-side.
	Search string
	// Status filters by resource status where the endpoint supports it.
	Status string
}

// Values encodes the options as URL query parameters.
func (o ListOptions) Values() url.Values {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(o.PerPage))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.Status != "" {
		q.Set("status", o.Status)
	}
	return q
}

// requestValidator checks request payloads before they leave the client,
// catching obvious mistakes (missing titles, malformed URLs) without a
// network round trip. Server-side validation remains authoritative.
var requestValidator = validator.New(validator.WithRequiredStructEnabled())

// validateRequest runs struct-tag validation on an outgoing payload.
func validateRequest(v any) error {
	if err := requestValidator.Struct(v); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// User is a platform user account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Status    string    `json:"status"`
	Roles     []string  `json:"roles,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Form is a data-collection form definition.
type Form struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description,omitempty"`
	Status        string          `json:"status"` // draft/published/closed
	Fields        []FormField     `json:"fields,omitempty"`
	ResponseCount int             `json:"response_count"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// FormField is one question in a form schema.
type FormField struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"` // text/number/choice/date/file
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// FormResponse is one submitted response to a form.
type FormResponse struct {
	ID          string         `json:"id"`
	FormID      string         `json:"form_id"`
	Answers     map[string]any `json:"answers"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	SubmittedAt time.Time      `json:"submitted_at"`
}

// Election is a voting event with a managed lifecycle:
// draft -> open -> closed -> finalized.
type Election struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      string      `json:"status"`
	OpensAt     time.Time   `json:"opens_at"`
	ClosesAt    time.Time   `json:"closes_at"`
	Candidates  []Candidate `json:"candidates,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Candidate is one option voters choose between in an election.
type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Party    string `json:"party,omitempty"`
	Position string `json:"position,omitempty"`
}

// ElectionResults is the server-tallied outcome of an election.
// Tallying is entirely server-side; this client only renders it.
type ElectionResults struct {
	ElectionID  string            `json:"election_id"`
	Status      string            `json:"status"`
	TotalVotes  int               `json:"total_votes"`
	Turnout     float64           `json:"turnout"`
	ByCandidate []CandidateResult `json:"by_candidate"`
	FinalizedAt *time.Time        `json:"finalized_at,omitempty"`
}

// CandidateResult is one candidate's tally within election results.
type CandidateResult struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	Votes       int     `json:"votes"`
	Share       float64 `json:"share"`
}

// Role is an RBAC role with its granted permissions.
type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	System      bool      `json:"system"`
	CreatedAt   time.Time `json:"created_at"`
}

// Permission is a grantable capability string with metadata.
type Permission struct {
	Key         string `json:"key"`
	Description string `json:"description,omitempty"`
	Group       string `json:"group,omitempty"`
}

// Webhook is a registered event delivery target.
type Webhook struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WebhookDelivery is one attempted delivery of an event to a webhook.
type WebhookDelivery struct {
	ID          string    `json:"id"`
	WebhookID   string    `json:"webhook_id"`
	Event       string    `json:"event"`
	StatusCode  int       `json:"status_code"`
	Success     bool      `json:"success"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// APIKey is a server-managed API credential. The raw key material appears
// only in the create response and is never retrievable afterwards.
type APIKey struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	Scopes     []string   `json:"scopes,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// Notification is an in-platform notification for the current user.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// CollationSession is a result-collation run over a geographic scope.
type CollationSession struct {
	ID         string    `json:"id"`
	ElectionID string    `json:"election_id"`
	RegionID   string    `json:"region_id,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CollationSubmission is one reporting unit's submitted tally sheet.
type CollationSubmission struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	UnitID      string    `json:"unit_id"`
	Status      string    `json:"status"` // pending/approved/rejected
	SubmittedBy string    `json:"submitted_by"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// CollationStatus summarizes progress of a collation session.
type CollationStatus struct {
	SessionID      string  `json:"session_id"`
	UnitsExpected  int     `json:"units_expected"`
	UnitsReported  int     `json:"units_reported"`
	UnitsApproved  int     `json:"units_approved"`
	UnitsRejected  int     `json:"units_rejected"`
	PercentOfUnits float64 `json:"percent_of_units"`
}

// Region, District, and Ward form the geographic hierarchy used for
// election scoping and collation.
type Region struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type District struct {
	ID       string `json:"id"`
	RegionID string `json:"region_id"`
	Name     string `json:"name"`
	Code     string `json:"code,omitempty"`
}

type Ward struct {
	ID         string `json:"id"`
	DistrictID string `json:"district_id"`
	Name       string `json:"name"`
	Code       string `json:"code,omitempty"`
}
