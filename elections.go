package pollbase

import (
	"context"
	"net/url"
	"time"
)

// ElectionsService manages the election lifecycle. State transitions
// (draft -> open -> closed -> finalized) and vote tallying are enforced
// entirely server-side; this client only requests them.
type ElectionsService struct {
	c *Client
}

// CreateElectionRequest is the payload for ElectionsService.Create.
type CreateElectionRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description,omitempty"`
	OpensAt     time.Time `json:"opens_at" validate:"required"`
	ClosesAt    time.Time `json:"closes_at" validate:"required,gtfield=OpensAt"`
}

// UpdateElectionRequest is the payload for ElectionsService.Update.
// Only draft elections accept schedule changes.
type UpdateElectionRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	OpensAt     *time.Time `json:"opens_at,omitempty"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
}

// AddCandidateRequest is the payload for ElectionsService.AddCandidate.
type AddCandidateRequest struct {
	Name     string `json:"name" validate:"required"`
	Party    string `json:"party,omitempty"`
	Position string `json:"position,omitempty"`
}

// List returns elections with pagination.
func (s *ElectionsService) List(ctx context.Context, opts ListOptions) ([]Election, *PageMeta, error) {
	var es []Election
	meta, err := s.c.getList(ctx, "/v1/elections", opts.Values(), &es)
	if err != nil {
		return nil, nil, err
	}
	return es, meta, nil
}

// Get returns one election by ID.
func (s *ElectionsService) Get(ctx context.Context, id string) (*Election, error) {
	var e Election
	if err := s.c.get(ctx, "/v1/elections/"+url.PathEscape(id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create creates a draft election.
func (s *ElectionsService) Create(ctx context.Context, req CreateElectionRequest) (*Election, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var e Election
	if err := s.c.post(ctx, "/v1/elections", req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Update modifies a draft election.
func (s *ElectionsService) Update(ctx context.Context, id string, req UpdateElectionRequest) (*Election, error) {
	var e Election
	if err := s.c.patch(ctx, "/v1/elections/"+url.PathEscape(id), req, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes a draft election. Opened elections cannot be deleted.
func (s *ElectionsService) Delete(ctx context.Context, id string) error {
	return s.c.delete(ctx, "/v1/elections/"+url.PathEscape(id))
}

// Open transitions a draft election to open, enabling voting.
func (s *ElectionsService) Open(ctx context.Context, id string) (*Election, error) {
	var e Election
	if err := s.c.post(ctx, "/v1/elections/"+url.PathEscape(id)+"/open", nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Close stops voting on an open election.
func (s *ElectionsService) Close(ctx context.Context, id string) (*Election, error) {
	var e Election
	if err := s.c.post(ctx, "/v1/elections/"+url.PathEscape(id)+"/close", nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Finalize certifies the results of a closed election. Irreversible.
func (s *ElectionsService) Finalize(ctx context.Context, id string) (*Election, error) {
	var e Election
	if err := s.c.post(ctx, "/v1/elections/"+url.PathEscape(id)+"/finalize", nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Results returns the server-tallied results for an election.
func (s *ElectionsService) Results(ctx context.Context, id string) (*ElectionResults, error) {
	var r ElectionResults
	if err := s.c.get(ctx, "/v1/elections/"+url.PathEscape(id)+"/results", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Candidates returns the candidates registered for an election.
func (s *ElectionsService) Candidates(ctx context.Context, id string) ([]Candidate, error) {
	var cs []Candidate
	if err := s.c.get(ctx, "/v1/elections/"+url.PathEscape(id)+"/candidates", nil, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// AddCandidate registers a candidate on a draft election.
func (s *ElectionsService) AddCandidate(ctx context.Context, id string, req AddCandidateRequest) (*Candidate, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	var cand Candidate
	if err := s.c.post(ctx, "/v1/elections/"+url.PathEscape(id)+"/candidates", req, &cand); err != nil {
		return nil, err
	}
	return &cand, nil
}

// RemoveCandidate removes a candidate from a draft election.
func (s *ElectionsService) RemoveCandidate(ctx context.Context, id, candidateID string) error {
	return s.c.delete(ctx, "/v1/elections/"+url.PathEscape(id)+"/candidates/"+url.PathEscape(candidateID))
}
