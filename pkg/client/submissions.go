package client

import (
	"context"
	"fmt"
	"net/url"
)

// DecisionResult is returned by Validate and Reject.
type DecisionResult struct {
	Submission     *Submission    `json:"submission"`
	Membership     *Membership    `json:"membership"`
	Installments   []*Installment `json:"installments"`
	PreviousStatus string         `json:"previous_status"`
	StatusChanged  bool           `json:"status_changed"`
	Outcome        *Outcome       `json:"outcome"`
	// Degraded is set from the X-Degraded header: the decision is stored but
	// a side effect such as the rollup refresh failed.
	Degraded bool `json:"-"`
}

// SubmissionsClient calls the /submissions routes.
type SubmissionsClient struct {
	client *Client
}

// Suggest proposes the installments covered by a submission's reported amount.
func (s *SubmissionsClient) Suggest(ctx context.Context, submissionID string) (*Suggestion, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submissionID is required")
	}
	var out Suggestion
	if err := s.client.get(ctx, "/submissions/"+url.PathEscape(submissionID)+"/suggestion", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate accepts a pending submission and settles installmentIDs.  An
// empty list falls back to the installment the payer picked, if any.
func (s *SubmissionsClient) Validate(ctx context.Context, submissionID string, installmentIDs []string, adminNote string) (*DecisionResult, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submissionID is required")
	}
	body := struct {
		InstallmentIDs []string `json:"installment_ids"`
		AdminNote      string   `json:"admin_note,omitempty"`
	}{installmentIDs, adminNote}
	return s.decide(ctx, submissionID, "validate", body)
}

// Reject refuses a pending submission.
func (s *SubmissionsClient) Reject(ctx context.Context, submissionID, adminNote string) (*DecisionResult, error) {
	if submissionID == "" {
		return nil, fmt.Errorf("submissionID is required")
	}
	body := struct {
		AdminNote string `json:"admin_note,omitempty"`
	}{adminNote}
	return s.decide(ctx, submissionID, "reject", body)
}

func (s *SubmissionsClient) decide(ctx context.Context, submissionID, action string, body interface{}) (*DecisionResult, error) {
	var out DecisionResult
	resp, err := s.client.post(ctx, "/submissions/"+url.PathEscape(submissionID)+"/"+action, body, &out)
	if err != nil {
		return nil, err
	}
	out.Degraded = resp.Degraded
	return &out, nil
}

//Personal.AI order the ending
