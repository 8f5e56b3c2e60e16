package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Membership mirrors the server's membership representation.
type Membership struct {
	ID                    string              `json:"id"`
	AssociateID           string              `json:"associate_id"`
	Season                string              `json:"season"`
	PlanID                string              `json:"plan_id"`
	Status                string              `json:"status"`
	TotalAmount           decimal.NullDecimal `json:"total_amount"`
	Currency              string              `json:"currency"`
	PayLinkEnabled        bool                `json:"pay_link_enabled"`
	PayLinkDisabledReason *string             `json:"pay_link_disabled_reason"`
	InstallmentsTotal     int                 `json:"installments_total"`
	InstallmentsSettled   int                 `json:"installments_settled"`
	InstallmentsPending   int                 `json:"installments_pending"`
	NextUnpaidN           *int                `json:"next_unpaid_n"`
	NextUnpaidDueDate     *string             `json:"next_unpaid_due_date"`
	CreatedAt             time.Time           `json:"created_at"`
	UpdatedAt             time.Time           `json:"updated_at"`
}

// Installment is one scheduled due amount.
type Installment struct {
	ID                  string          `json:"id"`
	MembershipID        string          `json:"membership_id"`
	N                   int             `json:"n"`
	DueDate             *string         `json:"due_date"`
	Amount              decimal.Decimal `json:"amount"`
	Status              string          `json:"status"`
	PaymentSubmissionID *string         `json:"payment_submission_id"`
}

// Submission is a payer's payment claim.
type Submission struct {
	ID                    string              `json:"id"`
	MembershipID          string              `json:"membership_id"`
	InstallmentID         *string             `json:"installment_id"`
	PayerName             string              `json:"payer_name"`
	AmountReported        decimal.Decimal     `json:"amount_reported"`
	Currency              string              `json:"currency"`
	Method                string              `json:"method"`
	Note                  string              `json:"note"`
	AdminNote             *string             `json:"admin_note"`
	Status                string              `json:"status"`
	AppliedInstallmentIDs []string            `json:"applied_installment_ids"`
	AppliedTotal          decimal.NullDecimal `json:"applied_total"`
	DecidedAt             *time.Time          `json:"decided_at"`
	CreatedAt             time.Time           `json:"created_at"`
}

// Outcome reports side effects that failed after the primary write.
type Outcome struct {
	PrimaryOK         bool     `json:"primary_ok"`
	SideEffectOK      bool     `json:"side_effect_ok"`
	SideEffectError   string   `json:"side_effect_error,omitempty"`
	FailedSideEffects []string `json:"failed_side_effects,omitempty"`
}

// RegisterRequest creates or reuses a membership.
type RegisterRequest struct {
	AssociateID  string           `json:"associate_id"`
	Season       string           `json:"season"`
	PlanID       string           `json:"plan_id"`
	CustomAmount *decimal.Decimal `json:"custom_amount,omitempty"`
}

// RegisterResult is returned by Register.
type RegisterResult struct {
	Membership   *Membership    `json:"membership"`
	Installments []*Installment `json:"installments"`
	Created      bool           `json:"created"`
	PayURL       string         `json:"pay_url"`
	Outcome      *Outcome       `json:"outcome"`
}

// MembershipDetail is a membership with its installments and submissions.
type MembershipDetail struct {
	Membership   *Membership    `json:"membership"`
	Installments []*Installment `json:"installments"`
	Submissions  []*Submission  `json:"submissions"`
	PayURL       string         `json:"pay_url"`
}

// ListOptions filters List.  Zero values are omitted.
type ListOptions struct {
	AssociateID string
	Season      string
	Status      string
	HasPending  *bool
	Page        int
	PageSize    int
}

// MembershipPage is one page of memberships.
type MembershipPage struct {
	Items      []*Membership `json:"items"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalPages int           `json:"total_pages"`
}

// Rollup holds the installment counters of a membership.
type Rollup struct {
	InstallmentsTotal   int     `json:"installments_total"`
	InstallmentsSettled int     `json:"installments_settled"`
	InstallmentsPending int     `json:"installments_pending"`
	NextUnpaidN         *int    `json:"next_unpaid_n"`
	NextUnpaidDueDate   *string `json:"next_unpaid_due_date"`
}

// ReconcileResult is returned by Reconcile.
type ReconcileResult struct {
	MembershipID   string `json:"membership_id"`
	PreviousStatus string `json:"previous_status"`
	Status         string `json:"status"`
	StatusChanged  bool   `json:"status_changed"`
	Rollup         Rollup `json:"rollup"`
	RollupChanged  bool   `json:"rollup_changed"`
}

// RollupResult is returned by RecomputeRollup.
type RollupResult struct {
	MembershipID string `json:"membership_id"`
	Rollup       Rollup `json:"rollup"`
	Changed      bool   `json:"changed"`
}

// PayLinkResult is returned by SetPayLink and RotatePayCode.
type PayLinkResult struct {
	Membership *Membership `json:"membership"`
	PayURL     string      `json:"pay_url"`
}

// Suggestion is a proposed set of installments for an amount.
type Suggestion struct {
	MembershipID   string          `json:"membership_id"`
	SubmissionID   string          `json:"submission_id,omitempty"`
	ReportedAmount decimal.Decimal `json:"reported_amount"`
	InstallmentIDs []string        `json:"installment_ids"`
	SuggestedTotal decimal.Decimal `json:"suggested_total"`
	ExactMatch     bool            `json:"exact_match"`
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// MembershipsClient calls the /memberships routes.
type MembershipsClient struct {
	client *Client
}

// Register creates a membership, or returns the existing one for the same
// associate and season with Created=false.
func (m *MembershipsClient) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	if req == nil || req.AssociateID == "" || req.Season == "" || req.PlanID == "" {
		return nil, fmt.Errorf("associate_id, season and plan_id are required")
	}
	var out RegisterResult
	if _, err := m.client.post(ctx, "/memberships", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one membership with installments and submissions.
func (m *MembershipsClient) Get(ctx context.Context, membershipID string) (*MembershipDetail, error) {
	if membershipID == "" {
		return nil, fmt.Errorf("membershipID is required")
	}
	var out MembershipDetail
	if err := m.client.get(ctx, "/memberships/"+url.PathEscape(membershipID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List pages through memberships.
func (m *MembershipsClient) List(ctx context.Context, opts *ListOptions) (*MembershipPage, error) {
	q := url.Values{}
	if opts != nil {
		if opts.AssociateID != "" {
			q.Set("associate_id", opts.AssociateID)
		}
		if opts.Season != "" {
			q.Set("season", opts.Season)
		}
		if opts.Status != "" {
			q.Set("status", opts.Status)
		}
		if opts.HasPending != nil {
			q.Set("has_pending", strconv.FormatBool(*opts.HasPending))
		}
		if opts.Page > 0 {
			q.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			q.Set("page_size", strconv.Itoa(opts.PageSize))
		}
	}
	path := "/memberships"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out MembershipPage
	if err := m.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reconcile recomputes the membership status from its installments.
func (m *MembershipsClient) Reconcile(ctx context.Context, membershipID string) (*ReconcileResult, error) {
	var out ReconcileResult
	if _, err := m.client.post(ctx, "/memberships/"+url.PathEscape(membershipID)+"/reconcile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RecomputeRollup refreshes the installment counters.
func (m *MembershipsClient) RecomputeRollup(ctx context.Context, membershipID string) (*RollupResult, error) {
	var out RollupResult
	if _, err := m.client.post(ctx, "/memberships/"+url.PathEscape(membershipID)+"/rollup", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPayLink enables or disables the pay link.  A reason is required when
// disabling.
func (m *MembershipsClient) SetPayLink(ctx context.Context, membershipID string, enabled bool, reason string) (*PayLinkResult, error) {
	body := struct {
		Enabled bool   `json:"enabled"`
		Reason  string `json:"reason,omitempty"`
	}{enabled, reason}
	var out PayLinkResult
	if err := m.client.put(ctx, "/memberships/"+url.PathEscape(membershipID)+"/pay-link", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RotatePayCode invalidates the current pay URL and returns a new one.
func (m *MembershipsClient) RotatePayCode(ctx context.Context, membershipID string) (*PayLinkResult, error) {
	var out PayLinkResult
	if _, err := m.client.post(ctx, "/memberships/"+url.PathEscape(membershipID)+"/pay-code", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest proposes the pending installments an amount covers.
func (m *MembershipsClient) Suggest(ctx context.Context, membershipID string, amount decimal.Decimal) (*Suggestion, error) {
	path := "/memberships/" + url.PathEscape(membershipID) + "/suggestion?amount=" + url.QueryEscape(amount.String())
	var out Suggestion
	if err := m.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
