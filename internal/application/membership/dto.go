package membership

import (
	"io"

	"github.com/shopspring/decimal"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

// RegisterRequest registers an associate for a season.
type RegisterRequest struct {
	AssociateID string `json:"associate_id" validate:"required,max=128"`
	Season      string `json:"season" validate:"required"`
	PlanID      string `json:"plan_id" validate:"required,max=128"`
	// CustomAmount overrides the plan total when the plan allows it.
	CustomAmount *decimal.Decimal `json:"custom_amount,omitempty"`
}

// RegisterResult is returned by Register.  Created is false when an existing
// membership for the same associate and season was reused.
type RegisterResult struct {
	Membership   *domain.Membership    `json:"membership"`
	Installments []*domain.Installment `json:"installments"`
	Created      bool                  `json:"created"`
	PayURL       string                `json:"pay_url"`
	Outcome      *Outcome              `json:"outcome"`
}

// MembershipDetail is the full admin view of one membership.
type MembershipDetail struct {
	Membership   *domain.Membership          `json:"membership"`
	Installments []*domain.Installment       `json:"installments"`
	Submissions  []*domain.PaymentSubmission `json:"submissions"`
	PayURL       string                      `json:"pay_url"`
}

// ListRequest filters membership listings.
type ListRequest struct {
	AssociateID string `json:"associate_id,omitempty"`
	Season      string `json:"season,omitempty"`
	Status      string `json:"status,omitempty"`
	HasPending  *bool  `json:"has_pending,omitempty"`
	common.Pagination
}

// ---------------------------------------------------------------------------
// Pay link
// ---------------------------------------------------------------------------

// PayLinkView is what a payer sees when opening the pay link.
type PayLinkView struct {
	MembershipID          string                  `json:"membership_id"`
	Season                string                  `json:"season"`
	PlanName              string                  `json:"plan_name,omitempty"`
	Status                domain.MembershipStatus `json:"status"`
	TotalAmount           decimal.NullDecimal     `json:"total_amount"`
	Currency              string                  `json:"currency"`
	PayLinkEnabled        bool                    `json:"pay_link_enabled"`
	PayLinkDisabledReason *string                 `json:"pay_link_disabled_reason,omitempty"`
	PendingInstallments   []*domain.Installment   `json:"pending_installments"`
	Rollup                domain.Rollup           `json:"rollup"`
}

// ProofUpload is a proof-of-payment file as received from the payer.
type ProofUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitPaymentRequest is a payer's claim submitted through the pay link.
type SubmitPaymentRequest struct {
	MembershipID   string          `json:"membership_id" validate:"required"`
	Code           string          `json:"code" validate:"required"`
	PayerName      string          `json:"payer_name" validate:"required,max=200"`
	AmountReported decimal.Decimal `json:"amount_reported"`
	Currency       string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Method         string          `json:"method,omitempty" validate:"max=64"`
	InstallmentID  *string         `json:"installment_id,omitempty"`
	Note           string          `json:"note,omitempty" validate:"max=2000"`
	Proof          *ProofUpload    `json:"-"`
}

// SubmitPaymentResult carries the stored submission.
type SubmitPaymentResult struct {
	Submission *domain.PaymentSubmission `json:"submission"`
	Outcome    *Outcome                  `json:"outcome"`
}

// ---------------------------------------------------------------------------
// Decisions
// ---------------------------------------------------------------------------

// ValidateRequest approves a submission against a set of installments.
type ValidateRequest struct {
	SubmissionID   string   `json:"submission_id" validate:"required"`
	InstallmentIDs []string `json:"installment_ids"`
	AdminNote      string   `json:"admin_note,omitempty" validate:"max=2000"`
}

// RejectRequest rejects a submission.
type RejectRequest struct {
	SubmissionID string `json:"submission_id" validate:"required"`
	AdminNote    string `json:"admin_note,omitempty" validate:"max=2000"`
}

// DecisionResult is returned by ValidateSubmission and RejectSubmission.
type DecisionResult struct {
	Submission     *domain.PaymentSubmission `json:"submission"`
	Membership     *domain.Membership        `json:"membership"`
	Installments   []*domain.Installment     `json:"installments"`
	PreviousStatus domain.MembershipStatus   `json:"previous_status"`
	StatusChanged  bool                      `json:"status_changed"`
	Outcome        *Outcome                  `json:"outcome"`
}

// Suggestion is a proposed set of installments for a reported amount.
type Suggestion struct {
	MembershipID   string          `json:"membership_id"`
	SubmissionID   string          `json:"submission_id,omitempty"`
	ReportedAmount decimal.Decimal `json:"reported_amount"`
	InstallmentIDs []string        `json:"installment_ids"`
	SuggestedTotal decimal.Decimal `json:"suggested_total"`
	// ExactMatch is true when the suggested total equals the reported amount.
	ExactMatch bool `json:"exact_match"`
}

// ---------------------------------------------------------------------------
// Maintenance
// ---------------------------------------------------------------------------

// ReconcileResult is returned by Reconcile.
type ReconcileResult struct {
	MembershipID   string                  `json:"membership_id"`
	PreviousStatus domain.MembershipStatus `json:"previous_status"`
	Status         domain.MembershipStatus `json:"status"`
	StatusChanged  bool                    `json:"status_changed"`
	Rollup         domain.Rollup           `json:"rollup"`
	RollupChanged  bool                    `json:"rollup_changed"`
}

// RollupResult is returned by RecomputeRollup.
type RollupResult struct {
	MembershipID string        `json:"membership_id"`
	Rollup       domain.Rollup `json:"rollup"`
	Changed      bool          `json:"changed"`
}

// SetPayLinkRequest enables or disables a pay link by hand.
type SetPayLinkRequest struct {
	MembershipID string `json:"membership_id" validate:"required"`
	Enabled      bool   `json:"enabled"`
	Reason       string `json:"reason,omitempty" validate:"max=500"`
}

// PayLinkResult is returned by pay link administration calls.
type PayLinkResult struct {
	Membership *domain.Membership `json:"membership"`
	PayURL     string             `json:"pay_url"`
}

// SweepRequest configures one sweep run.
type SweepRequest struct {
	BatchSize int `json:"batch_size"`
	// Limit stops the sweep after this many memberships; zero means all.
	Limit int `json:"limit"`
}

// SweepReport summarises a sweep run.
type SweepReport struct {
	Scanned       int      `json:"scanned"`
	StatusChanged int      `json:"status_changed"`
	RollupChanged int      `json:"rollup_changed"`
	Failed        int      `json:"failed"`
	Errors        []string `json:"errors,omitempty"`
}

//Personal.AI order the ending
