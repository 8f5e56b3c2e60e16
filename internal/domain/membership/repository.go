package membership

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ListFilter narrows membership listings.  Zero values mean "any".
type ListFilter struct {
	AssociateID string
	Season      string
	Status      MembershipStatus
	// HasPending keeps only memberships with pending installments when set.
	HasPending *bool
	Limit      int
	Offset     int
}

// MembershipRepository persists memberships.
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	GetByID(ctx context.Context, id string) (*Membership, error)
	FindByAssociateSeason(ctx context.Context, associateID, season string) ([]*Membership, error)
	List(ctx context.Context, filter ListFilter) ([]*Membership, int64, error)
	// ListIDsAfter pages through ids in ascending order for sweeps.
	ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)

	UpdateStatus(ctx context.Context, id string, status MembershipStatus, at time.Time) error
	UpdateRollup(ctx context.Context, id string, rollup Rollup, at time.Time) error
	UpdatePayLink(ctx context.Context, id string, state PayLinkState, at time.Time) error
	UpdatePayCode(ctx context.Context, id, payCode string, at time.Time) error
}

// InstallmentRepository persists installments.  Installments are only
// mutated through submission decisions.
type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []*Installment) error
	ListByMembership(ctx context.Context, membershipID string) ([]*Installment, error)
	MarkValidated(ctx context.Context, id, submissionID string, at time.Time) error
}

// SubmissionDecision is the set of fields written when a submission is
// validated or rejected.
type SubmissionDecision struct {
	Status                SubmissionStatus
	AdminNote             *string
	AppliedInstallmentIDs []string
	AppliedTotal          decimal.NullDecimal
	DecidedAt             time.Time
}

// SubmissionRepository persists payment submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, s *PaymentSubmission) error
	GetByID(ctx context.Context, id string) (*PaymentSubmission, error)
	ListByMembership(ctx context.Context, membershipID string) ([]*PaymentSubmission, error)
	// Decide writes a terminal decision.  It must refuse submissions that are
	// no longer pending so two concurrent decisions cannot both land.
	Decide(ctx context.Context, id string, d SubmissionDecision) error
	MarkError(ctx context.Context, id, adminNote string, at time.Time) error
	AttachProof(ctx context.Context, id string, proof ProofRef, at time.Time) error
}

// Store groups the repositories that share one transaction boundary.
type Store interface {
	Memberships() MembershipRepository
	Installments() InstallmentRepository
	Submissions() SubmissionRepository
	// WithTx runs fn against a Store bound to a single transaction.  The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// PlanCatalog is the read-only plan source consulted at registration.
type PlanCatalog interface {
	GetPlan(ctx context.Context, planID string) (*PlanSnapshot, error)
}

//Personal.AI order the ending
