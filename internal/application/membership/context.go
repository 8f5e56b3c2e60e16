package membership

import (
	"context"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// reconcileContext holds the rows of one membership loaded through a Store,
// which may be bound to a transaction.
type reconcileContext struct {
	store        domain.Store
	now          time.Time
	membership   *domain.Membership
	installments []*domain.Installment
	submissions  []*domain.PaymentSubmission
}

func loadReconcileContext(ctx context.Context, store domain.Store, membershipID string, now time.Time) (*reconcileContext, error) {
	rc := &reconcileContext{store: store, now: now}
	m, err := store.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	rc.membership = m
	if err := rc.reloadChildren(ctx); err != nil {
		return nil, err
	}
	return rc, nil
}

// reloadChildren re-reads installments and submissions.
func (rc *reconcileContext) reloadChildren(ctx context.Context) error {
	installments, err := rc.store.Installments().ListByMembership(ctx, rc.membership.ID)
	if err != nil {
		return err
	}
	submissions, err := rc.store.Submissions().ListByMembership(ctx, rc.membership.ID)
	if err != nil {
		return err
	}
	rc.installments = installments
	rc.submissions = submissions
	return nil
}

// bind returns a copy reading and writing through store.
func (rc *reconcileContext) bind(store domain.Store) *reconcileContext {
	cp := *rc
	m := *rc.membership
	cp.membership = &m
	cp.store = store
	return &cp
}

// adopt copies loaded state from other, keeping rc's store.
func (rc *reconcileContext) adopt(other *reconcileContext) {
	rc.membership = other.membership
	rc.installments = other.installments
	rc.submissions = other.submissions
}

func (rc *reconcileContext) installment(id string) *domain.Installment {
	for _, inst := range rc.installments {
		if inst.ID == id {
			return inst
		}
	}
	return nil
}

func (rc *reconcileContext) submission(id string) *domain.PaymentSubmission {
	for _, s := range rc.submissions {
		if s.ID == id {
			return s
		}
	}
	return nil
}

func (rc *reconcileContext) pendingInstallments() []*domain.Installment {
	out := make([]*domain.Installment, 0, len(rc.installments))
	for _, inst := range rc.installments {
		if inst.Status == domain.InstallmentPending {
			out = append(out, inst)
		}
	}
	return out
}

// reconcileStatus persists the derived status when it differs from the
// stored one.
func (rc *reconcileContext) reconcileStatus(ctx context.Context) (bool, error) {
	next := domain.ComputeStatus(rc.membership, rc.installments, rc.submissions)
	if next == rc.membership.Status {
		return false, nil
	}
	if err := rc.store.Memberships().UpdateStatus(ctx, rc.membership.ID, next, rc.now); err != nil {
		return false, err
	}
	rc.membership.Status = next
	rc.membership.UpdatedAt = rc.now
	return true, nil
}

// applyPayLink writes state unconditionally so the stored row always matches
// the decision that was just taken.
func (rc *reconcileContext) applyPayLink(ctx context.Context, state domain.PayLinkState) error {
	if err := rc.store.Memberships().UpdatePayLink(ctx, rc.membership.ID, state, rc.now); err != nil {
		return err
	}
	rc.membership.PayLinkEnabled = state.Enabled
	rc.membership.PayLinkDisabledReason = state.Reason
	rc.membership.UpdatedAt = rc.now
	return nil
}

// recomputeRollup persists the rollup when it differs from the stored one.
func (rc *reconcileContext) recomputeRollup(ctx context.Context) (bool, error) {
	next := domain.ComputeRollup(rc.installments)
	if next.Equal(rc.membership.Rollup) {
		return false, nil
	}
	if err := rc.store.Memberships().UpdateRollup(ctx, rc.membership.ID, next, rc.now); err != nil {
		return false, err
	}
	rc.membership.Rollup = next
	rc.membership.UpdatedAt = rc.now
	return true, nil
}

// requirePending loads the submission from the context and checks that it
// can still be decided.
func (rc *reconcileContext) requirePending(submissionID string) (*domain.PaymentSubmission, error) {
	sub := rc.submission(submissionID)
	if sub == nil {
		return nil, errors.NotFound("submission not found").WithDetail("submission_id=" + submissionID)
	}
	if err := sub.EnsurePending(); err != nil {
		return nil, err
	}
	return sub, nil
}

//Personal.AI order the ending
