package membership

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

func TestScenario_LumpPaymentSuggestedAndValidated(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-validated")
	sub := f.submit(t, reg.Membership, 2000)
	ctx := context.Background()

	sg, err := f.svc.SuggestForSubmission(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, installmentIDs(reg.Installments, 1, 2), sg.InstallmentIDs)
	assert.True(t, sg.SuggestedTotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, sg.ExactMatch)

	res, err := f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: sg.InstallmentIDs, AdminNote: "bank ok"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusPartial, res.Membership.Status)
	assert.Equal(t, domain.StatusPending, res.PreviousStatus)
	assert.True(t, res.StatusChanged)
	assert.True(t, res.Membership.PayLinkEnabled)
	assert.Nil(t, res.Membership.PayLinkDisabledReason)
	assert.False(t, res.Outcome.Degraded())

	stored := f.store.Membership(reg.Membership.ID)
	assert.Equal(t, domain.StatusPartial, stored.Status)
	assert.Equal(t, 2, stored.InstallmentsSettled)
	assert.Equal(t, 1, stored.InstallmentsPending)
	require.NotNil(t, stored.NextUnpaidN)
	assert.Equal(t, 3, *stored.NextUnpaidN)

	assert.Contains(t, f.events.types(), EventSubmissionValidated)
	assert.Contains(t, f.events.types(), EventStatusChanged)
}

func TestValidate_AppliedInstallmentsAreValidatedAndSummed(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 2000)
	ids := installmentIDs(reg.Installments, 3, 1, 3)

	_, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: ids})
	require.NoError(t, err)

	stored := f.store.Submission(sub.ID)
	require.NotNil(t, stored)
	assert.Equal(t, domain.SubmissionValidated, stored.Status)
	assert.Equal(t, installmentIDs(reg.Installments, 3, 1), stored.AppliedInstallmentIDs)
	require.True(t, stored.AppliedTotal.Valid)

	sum := decimal.Zero
	for _, id := range stored.AppliedInstallmentIDs {
		inst := f.store.Installment(id)
		assert.Equal(t, domain.InstallmentValidated, inst.Status)
		require.NotNil(t, inst.PaymentSubmissionID)
		assert.Equal(t, sub.ID, *inst.PaymentSubmissionID)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, stored.AppliedTotal.Decimal.Equal(sum))
	require.NotNil(t, stored.DecidedAt)
	assert.Equal(t, f.now, *stored.DecidedAt)
}

func TestScenario_AllInstallmentsValidatedClosesLink(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-validated")
	ctx := context.Background()

	first := f.submit(t, reg.Membership, 1000)
	_, err := f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: first.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	require.NoError(t, err)

	second := f.submit(t, reg.Membership, 2000)
	res, err := f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: second.ID, InstallmentIDs: installmentIDs(reg.Installments, 2, 3)})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusValidated, res.Membership.Status)
	assert.False(t, res.Membership.PayLinkEnabled)
	require.NotNil(t, res.Membership.PayLinkDisabledReason)
	assert.Equal(t, "Membership dues are up to date.", *res.Membership.PayLinkDisabledReason)

	stored := f.store.Membership(reg.Membership.ID)
	assert.Equal(t, domain.StatusValidated, stored.Status)
	assert.False(t, stored.PayLinkEnabled)
	assert.Equal(t, 0, stored.InstallmentsPending)
	assert.Nil(t, stored.NextUnpaidN)
}

func TestScenario_RejectReopensLink(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-validated")
	sub := f.submit(t, reg.Membership, 1000)
	require.False(t, f.store.Membership(reg.Membership.ID).PayLinkEnabled)

	res, err := f.svc.RejectSubmission(context.Background(), &RejectRequest{SubmissionID: sub.ID, AdminNote: "no transfer found"})
	require.NoError(t, err)

	assert.True(t, res.Membership.PayLinkEnabled)
	assert.Nil(t, res.Membership.PayLinkDisabledReason)
	assert.Equal(t, domain.StatusPending, res.Membership.Status)
	assert.False(t, res.StatusChanged)

	stored := f.store.Submission(sub.ID)
	assert.Equal(t, domain.SubmissionRejected, stored.Status)
	require.NotNil(t, stored.AdminNote)
	assert.Equal(t, "no transfer found", *stored.AdminNote)
	assert.Nil(t, stored.AppliedInstallmentIDs)
	assert.Contains(t, f.events.types(), EventSubmissionRejected)
}

func TestReject_ReopensLinkEvenWhenManuallyClosed(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	_, err := f.svc.SetPayLink(context.Background(), &SetPayLinkRequest{MembershipID: reg.Membership.ID, Reason: "on hold"})
	require.NoError(t, err)

	_, err = f.svc.RejectSubmission(context.Background(), &RejectRequest{SubmissionID: sub.ID})
	require.NoError(t, err)

	stored := f.store.Membership(reg.Membership.ID)
	assert.True(t, stored.PayLinkEnabled)
	assert.Nil(t, stored.PayLinkDisabledReason)
}

func TestDecisions_RequirePendingSubmission(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	ctx := context.Background()

	_, err := f.svc.RejectSubmission(ctx, &RejectRequest{SubmissionID: sub.ID})
	require.NoError(t, err)

	_, err = f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	assert.True(t, errors.IsCode(err, errors.ErrCodeSubmissionDecided))

	_, err = f.svc.RejectSubmission(ctx, &RejectRequest{SubmissionID: sub.ID})
	assert.Equal(t, errors.KindInvalidState, errors.KindOf(err))

	_, err = f.svc.RejectSubmission(ctx, &RejectRequest{SubmissionID: "missing"})
	assert.True(t, errors.IsNotFound(err))
}

func TestValidate_InputErrors(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	ctx := context.Background()

	settle := f.submit(t, reg.Membership, 1000)
	_, err := f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: settle.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	require.NoError(t, err)

	sub := f.submit(t, reg.Membership, 1000)

	_, err = f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: sub.ID})
	assert.True(t, errors.IsValidation(err), "no installments selected")

	_, err = f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: []string{"elsewhere"}})
	assert.True(t, errors.IsNotFound(err))

	_, err = f.svc.ValidateSubmission(ctx, &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInstallmentApplied))

	_, err = f.svc.ValidateSubmission(ctx, nil)
	assert.True(t, errors.IsValidation(err))

	assert.Equal(t, domain.SubmissionPending, f.store.Submission(sub.ID).Status)
}

func TestValidate_UsesInstallmentReferencedAtSubmission(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	second := reg.Installments[1].ID
	res, err := f.svc.SubmitPayment(context.Background(), &SubmitPaymentRequest{
		MembershipID: reg.Membership.ID, Code: reg.Membership.PayCode, PayerName: "Ana",
		AmountReported: decimal.NewFromInt(1000), InstallmentID: &second,
	})
	require.NoError(t, err)

	_, err = f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: res.Submission.ID})
	require.NoError(t, err)

	assert.Equal(t, domain.InstallmentValidated, f.store.Installment(second).Status)
	assert.Equal(t, []string{second}, f.store.Submission(res.Submission.ID).AppliedInstallmentIDs)
}

func TestValidate_SubmissionBasedMembership(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "lump-validated")
	require.Empty(t, reg.Installments)
	sub := f.submit(t, reg.Membership, 3000)

	res, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusValidated, res.Membership.Status)
	assert.False(t, res.Membership.PayLinkEnabled)
	stored := f.store.Submission(sub.ID)
	assert.Nil(t, stored.AppliedInstallmentIDs)
	assert.False(t, stored.AppliedTotal.Valid)
}

func TestValidate_SubmissionBasedMembershipRejectsInstallmentIDs(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "lump-validated")
	sub := f.submit(t, reg.Membership, 3000)

	_, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{
		SubmissionID: sub.ID, InstallmentIDs: []string{"not-an-installment-of-anything"},
	})
	assert.True(t, errors.IsValidation(err), "got %v", err)

	stored := f.store.Submission(sub.ID)
	assert.Equal(t, domain.SubmissionPending, stored.Status)
	assert.Nil(t, stored.AppliedInstallmentIDs)
}

func TestValidate_SequentialInstallmentFailureKeepsSubmissionPending(t *testing.T) {
	f := newFixture(t, func(c *ServiceConfig) { c.AtomicDecisions = false })
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	first := reg.Installments[0].ID
	f.store.Fail["installments.MarkValidated"] = errors.New(errors.ErrCodeDatabaseError, "timeout")

	_, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: []string{first}})
	require.Error(t, err)
	assert.Equal(t, domain.SubmissionPending, f.store.Submission(sub.ID).Status)
	assert.Nil(t, f.store.Submission(sub.ID).AppliedInstallmentIDs)
	assert.Equal(t, domain.InstallmentPending, f.store.Installment(first).Status)
	assert.Equal(t, 0, f.store.Writes("submissions.Decide"))

	delete(f.store.Fail, "installments.MarkValidated")
	res, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: []string{first}})
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionValidated, res.Submission.Status)
	assert.Equal(t, domain.InstallmentValidated, f.store.Installment(first).Status)
}

func TestValidate_SequentialRetryAfterDecideFailure(t *testing.T) {
	f := newFixture(t, func(c *ServiceConfig) { c.AtomicDecisions = false })
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 2000)
	ids := installmentIDs(reg.Installments, 1, 2)
	f.store.Fail["submissions.Decide"] = errors.New(errors.ErrCodeDatabaseError, "timeout")

	_, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: ids})
	require.Error(t, err)
	assert.Equal(t, domain.SubmissionPending, f.store.Submission(sub.ID).Status)
	// Installments settled by the interrupted attempt point at this submission.
	for _, id := range ids {
		inst := f.store.Installment(id)
		assert.Equal(t, domain.InstallmentValidated, inst.Status)
		require.NotNil(t, inst.PaymentSubmissionID)
		assert.Equal(t, sub.ID, *inst.PaymentSubmissionID)
	}

	delete(f.store.Fail, "submissions.Decide")
	res, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: ids})
	require.NoError(t, err)
	stored := f.store.Submission(sub.ID)
	assert.Equal(t, domain.SubmissionValidated, stored.Status)
	assert.Equal(t, ids, stored.AppliedInstallmentIDs)
	assert.True(t, stored.AppliedTotal.Decimal.Equal(decimal.NewFromInt(2000)))
	assert.Equal(t, domain.StatusPartial, res.Membership.Status)
}

func TestValidate_InstallmentSettledByOtherSubmissionConflicts(t *testing.T) {
	f := newFixture(t, func(c *ServiceConfig) { c.AtomicDecisions = false })
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	first := reg.Installments[0].ID
	require.NoError(t, f.store.Installments().MarkValidated(context.Background(), first, "someone-else", time.Now()))

	_, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: []string{first}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInstallmentApplied), "got %v", err)
	assert.Equal(t, domain.SubmissionPending, f.store.Submission(sub.ID).Status)
}

func TestValidate_AtomicModeRollsBackOnStatusWriteFailure(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	f.store.Fail["memberships.UpdateStatus"] = errors.New(errors.ErrCodeDatabaseError, "deadlock detected")

	_, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	require.Error(t, err)

	assert.Equal(t, domain.SubmissionPending, f.store.Submission(sub.ID).Status)
	assert.Equal(t, domain.InstallmentPending, f.store.Installment(reg.Installments[0].ID).Status)
	assert.Equal(t, domain.StatusPending, f.store.Membership(reg.Membership.ID).Status)
}

func TestValidate_SequentialModeReportsDegradedSideEffects(t *testing.T) {
	f := newFixture(t, func(c *ServiceConfig) { c.AtomicDecisions = false })
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	f.store.Fail["memberships.UpdateStatus"] = errors.New(errors.ErrCodePermissionDenied, "permission denied")

	res, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	require.NoError(t, err)

	assert.True(t, res.Outcome.PrimaryOK)
	assert.True(t, res.Outcome.Failed(SideEffectStatus))
	assert.False(t, res.Outcome.Failed(SideEffectPayLink))
	assert.Equal(t, domain.SubmissionValidated, f.store.Submission(sub.ID).Status)
	// Status is stale until the next reconcile.
	assert.Equal(t, domain.StatusPending, f.store.Membership(reg.Membership.ID).Status)

	delete(f.store.Fail, "memberships.UpdateStatus")
	rec, err := f.svc.Reconcile(context.Background(), reg.Membership.ID)
	require.NoError(t, err)
	assert.True(t, rec.StatusChanged)
	assert.Equal(t, domain.StatusPartial, rec.Status)
}

func TestValidate_RollupFailureRequestsReconcile(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	f.store.Fail["memberships.UpdateRollup"] = errors.New(errors.ErrCodeDatabaseError, "timeout")

	res, err := f.svc.ValidateSubmission(context.Background(), &ValidateRequest{SubmissionID: sub.ID, InstallmentIDs: installmentIDs(reg.Installments, 1)})
	require.NoError(t, err)

	assert.True(t, res.Outcome.Failed(SideEffectRollup))
	assert.Equal(t, domain.StatusPartial, f.store.Membership(reg.Membership.ID).Status)
	assert.Contains(t, f.events.types(), EventReconcileRequested)
}

func TestValidate_UsesDecisionLock(t *testing.T) {
	f := newFixture(t)
	locker := &countingLocker{}
	svc, err := NewService(f.store, f.plans, f.proofs, f.events, locker, nil, nil, ServiceConfig{AtomicDecisions: true})
	require.NoError(t, err)
	f.svc = svc

	reg := f.register(t, "three-paid")
	sub := f.submit(t, reg.Membership, 1000)
	_, err = f.svc.RejectSubmission(context.Background(), &RejectRequest{SubmissionID: sub.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{reg.Membership.ID}, locker.acquired)
	assert.Equal(t, 1, locker.released)

	locker.err = errors.New(errors.ErrCodeLockNotAcquired, "busy")
	sub2 := f.submit(t, reg.Membership, 1000)
	_, err = f.svc.RejectSubmission(context.Background(), &RejectRequest{SubmissionID: sub2.ID})
	assert.Equal(t, errors.KindConflict, errors.KindOf(err))
	assert.Equal(t, domain.SubmissionPending, f.store.Submission(sub2.ID).Status)
}

func TestSuggestForAmount(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	ctx := context.Background()

	sg, err := f.svc.SuggestForAmount(ctx, reg.Membership.ID, "500")
	require.NoError(t, err)
	assert.Equal(t, installmentIDs(reg.Installments, 1), sg.InstallmentIDs)
	assert.False(t, sg.ExactMatch)

	_, err = f.svc.SuggestForAmount(ctx, reg.Membership.ID, "abc")
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.SuggestForAmount(ctx, "missing", "10")
	assert.True(t, errors.IsNotFound(err))

	lump := f.register(t, "lump-validated")
	sg, err = f.svc.SuggestForAmount(ctx, lump.Membership.ID, "10")
	require.NoError(t, err)
	assert.Empty(t, sg.InstallmentIDs)
}

//Personal.AI order the ending
