package membership

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

func TestReconcile_IsIdempotent(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	m := reg.Membership
	// Drift the stored status and rollup away from the installments.
	settled := *reg.Installments[0]
	settled.Status = domain.InstallmentPaid
	f.store.Seed(nil, []*domain.Installment{&settled}, nil)
	ctx := context.Background()

	first, err := f.svc.Reconcile(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, first.StatusChanged)
	assert.True(t, first.RollupChanged)
	assert.Equal(t, domain.StatusPartial, first.Status)
	assert.Equal(t, 1, first.Rollup.InstallmentsSettled)

	statusWrites := f.store.Writes("memberships.UpdateStatus")
	rollupWrites := f.store.Writes("memberships.UpdateRollup")

	second, err := f.svc.Reconcile(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, second.StatusChanged)
	assert.False(t, second.RollupChanged)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, statusWrites, f.store.Writes("memberships.UpdateStatus"))
	assert.Equal(t, rollupWrites, f.store.Writes("memberships.UpdateRollup"))
}

func TestReconcile_Errors(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Reconcile(context.Background(), "")
	assert.True(t, errors.IsValidation(err))

	_, err = f.svc.Reconcile(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestRecomputeRollup_InvariantHolds(t *testing.T) {
	f := newFixture(t)
	reg := f.register(t, "three-paid")
	inst := *reg.Installments[1]
	inst.Status = domain.InstallmentValidated
	f.store.Seed(nil, []*domain.Installment{&inst}, nil)

	res, err := f.svc.RecomputeRollup(context.Background(), reg.Membership.ID)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	r := res.Rollup
	assert.Equal(t, r.InstallmentsTotal, r.InstallmentsSettled+r.InstallmentsPending)
	require.NotNil(t, r.NextUnpaidDueDate)
	assert.Equal(t, "2026-01-15", *r.NextUnpaidDueDate)

	again, err := f.svc.RecomputeRollup(context.Background(), reg.Membership.ID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
}

func TestSetPayLink(t *testing.T) {
	f := newFixture(t)
	m := f.register(t, "three-paid").Membership
	ctx := context.Background()

	_, err := f.svc.SetPayLink(ctx, &SetPayLinkRequest{MembershipID: m.ID, Enabled: false, Reason: "  "})
	assert.True(t, errors.IsValidation(err))

	res, err := f.svc.SetPayLink(ctx, &SetPayLinkRequest{MembershipID: m.ID, Enabled: false, Reason: "Season closed"})
	require.NoError(t, err)
	assert.False(t, res.Membership.PayLinkEnabled)

	res, err = f.svc.SetPayLink(ctx, &SetPayLinkRequest{MembershipID: m.ID, Enabled: true})
	require.NoError(t, err)
	assert.True(t, res.Membership.PayLinkEnabled)
	assert.Nil(t, f.store.Membership(m.ID).PayLinkDisabledReason)
}

func TestRotatePayCode_InvalidatesOldLink(t *testing.T) {
	f := newFixture(t)
	m := f.register(t, "three-paid").Membership
	ctx := context.Background()

	res, err := f.svc.RotatePayCode(ctx, m.ID)
	require.NoError(t, err)
	assert.NotEqual(t, m.PayCode, res.Membership.PayCode)
	assert.Contains(t, res.PayURL, "code="+res.Membership.PayCode)

	_, err = f.svc.OpenPayLink(ctx, m.ID, m.PayCode)
	assert.Equal(t, errors.KindInvalidCode, errors.KindOf(err))
	_, err = f.svc.OpenPayLink(ctx, m.ID, res.Membership.PayCode)
	assert.NoError(t, err)

	url, err := f.svc.PayURL(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, res.PayURL, url)
}

func TestSweep_ReconcilesAllAndContinuesPastFailures(t *testing.T) {
	f := newFixture(t)
	var regs []*RegisterResult
	for i := 0; i < 5; i++ {
		res, err := f.svc.Register(context.Background(), &RegisterRequest{
			AssociateID: fmt.Sprintf("a-%d", i), Season: "2026", PlanID: "three-paid",
		})
		require.NoError(t, err)
		regs = append(regs, res)
	}
	for _, r := range regs[:2] {
		inst := *r.Installments[0]
		inst.Status = domain.InstallmentPaid
		f.store.Seed(nil, []*domain.Installment{&inst}, nil)
	}

	report, err := f.svc.Sweep(context.Background(), &SweepRequest{BatchSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, report.Scanned)
	assert.Equal(t, 2, report.StatusChanged)
	assert.Equal(t, 2, report.RollupChanged)
	assert.Zero(t, report.Failed)

	f.store.Fail["installments.ListByMembership"] = errors.New(errors.ErrCodeDatabaseError, "gone")
	report, err = f.svc.Sweep(context.Background(), &SweepRequest{BatchSize: 10, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 3, report.Failed)
	assert.Len(t, report.Errors, 3)
}

func TestSweep_StopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)
	f.register(t, "three-paid")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.svc.Sweep(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, report.Scanned)
}

//Personal.AI order the ending
