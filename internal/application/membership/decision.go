package membership

import (
	"context"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// Decision labels reported to metrics and logs.
const (
	decisionValidated = "validated"
	decisionRejected  = "rejected"
)

// ValidateSubmission approves a pending submission, settles the selected
// installments and reconciles the membership.
func (s *serviceImpl) ValidateSubmission(ctx context.Context, req *ValidateRequest) (*DecisionResult, error) {
	if req == nil || req.SubmissionID == "" {
		return nil, errors.InvalidParam("submission_id is required")
	}

	return s.withDecision(ctx, req.SubmissionID, decisionValidated, func(rc *reconcileContext, sub *domain.PaymentSubmission) (*decisionPlan, error) {
		ids := domain.DedupeIDs(req.InstallmentIDs)
		if len(ids) == 0 && sub.InstallmentID != nil && *sub.InstallmentID != "" {
			ids = []string{*sub.InstallmentID}
		}

		plan := &decisionPlan{
			decision: domain.SubmissionDecision{
				Status:    domain.SubmissionValidated,
				AdminNote: strPtr(req.AdminNote),
				DecidedAt: rc.now,
			},
			payLink: func(rc *reconcileContext) domain.PayLinkState {
				return domain.PayLinkAfterValidation(rc.installments, s.cfg.UpToDateMessage)
			},
		}

		if len(rc.installments) == 0 {
			// Submission-based membership: nothing to apply.
			if len(domain.DedupeIDs(req.InstallmentIDs)) > 0 {
				return nil, errors.InvalidParam("membership has no installments to apply")
			}
			return plan, nil
		}

		if len(ids) == 0 {
			return nil, errors.InvalidParam("at least one installment must be selected")
		}
		for _, id := range ids {
			inst := rc.installment(id)
			if inst == nil {
				return nil, errors.NotFound("installment not found").WithDetail("installment_id=" + id)
			}
			if inst.Status.IsSettled() {
				// Left over from an interrupted attempt on this same submission.
				if inst.PaymentSubmissionID != nil && *inst.PaymentSubmissionID == sub.ID {
					continue
				}
				return nil, errors.Newf(errors.ErrCodeInstallmentApplied, "installment %d is already %s", inst.N, inst.Status).
					WithDetail("installment_id=" + id)
			}
			plan.installmentIDs = append(plan.installmentIDs, id)
		}
		plan.decision.AppliedInstallmentIDs = ids
		plan.decision.AppliedTotal.Decimal = domain.SumAmounts(ids, rc.installments)
		plan.decision.AppliedTotal.Valid = true
		return plan, nil
	})
}

// RejectSubmission rejects a pending submission and reopens the pay link so
// the payer can submit again.
func (s *serviceImpl) RejectSubmission(ctx context.Context, req *RejectRequest) (*DecisionResult, error) {
	if req == nil || req.SubmissionID == "" {
		return nil, errors.InvalidParam("submission_id is required")
	}

	return s.withDecision(ctx, req.SubmissionID, decisionRejected, func(rc *reconcileContext, _ *domain.PaymentSubmission) (*decisionPlan, error) {
		return &decisionPlan{
			decision: domain.SubmissionDecision{
				Status:    domain.SubmissionRejected,
				AdminNote: strPtr(req.AdminNote),
				DecidedAt: rc.now,
			},
			payLink: func(*reconcileContext) domain.PayLinkState { return domain.Open() },
		}, nil
	})
}

// decisionPlan is what a decision will write.
type decisionPlan struct {
	decision       domain.SubmissionDecision
	installmentIDs []string
	payLink        func(rc *reconcileContext) domain.PayLinkState
}

type planFunc func(rc *reconcileContext, sub *domain.PaymentSubmission) (*decisionPlan, error)

// withDecision loads the submission's membership, builds the plan, applies it
// and runs the follow-up side effects shared by both decisions.
func (s *serviceImpl) withDecision(ctx context.Context, submissionID, label string, build planFunc) (*DecisionResult, error) {
	head, err := s.store.Submissions().GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if err := head.EnsurePending(); err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, head.MembershipID)
	if err != nil {
		return nil, err
	}
	defer release()

	rc, err := loadReconcileContext(ctx, s.store, head.MembershipID, s.now())
	if err != nil {
		return nil, err
	}
	sub, err := rc.requirePending(submissionID)
	if err != nil {
		return nil, err
	}
	plan, err := build(rc, sub)
	if err != nil {
		return nil, err
	}

	previous := rc.membership.Status
	outcome, err := s.applyDecision(ctx, rc, sub.ID, plan)
	if err != nil {
		s.logger.Error("submission decision failed",
			logging.String("decision", label),
			logging.MembershipID(rc.membership.ID),
			logging.SubmissionID(sub.ID),
			logging.Err(err))
		return nil, err
	}

	rollupStart := time.Now()
	if _, err := rc.recomputeRollup(ctx); err != nil {
		outcome.record(SideEffectRollup, err)
		outcome.record(SideEffectEvent, s.publish(ctx, EventReconcileRequested, rc.membership, sub.ID, map[string]string{
			"reason": "rollup_failed",
		}))
	}
	s.metrics.ObserveRollup(time.Since(rollupStart))

	evtType := EventSubmissionValidated
	if label == decisionRejected {
		evtType = EventSubmissionRejected
	}
	outcome.record(SideEffectEvent, s.publish(ctx, evtType, rc.membership, sub.ID, nil))
	changed := previous != rc.membership.Status
	if changed {
		s.metrics.ObserveStatusChange(previous, rc.membership.Status)
		outcome.record(SideEffectEvent, s.publish(ctx, EventStatusChanged, rc.membership, sub.ID, map[string]string{
			"previous_status": previous.String(),
		}))
	}

	s.metrics.ObserveDecision(label, outcome.Degraded())
	s.finishOutcome(label, rc.membership, outcome)
	s.logger.Info("submission decided",
		logging.String("decision", label),
		logging.MembershipID(rc.membership.ID),
		logging.SubmissionID(sub.ID),
		logging.String("status", rc.membership.Status.String()),
		logging.Bool("degraded", outcome.Degraded()))

	return &DecisionResult{
		Submission:     rc.submission(sub.ID),
		Membership:     rc.membership,
		Installments:   rc.installments,
		PreviousStatus: previous,
		StatusChanged:  changed,
		Outcome:        outcome,
	}, nil
}

// applyDecision writes the installments and submission, then reconciles the
// status and pay link.  In atomic mode every write shares one transaction and
// any failure aborts the call.  Otherwise only the submission and installment
// writes are fatal and the rest are recorded on the returned Outcome.
func (s *serviceImpl) applyDecision(ctx context.Context, rc *reconcileContext, submissionID string, plan *decisionPlan) (*Outcome, error) {
	outcome := newOutcome()

	if s.cfg.AtomicDecisions {
		err := s.store.WithTx(ctx, func(tx domain.Store) error {
			txrc := rc.bind(tx)
			if err := writeDecision(ctx, txrc, submissionID, plan); err != nil {
				return err
			}
			if err := txrc.reloadChildren(ctx); err != nil {
				return err
			}
			if _, err := txrc.reconcileStatus(ctx); err != nil {
				return err
			}
			if err := txrc.applyPayLink(ctx, plan.payLink(txrc)); err != nil {
				return err
			}
			rc.adopt(txrc)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return outcome, nil
	}

	if err := writeDecision(ctx, rc, submissionID, plan); err != nil {
		return nil, err
	}
	if err := rc.reloadChildren(ctx); err != nil {
		outcome.record(SideEffectStatus, err)
		outcome.record(SideEffectPayLink, err)
		return outcome, nil
	}
	if _, err := rc.reconcileStatus(ctx); err != nil {
		outcome.record(SideEffectStatus, err)
	}
	if err := rc.applyPayLink(ctx, plan.payLink(rc)); err != nil {
		outcome.record(SideEffectPayLink, err)
	}
	return outcome, nil
}

// writeDecision settles the installments before deciding the submission, so
// a failed write leaves the submission pending and the call can be retried.
func writeDecision(ctx context.Context, rc *reconcileContext, submissionID string, plan *decisionPlan) error {
	for _, id := range plan.installmentIDs {
		if err := rc.store.Installments().MarkValidated(ctx, id, submissionID, rc.now); err != nil {
			return err
		}
	}
	return rc.store.Submissions().Decide(ctx, submissionID, plan.decision)
}

//Personal.AI order the ending
