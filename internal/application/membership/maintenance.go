package membership

import (
	"context"
	"fmt"
	"strings"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

const maxSweepErrors = 20

// Reconcile recomputes the status and rollup of one membership from its
// stored installments and submissions, writing only what changed.
func (s *serviceImpl) Reconcile(ctx context.Context, membershipID string) (*ReconcileResult, error) {
	if membershipID == "" {
		return nil, errors.InvalidParam("membership_id is required")
	}
	rc, err := loadReconcileContext(ctx, s.store, membershipID, s.now())
	if err != nil {
		return nil, err
	}
	previous := rc.membership.Status

	statusChanged, err := rc.reconcileStatus(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	rollupChanged, err := rc.recomputeRollup(ctx)
	s.metrics.ObserveRollup(time.Since(start))
	if err != nil {
		return nil, err
	}

	if statusChanged {
		s.metrics.ObserveStatusChange(previous, rc.membership.Status)
		s.logger.Info("membership status reconciled",
			logging.MembershipID(membershipID),
			logging.String("from", previous.String()),
			logging.String("to", rc.membership.Status.String()))
		if err := s.publish(ctx, EventStatusChanged, rc.membership, "", map[string]string{
			"previous_status": previous.String(),
		}); err != nil {
			s.metrics.ObserveSideEffectFailure(SideEffectEvent)
		}
	}

	return &ReconcileResult{
		MembershipID:   membershipID,
		PreviousStatus: previous,
		Status:         rc.membership.Status,
		StatusChanged:  statusChanged,
		Rollup:         rc.membership.Rollup,
		RollupChanged:  rollupChanged,
	}, nil
}

// RecomputeRollup refreshes only the rollup counters.
func (s *serviceImpl) RecomputeRollup(ctx context.Context, membershipID string) (*RollupResult, error) {
	if membershipID == "" {
		return nil, errors.InvalidParam("membership_id is required")
	}
	m, err := s.store.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	installments, err := s.store.Installments().ListByMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	rc := &reconcileContext{store: s.store, now: s.now(), membership: m, installments: installments}

	start := time.Now()
	changed, err := rc.recomputeRollup(ctx)
	s.metrics.ObserveRollup(time.Since(start))
	if err != nil {
		return nil, err
	}
	return &RollupResult{MembershipID: membershipID, Rollup: rc.membership.Rollup, Changed: changed}, nil
}

// SetPayLink opens or closes a pay link by hand.  Closing requires a reason
// because it is shown to the payer.
func (s *serviceImpl) SetPayLink(ctx context.Context, req *SetPayLinkRequest) (*PayLinkResult, error) {
	if req == nil || req.MembershipID == "" {
		return nil, errors.InvalidParam("membership_id is required")
	}
	state := domain.Open()
	if !req.Enabled {
		reason := strings.TrimSpace(req.Reason)
		if reason == "" {
			return nil, errors.InvalidParam("a reason is required to disable the pay link")
		}
		state = domain.Closed(reason)
	}

	m, err := s.store.Memberships().GetByID(ctx, req.MembershipID)
	if err != nil {
		return nil, err
	}
	rc := &reconcileContext{store: s.store, now: s.now(), membership: m}
	if err := rc.applyPayLink(ctx, state); err != nil {
		return nil, err
	}
	s.logger.Info("pay link updated",
		logging.MembershipID(m.ID),
		logging.Bool("enabled", state.Enabled))
	return &PayLinkResult{Membership: rc.membership, PayURL: s.payURL(rc.membership)}, nil
}

// RotatePayCode replaces the pay code, invalidating previously shared links.
func (s *serviceImpl) RotatePayCode(ctx context.Context, membershipID string) (*PayLinkResult, error) {
	if membershipID == "" {
		return nil, errors.InvalidParam("membership_id is required")
	}
	m, err := s.store.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	code := s.cfg.NewPayCode()
	now := s.now()
	if err := s.store.Memberships().UpdatePayCode(ctx, m.ID, code, now); err != nil {
		return nil, err
	}
	m.PayCode = code
	m.UpdatedAt = now
	s.logger.Info("pay code rotated", logging.MembershipID(m.ID))
	return &PayLinkResult{Membership: m, PayURL: s.payURL(m)}, nil
}

// Sweep reconciles every membership in id order.  Individual failures are
// counted and the sweep continues; only a listing failure or a cancelled
// context stops it.
func (s *serviceImpl) Sweep(ctx context.Context, req *SweepRequest) (*SweepReport, error) {
	batch := s.cfg.SweepBatchSize
	limit := 0
	if req != nil {
		if req.BatchSize > 0 {
			batch = req.BatchSize
		}
		limit = req.Limit
	}

	start := time.Now()
	report := &SweepReport{}
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ids, err := s.store.Memberships().ListIDsAfter(ctx, after, batch)
		if err != nil {
			return report, err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if limit > 0 && report.Scanned >= limit {
				s.finishSweep(report, start)
				return report, nil
			}
			report.Scanned++
			res, err := s.Reconcile(ctx, id)
			if err != nil {
				report.Failed++
				if len(report.Errors) < maxSweepErrors {
					report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", id, err))
				}
				s.logger.Warn("sweep reconcile failed", logging.MembershipID(id), logging.Err(err))
				continue
			}
			if res.StatusChanged {
				report.StatusChanged++
			}
			if res.RollupChanged {
				report.RollupChanged++
			}
		}
		after = ids[len(ids)-1]
		if len(ids) < batch {
			break
		}
	}
	s.finishSweep(report, start)
	return report, nil
}

func (s *serviceImpl) finishSweep(report *SweepReport, start time.Time) {
	d := time.Since(start)
	s.metrics.ObserveSweep(report, d)
	s.logger.Info("sweep finished",
		logging.Int("scanned", report.Scanned),
		logging.Int("status_changed", report.StatusChanged),
		logging.Int("rollup_changed", report.RollupChanged),
		logging.Int("failed", report.Failed),
		logging.Duration("elapsed", d))
}

//Personal.AI order the ending
