package membership

import (
	"context"
	"strings"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
	"github.com/turtacn/ClubDues/pkg/types/common"
)

// Register creates a membership for an associate and season.  For regular
// seasons an existing membership is returned instead of creating a second
// one; the "all" season skips that check.
func (s *serviceImpl) Register(ctx context.Context, req *RegisterRequest) (*RegisterResult, error) {
	if req == nil {
		return nil, errors.InvalidParam("request must not be nil")
	}
	req.AssociateID = strings.TrimSpace(req.AssociateID)
	req.PlanID = strings.TrimSpace(req.PlanID)
	if req.AssociateID == "" {
		return nil, errors.InvalidParam("associate_id is required")
	}
	if req.PlanID == "" {
		return nil, errors.InvalidParam("plan_id is required")
	}
	if err := domain.ValidateSeason(req.Season); err != nil {
		return nil, err
	}

	if domain.GuardsDuplicates(req.Season) {
		existing, err := s.store.Memberships().FindByAssociateSeason(ctx, req.AssociateID, req.Season)
		if err != nil {
			return nil, err
		}
		if best := domain.PickExisting(existing); best != nil {
			installments, err := s.store.Installments().ListByMembership(ctx, best.ID)
			if err != nil {
				return nil, err
			}
			s.logger.Info("reusing existing membership",
				logging.MembershipID(best.ID),
				logging.String("associate_id", req.AssociateID),
				logging.String("season", req.Season),
				logging.Int("candidates", len(existing)))
			s.metrics.ObserveRegistration(false)
			return &RegisterResult{
				Membership:   best,
				Installments: installments,
				Created:      false,
				PayURL:       s.payURL(best),
				Outcome:      newOutcome(),
			}, nil
		}
	} else {
		s.logger.Warn("duplicate check skipped for season",
			logging.String("associate_id", req.AssociateID),
			logging.String("season", req.Season))
	}

	plan, err := s.plans.GetPlan(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	m := &domain.Membership{
		ID:             s.cfg.NewID(),
		AssociateID:    req.AssociateID,
		Season:         req.Season,
		PlanID:         plan.PlanID,
		PlanSnapshot:   *plan,
		Status:         domain.StatusPending,
		TotalAmount:    plan.TotalAmount,
		Currency:       plan.Currency,
		PayCode:        s.cfg.NewPayCode(),
		PayLinkEnabled: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.CustomAmount != nil {
		if !plan.AllowCustomAmount {
			return nil, errors.InvalidParam("plan does not allow a custom amount").WithDetail("plan_id=" + plan.PlanID)
		}
		if !req.CustomAmount.IsPositive() {
			return nil, errors.InvalidParam("custom_amount must be positive")
		}
		m.TotalAmount.Decimal = *req.CustomAmount
		m.TotalAmount.Valid = true
	}

	installments, err := domain.BuildSchedule(m, s.cfg.NewID, now)
	if err != nil {
		return nil, err
	}
	m.Rollup = domain.ComputeRollup(installments)
	m.Status = domain.ComputeStatus(m, installments, nil)

	err = s.store.WithTx(ctx, func(tx domain.Store) error {
		if err := tx.Memberships().Create(ctx, m); err != nil {
			return err
		}
		if len(installments) == 0 {
			return nil
		}
		return tx.Installments().CreateBatch(ctx, installments)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("membership registered",
		logging.MembershipID(m.ID),
		logging.String("associate_id", m.AssociateID),
		logging.String("season", m.Season),
		logging.Int("installments", len(installments)))
	s.metrics.ObserveRegistration(true)

	outcome := newOutcome()
	outcome.record(SideEffectEvent, s.publish(ctx, EventMembershipRegistered, m, "", map[string]string{
		"associate_id": m.AssociateID,
		"season":       m.Season,
		"plan_id":      m.PlanID,
	}))
	s.finishOutcome("register", m, outcome)

	return &RegisterResult{
		Membership:   m,
		Installments: installments,
		Created:      true,
		PayURL:       s.payURL(m),
		Outcome:      outcome,
	}, nil
}

// GetMembership returns a membership with its installments and submissions.
func (s *serviceImpl) GetMembership(ctx context.Context, membershipID string) (*MembershipDetail, error) {
	if membershipID == "" {
		return nil, errors.InvalidParam("membership_id is required")
	}
	rc, err := loadReconcileContext(ctx, s.store, membershipID, s.now())
	if err != nil {
		return nil, err
	}
	return &MembershipDetail{
		Membership:   rc.membership,
		Installments: rc.installments,
		Submissions:  rc.submissions,
		PayURL:       s.payURL(rc.membership),
	}, nil
}

// ListMemberships pages through memberships.
func (s *serviceImpl) ListMemberships(ctx context.Context, req *ListRequest) (common.PageResponse[*domain.Membership], error) {
	if req == nil {
		req = &ListRequest{}
	}
	page := req.Pagination.Normalize()
	if err := page.Validate(); err != nil {
		return common.PageResponse[*domain.Membership]{}, errors.InvalidParam(err.Error())
	}
	filter := domain.ListFilter{
		AssociateID: req.AssociateID,
		Season:      req.Season,
		HasPending:  req.HasPending,
		Limit:       page.PageSize,
		Offset:      page.Offset(),
	}
	if req.Season != "" {
		if err := domain.ValidateSeason(req.Season); err != nil {
			return common.PageResponse[*domain.Membership]{}, err
		}
	}
	if req.Status != "" {
		st, err := domain.ParseMembershipStatus(req.Status)
		if err != nil {
			return common.PageResponse[*domain.Membership]{}, err
		}
		filter.Status = st
	}
	items, total, err := s.store.Memberships().List(ctx, filter)
	if err != nil {
		return common.PageResponse[*domain.Membership]{}, err
	}
	return common.NewPageResponse(items, total, page), nil
}

// PayURL returns the public pay link of a membership.
func (s *serviceImpl) PayURL(ctx context.Context, membershipID string) (string, error) {
	if s.cfg.PublicBaseURL == "" {
		return "", errors.New(errors.ErrCodeInvalidConfig, "server.public_base_url is not configured")
	}
	m, err := s.store.Memberships().GetByID(ctx, membershipID)
	if err != nil {
		return "", err
	}
	return s.payURL(m), nil
}

//Personal.AI order the ending
