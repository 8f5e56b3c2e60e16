package membership

import (
	"context"

	"github.com/shopspring/decimal"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// SuggestForSubmission proposes installments for a stored submission's
// reported amount.
func (s *serviceImpl) SuggestForSubmission(ctx context.Context, submissionID string) (*Suggestion, error) {
	if submissionID == "" {
		return nil, errors.InvalidParam("submission_id is required")
	}
	sub, err := s.store.Submissions().GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	installments, err := s.store.Installments().ListByMembership(ctx, sub.MembershipID)
	if err != nil {
		return nil, err
	}
	sg := suggest(sub.MembershipID, sub.AmountReported, installments)
	sg.SubmissionID = sub.ID
	return sg, nil
}

// SuggestForAmount proposes installments for an arbitrary amount.
func (s *serviceImpl) SuggestForAmount(ctx context.Context, membershipID string, amount string) (*Suggestion, error) {
	if membershipID == "" {
		return nil, errors.InvalidParam("membership_id is required")
	}
	reported, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, errors.Newf(errors.ErrCodeValidation, "amount %q is not a number", amount)
	}
	if reported.IsNegative() {
		return nil, errors.InvalidParam("amount cannot be negative")
	}
	if _, err := s.store.Memberships().GetByID(ctx, membershipID); err != nil {
		return nil, err
	}
	installments, err := s.store.Installments().ListByMembership(ctx, membershipID)
	if err != nil {
		return nil, err
	}
	return suggest(membershipID, reported, installments), nil
}

func suggest(membershipID string, reported decimal.Decimal, installments []*domain.Installment) *Suggestion {
	ids := domain.SuggestInstallments(reported, installments)
	if ids == nil {
		ids = []string{}
	}
	total := domain.SumAmounts(ids, installments)
	return &Suggestion{
		MembershipID:   membershipID,
		ReportedAmount: reported,
		InstallmentIDs: ids,
		SuggestedTotal: total,
		ExactMatch:     len(ids) > 0 && total.Equal(reported),
	}
}

//Personal.AI order the ending
