package membership

import (
	"context"
	"strings"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// Submission results reported to metrics.
const (
	submissionAccepted    = "accepted"
	submissionRejected    = "rejected"
	submissionUploadError = "upload_error"
)

// OpenPayLink checks the pay code and returns what the payer may see.
func (s *serviceImpl) OpenPayLink(ctx context.Context, membershipID, code string) (*PayLinkView, error) {
	if membershipID == "" || code == "" {
		return nil, errors.New(errors.ErrCodeInvalidPayCode, "payment link is invalid")
	}
	rc, err := loadReconcileContext(ctx, s.store, membershipID, s.now())
	if err != nil {
		return nil, err
	}
	m := rc.membership
	if err := domain.CheckPayCode(m, code); err != nil {
		s.logger.Warn("pay link opened with wrong code", logging.MembershipID(m.ID))
		return nil, err
	}
	return &PayLinkView{
		MembershipID:          m.ID,
		Season:                m.Season,
		PlanName:              m.PlanSnapshot.Name,
		Status:                m.Status,
		TotalAmount:           m.TotalAmount,
		Currency:              m.Currency,
		PayLinkEnabled:        m.PayLinkEnabled,
		PayLinkDisabledReason: m.PayLinkDisabledReason,
		PendingInstallments:   rc.pendingInstallments(),
		Rollup:                m.Rollup,
	}, nil
}

// SubmitPayment records a payer's claim.  The gate is re-checked against
// fresh state before the write; the proof is uploaded after the submission
// exists so a storage failure leaves an error row an admin can follow up.
func (s *serviceImpl) SubmitPayment(ctx context.Context, req *SubmitPaymentRequest) (*SubmitPaymentResult, error) {
	if err := s.validateSubmitRequest(req); err != nil {
		s.metrics.ObserveSubmission(submissionRejected)
		return nil, err
	}

	rc, err := loadReconcileContext(ctx, s.store, req.MembershipID, s.now())
	if err != nil {
		return nil, err
	}
	m := rc.membership
	if err := domain.CheckPayLink(m, req.Code); err != nil {
		s.metrics.ObserveSubmission(submissionRejected)
		return nil, err
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = m.Currency
	}
	if !strings.EqualFold(currency, m.Currency) {
		s.metrics.ObserveSubmission(submissionRejected)
		return nil, errors.Newf(errors.ErrCodeValidation, "currency %s does not match membership currency %s", currency, m.Currency)
	}

	var installmentID *string
	if req.InstallmentID != nil && *req.InstallmentID != "" {
		id := *req.InstallmentID
		if len(rc.installments) == 0 {
			s.metrics.ObserveSubmission(submissionRejected)
			return nil, errors.InvalidParam("membership has no installments").WithDetail("installment_id=" + id)
		}
		inst := rc.installment(id)
		if inst == nil {
			return nil, errors.NotFound("installment not found").WithDetail("installment_id=" + id)
		}
		if inst.Status != domain.InstallmentPending {
			return nil, errors.Newf(errors.ErrCodeInstallmentApplied, "installment %d is already %s", inst.N, inst.Status)
		}
		installmentID = &id
	}

	now := rc.now
	sub := &domain.PaymentSubmission{
		ID:             s.cfg.NewID(),
		MembershipID:   m.ID,
		InstallmentID:  installmentID,
		PayerName:      strings.TrimSpace(req.PayerName),
		AmountReported: req.AmountReported,
		Currency:       m.Currency,
		Method:         req.Method,
		Note:           req.Note,
		Status:         domain.SubmissionPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.Submissions().Create(ctx, sub); err != nil {
		return nil, err
	}

	if req.Proof != nil {
		if err := s.attachProof(ctx, sub, req.Proof); err != nil {
			s.metrics.ObserveSubmission(submissionUploadError)
			return nil, err
		}
	}

	s.logger.Info("payment submitted",
		logging.MembershipID(m.ID),
		logging.SubmissionID(sub.ID),
		logging.String("amount", sub.AmountReported.String()))
	s.metrics.ObserveSubmission(submissionAccepted)

	outcome := newOutcome()
	if err := rc.applyPayLink(ctx, domain.Closed(s.cfg.UnderReviewMessage)); err != nil {
		outcome.record(SideEffectPayLink, err)
	}
	outcome.record(SideEffectEvent, s.publish(ctx, EventSubmissionCreated, m, sub.ID, map[string]string{
		"amount_reported": sub.AmountReported.String(),
		"currency":        sub.Currency,
	}))
	s.finishOutcome("submit_payment", m, outcome)

	return &SubmitPaymentResult{Submission: sub, Outcome: outcome}, nil
}

// attachProof uploads the proof and stores its reference.  On failure the
// submission is moved to error with the failure code in its admin note.
func (s *serviceImpl) attachProof(ctx context.Context, sub *domain.PaymentSubmission, proof *ProofUpload) error {
	ref, err := s.proofs.UploadProof(ctx, sub.MembershipID, sub.ID, proof)
	if err == nil && ref == nil {
		err = errors.New(errors.ErrCodeStorageError, "proof storage returned no reference")
	}
	if err == nil {
		err = s.store.Submissions().AttachProof(ctx, sub.ID, *ref, s.now())
		if err == nil {
			sub.Proof = *ref
			return nil
		}
	}

	note := "upload_error:" + errors.GetCode(err).String()
	if markErr := s.store.Submissions().MarkError(ctx, sub.ID, note, s.now()); markErr != nil {
		s.logger.Error("failed to mark submission as errored",
			logging.SubmissionID(sub.ID),
			logging.Err(markErr))
	} else {
		sub.Status = domain.SubmissionError
		sub.AdminNote = &note
	}
	s.logger.Warn("proof upload failed",
		logging.MembershipID(sub.MembershipID),
		logging.SubmissionID(sub.ID),
		logging.Err(err))
	return errors.Wrap(err, errors.ErrCodeProofUpload, "proof upload failed").WithDetail("submission_id=" + sub.ID)
}

func (s *serviceImpl) validateSubmitRequest(req *SubmitPaymentRequest) error {
	if req == nil {
		return errors.InvalidParam("request must not be nil")
	}
	if req.MembershipID == "" || req.Code == "" {
		return errors.New(errors.ErrCodeInvalidPayCode, "payment link is invalid")
	}
	if strings.TrimSpace(req.PayerName) == "" {
		return errors.InvalidParam("payer_name is required")
	}
	if !req.AmountReported.IsPositive() {
		return errors.InvalidParam("amount_reported must be positive")
	}
	if p := req.Proof; p != nil {
		if p.Body == nil || p.Size <= 0 {
			return errors.InvalidParam("proof file is empty")
		}
		if p.Size > s.cfg.MaxProofBytes {
			return errors.Newf(errors.ErrCodeValidation, "proof file exceeds %d bytes", s.cfg.MaxProofBytes)
		}
		if !s.contentTypeAllowed(p.ContentType) {
			return errors.Newf(errors.ErrCodeValidation, "proof content type %q is not allowed", p.ContentType)
		}
	}
	return nil
}

func (s *serviceImpl) contentTypeAllowed(ct string) bool {
	if len(s.cfg.AllowedContentTypes) == 0 {
		return true
	}
	ct = strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	for _, allowed := range s.cfg.AllowedContentTypes {
		if ct == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
