package membership

// ComputeStatus derives a membership's status from its installments and
// submissions.  It is pure and total; callers persist the result only when it
// differs from the stored status.
//
// With installments, the settled set decides: all settled gives validated
// (requiresValidation) or paid, some settled gives partial, none gives
// pending.  Under requiresValidation only validated installments count toward
// "all", while paid ones still make the membership partial.
//
// Without installments the membership is tracked by submissions: a validated
// submission gives validated (requiresValidation) or paid.  Submissions have
// no paid state, so validated is the only settling status there.
func ComputeStatus(m *Membership, installments []*Installment, submissions []*PaymentSubmission) MembershipStatus {
	requiresValidation := m.PlanSnapshot.RequiresValidation

	if len(installments) == 0 {
		for _, s := range submissions {
			if s.Status == SubmissionValidated {
				if requiresValidation {
					return StatusValidated
				}
				return StatusPaid
			}
		}
		return StatusPending
	}

	var settled, validated int
	for _, inst := range installments {
		if inst.Status.IsSettled() {
			settled++
		}
		if inst.Status == InstallmentValidated {
			validated++
		}
	}

	switch {
	case requiresValidation && validated == len(installments):
		return StatusValidated
	case !requiresValidation && settled == len(installments):
		return StatusPaid
	case settled > 0:
		return StatusPartial
	default:
		return StatusPending
	}
}

//Personal.AI order the ending
