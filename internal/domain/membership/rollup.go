package membership

// ComputeRollup derives the membership counters from its installments.
// nextUnpaid is the pending installment with the smallest ISO due date;
// installments without a due date never qualify, and equal dates resolve to
// the lower n.
func ComputeRollup(installments []*Installment) Rollup {
	r := Rollup{InstallmentsTotal: len(installments)}

	var next *Installment
	for _, inst := range installments {
		if inst.Status.IsSettled() {
			r.InstallmentsSettled++
			continue
		}
		if inst.DueDate == nil {
			continue
		}
		if next == nil ||
			*inst.DueDate < *next.DueDate ||
			(*inst.DueDate == *next.DueDate && inst.N < next.N) {
			next = inst
		}
	}
	r.InstallmentsPending = r.InstallmentsTotal - r.InstallmentsSettled

	if next != nil {
		n := next.N
		due := *next.DueDate
		r.NextUnpaidN = &n
		r.NextUnpaidDueDate = &due
	}
	return r
}

// HasPending reports whether any installment is still pending.
func HasPending(installments []*Installment) bool {
	for _, inst := range installments {
		if inst.Status == InstallmentPending {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
