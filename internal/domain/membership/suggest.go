package membership

import (
	"sort"

	"github.com/shopspring/decimal"
)

// SuggestInstallments proposes which pending installments a lump payment of
// reported likely covers.  It walks pending installments by ascending n and
// takes each one that still fits under reported, skipping the ones that do
// not.  When nothing fits it falls back to the earliest pending installment.
// It is a deterministic heuristic, not a subset-sum solver.
//
// Installments that are not pending are ignored.
func SuggestInstallments(reported decimal.Decimal, installments []*Installment) []string {
	pending := make([]*Installment, 0, len(installments))
	for _, inst := range installments {
		if inst.Status == InstallmentPending {
			pending = append(pending, inst)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.SliceStable(pending, func(i, j int) bool { return pending[i].N < pending[j].N })

	acc := decimal.Zero
	var ids []string
	for _, inst := range pending {
		next := acc.Add(inst.Amount)
		if next.LessThanOrEqual(reported) {
			ids = append(ids, inst.ID)
			acc = next
		}
	}

	if len(ids) == 0 {
		return []string{pending[0].ID}
	}
	return ids
}

// SumAmounts adds the amounts of the installments whose ids are listed.
// Unknown ids contribute nothing.
func SumAmounts(ids []string, installments []*Installment) decimal.Decimal {
	byID := make(map[string]*Installment, len(installments))
	for _, inst := range installments {
		byID[inst.ID] = inst
	}
	total := decimal.Zero
	for _, id := range ids {
		if inst, ok := byID[id]; ok {
			total = total.Add(inst.Amount)
		}
	}
	return total
}

// DedupeIDs removes empty and repeated ids, keeping first occurrence order.
func DedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

//Personal.AI order the ending
