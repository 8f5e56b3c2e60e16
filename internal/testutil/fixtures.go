package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// MemPlanCatalog is an in-memory domain.PlanCatalog.
type MemPlanCatalog struct {
	mu    sync.Mutex
	plans map[string]domain.PlanSnapshot
}

// NewMemPlanCatalog returns a catalog holding plans.
func NewMemPlanCatalog(plans ...domain.PlanSnapshot) *MemPlanCatalog {
	c := &MemPlanCatalog{plans: make(map[string]domain.PlanSnapshot)}
	for _, p := range plans {
		c.plans[p.PlanID] = p
	}
	return c
}

func (c *MemPlanCatalog) GetPlan(_ context.Context, planID string) (*domain.PlanSnapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.plans[planID]
	if !ok {
		return nil, errors.NotFound("plan not found").WithDetail("plan_id=" + planID)
	}
	return &p, nil
}

// InstallmentPlan builds a plan with one template entry per amount, due on
// the 15th of consecutive months starting in January.
func InstallmentPlan(planID string, requiresValidation bool, amounts ...int64) domain.PlanSnapshot {
	total := decimal.Zero
	tmpl := make([]domain.InstallmentTemplate, len(amounts))
	for i, a := range amounts {
		amt := decimal.NewFromInt(a)
		total = total.Add(amt)
		tmpl[i] = domain.InstallmentTemplate{
			N:           i + 1,
			DueMonthDay: fmt.Sprintf("%02d-15", i+1),
			Amount:      amt,
		}
	}
	return domain.PlanSnapshot{
		PlanID:             planID,
		Name:               "Plan " + planID,
		RequiresValidation: requiresValidation,
		AllowPartial:       true,
		TotalAmount:        decimal.NewNullDecimal(total),
		Currency:           "EUR",
		Installments:       tmpl,
	}
}

// LumpSumPlan builds a plan without installments.
func LumpSumPlan(planID string, requiresValidation bool, total int64) domain.PlanSnapshot {
	return domain.PlanSnapshot{
		PlanID:             planID,
		Name:               "Plan " + planID,
		RequiresValidation: requiresValidation,
		TotalAmount:        decimal.NewNullDecimal(decimal.NewFromInt(total)),
		Currency:           "EUR",
	}
}

// SequentialIDs returns a generator yielding prefix-1, prefix-2, ...
func SequentialIDs(prefix string) func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%03d", prefix, n)
	}
}

//Personal.AI order the ending
