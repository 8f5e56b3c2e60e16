package redis

import (
	"context"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
)

// PlanCatalog is a read-through cache in front of another catalog.  Plans
// change rarely and registration only needs a snapshot, so a short TTL is
// enough to pick up edits.
type PlanCatalog struct {
	next  domain.PlanCatalog
	cache *Cache
	ttl   time.Duration
}

func NewPlanCatalog(next domain.PlanCatalog, cache *Cache, ttl time.Duration) *PlanCatalog {
	return &PlanCatalog{next: next, cache: cache, ttl: ttl}
}

func (p *PlanCatalog) GetPlan(ctx context.Context, planID string) (*domain.PlanSnapshot, error) {
	var snap domain.PlanSnapshot
	err := p.cache.GetOrLoad(ctx, "plan:"+planID, &snap, p.ttl, func(ctx context.Context) (interface{}, error) {
		return p.next.GetPlan(ctx, planID)
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// Invalidate drops a cached plan.
func (p *PlanCatalog) Invalidate(ctx context.Context, planID string) error {
	return p.cache.Delete(ctx, "plan:"+planID)
}

//Personal.AI order the ending
