package repositories

import (
	"context"
	"database/sql"
	"encoding/json"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

type postgresPlanCatalog struct {
	baseRepo
}

// NewPostgresPlanCatalog reads active plans from membership_plans.
func NewPostgresPlanCatalog(conn *postgres.Connection, log logging.Logger) domain.PlanCatalog {
	return &postgresPlanCatalog{baseRepo: baseRepo{conn: conn, log: log}}
}

func (r *postgresPlanCatalog) GetPlan(ctx context.Context, planID string) (*domain.PlanSnapshot, error) {
	query := `
		SELECT id, name, requires_validation, allow_partial, allow_custom_amount, total_amount, currency, installment_template
		FROM membership_plans
		WHERE id = $1 AND active
	`
	p := &domain.PlanSnapshot{}
	var template []byte
	err := r.executor().QueryRowContext(ctx, query, planID).Scan(
		&p.PlanID, &p.Name, &p.RequiresValidation, &p.AllowPartial, &p.AllowCustomAmount,
		&p.TotalAmount, &p.Currency, &template,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("plan not found").WithDetail("plan_id=" + planID)
	}
	if err != nil {
		return nil, mapError(err, "failed to get plan")
	}
	if len(template) > 0 {
		if err := json.Unmarshal(template, &p.Installments); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "invalid installment template").WithDetail("plan_id=" + planID)
		}
	}
	return p, nil
}

//Personal.AI order the ending
