package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

const membershipColumns = `id, associate_id, season, plan_id, plan_snapshot, status, total_amount, currency,
	pay_code, pay_link_enabled, pay_link_disabled_reason,
	installments_total, installments_settled, installments_pending, next_unpaid_n, next_unpaid_due_date,
	created_at, updated_at`

type postgresMembershipRepo struct {
	baseRepo
}

// NewPostgresMembershipRepo returns a MembershipRepository on the pool.
func NewPostgresMembershipRepo(conn *postgres.Connection, log logging.Logger) domain.MembershipRepository {
	return &postgresMembershipRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func membershipNotFound(id string) error {
	return errors.New(errors.ErrCodeMembershipNotFound, "membership not found").WithDetail("membership_id=" + id)
}

func (r *postgresMembershipRepo) Create(ctx context.Context, m *domain.Membership) error {
	query := `
		INSERT INTO memberships (` + membershipColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	created := orNow(m.CreatedAt)
	updated := m.UpdatedAt
	if updated.IsZero() {
		updated = created
	}
	_, err := r.executor().ExecContext(ctx, query,
		m.ID, m.AssociateID, m.Season, m.PlanID, m.PlanSnapshot, m.Status, m.TotalAmount, m.Currency,
		m.PayCode, m.PayLinkEnabled, m.PayLinkDisabledReason,
		m.InstallmentsTotal, m.InstallmentsSettled, m.InstallmentsPending, m.NextUnpaidN, m.NextUnpaidDueDate,
		created, updated,
	)
	if err != nil {
		return mapError(err, "failed to create membership")
	}
	m.CreatedAt, m.UpdatedAt = created, updated
	return nil
}

func (r *postgresMembershipRepo) GetByID(ctx context.Context, id string) (*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE id = $1`
	m, err := scanMembership(r.executor().QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, membershipNotFound(id)
	}
	if err != nil {
		return nil, mapError(err, "failed to get membership")
	}
	return m, nil
}

func (r *postgresMembershipRepo) FindByAssociateSeason(ctx context.Context, associateID, season string) ([]*domain.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships
		WHERE associate_id = $1 AND season = $2
		ORDER BY created_at, id`
	return r.queryMemberships(ctx, query, associateID, season)
}

func (r *postgresMembershipRepo) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Membership, int64, error) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.AssociateID != "" {
		add("associate_id = $%d", filter.AssociateID)
	}
	if filter.Season != "" {
		add("season = $%d", filter.Season)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.HasPending != nil {
		if *filter.HasPending {
			conds = append(conds, "installments_pending > 0")
		} else {
			conds = append(conds, "installments_pending = 0")
		}
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := r.executor().QueryRowContext(ctx, "SELECT COUNT(*) FROM memberships"+where, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err, "failed to count memberships")
	}

	query := `SELECT ` + membershipColumns + ` FROM memberships` + where + " ORDER BY id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	items, err := r.queryMemberships(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *postgresMembershipRepo) ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT id FROM memberships WHERE id > $1 ORDER BY id LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, mapError(err, "failed to page membership ids")
	}
	defer rows.Close()

	ids := make([]string, 0, limit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err, "failed to scan membership id")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to page membership ids")
	}
	return ids, nil
}

func (r *postgresMembershipRepo) UpdateStatus(ctx context.Context, id string, status domain.MembershipStatus, at time.Time) error {
	res, err := r.executor().ExecContext(ctx,
		`UPDATE memberships SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return mapError(err, "failed to update membership status")
	}
	return expectOne(res, membershipNotFound(id))
}

func (r *postgresMembershipRepo) UpdateRollup(ctx context.Context, id string, rollup domain.Rollup, at time.Time) error {
	res, err := r.executor().ExecContext(ctx, `
		UPDATE memberships SET
			installments_total = $2,
			installments_settled = $3,
			installments_pending = $4,
			next_unpaid_n = $5,
			next_unpaid_due_date = $6,
			updated_at = $7
		WHERE id = $1`,
		id, rollup.InstallmentsTotal, rollup.InstallmentsSettled, rollup.InstallmentsPending,
		rollup.NextUnpaidN, rollup.NextUnpaidDueDate, at,
	)
	if err != nil {
		return mapError(err, "failed to update membership rollup")
	}
	return expectOne(res, membershipNotFound(id))
}

func (r *postgresMembershipRepo) UpdatePayLink(ctx context.Context, id string, state domain.PayLinkState, at time.Time) error {
	res, err := r.executor().ExecContext(ctx,
		`UPDATE memberships SET pay_link_enabled = $2, pay_link_disabled_reason = $3, updated_at = $4 WHERE id = $1`,
		id, state.Enabled, state.Reason, at)
	if err != nil {
		return mapError(err, "failed to update pay link")
	}
	return expectOne(res, membershipNotFound(id))
}

func (r *postgresMembershipRepo) UpdatePayCode(ctx context.Context, id, payCode string, at time.Time) error {
	res, err := r.executor().ExecContext(ctx,
		`UPDATE memberships SET pay_code = $2, updated_at = $3 WHERE id = $1`, id, payCode, at)
	if err != nil {
		return mapError(err, "failed to update pay code")
	}
	return expectOne(res, membershipNotFound(id))
}

func (r *postgresMembershipRepo) queryMemberships(ctx context.Context, query string, args ...interface{}) ([]*domain.Membership, error) {
	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "failed to query memberships")
	}
	defer rows.Close()

	out := []*domain.Membership{}
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan membership")
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to iterate memberships")
	}
	return out, nil
}

// Scanners
func scanMembership(row scanner) (*domain.Membership, error) {
	m := &domain.Membership{}
	var (
		reason  sql.NullString
		nextN   sql.NullInt64
		nextDue sql.NullString
	)
	err := row.Scan(
		&m.ID, &m.AssociateID, &m.Season, &m.PlanID, &m.PlanSnapshot, &m.Status, &m.TotalAmount, &m.Currency,
		&m.PayCode, &m.PayLinkEnabled, &reason,
		&m.InstallmentsTotal, &m.InstallmentsSettled, &m.InstallmentsPending, &nextN, &nextDue,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.PayLinkDisabledReason = nullString(reason)
	m.NextUnpaidN = nullInt(nextN)
	m.NextUnpaidDueDate = nullString(nextDue)
	return m, nil
}

//Personal.AI order the ending
