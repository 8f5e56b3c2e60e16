package repositories

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

const installmentColumns = `id, membership_id, season, n, due_date, amount, status, payment_submission_id, created_at, updated_at`

type postgresInstallmentRepo struct {
	baseRepo
}

// NewPostgresInstallmentRepo returns an InstallmentRepository on the pool.
func NewPostgresInstallmentRepo(conn *postgres.Connection, log logging.Logger) domain.InstallmentRepository {
	return &postgresInstallmentRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func (r *postgresInstallmentRepo) CreateBatch(ctx context.Context, installments []*domain.Installment) error {
	query := `
		INSERT INTO membership_installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	for _, inst := range installments {
		created := orNow(inst.CreatedAt)
		_, err := r.executor().ExecContext(ctx, query,
			inst.ID, inst.MembershipID, inst.Season, inst.N, inst.DueDate, inst.Amount, inst.Status,
			inst.PaymentSubmissionID, created, created,
		)
		if err != nil {
			return mapError(err, "failed to create installment")
		}
		inst.CreatedAt, inst.UpdatedAt = created, created
	}
	return nil
}

func (r *postgresInstallmentRepo) ListByMembership(ctx context.Context, membershipID string) ([]*domain.Installment, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT `+installmentColumns+` FROM membership_installments WHERE membership_id = $1 ORDER BY n`, membershipID)
	if err != nil {
		return nil, mapError(err, "failed to list installments")
	}
	defer rows.Close()

	out := []*domain.Installment{}
	for rows.Next() {
		inst, err := scanInstallment(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan installment")
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to iterate installments")
	}
	return out, nil
}

// MarkValidated settles a pending installment.  The status predicate makes a
// concurrent second settlement fail instead of overwriting the back-reference.
func (r *postgresInstallmentRepo) MarkValidated(ctx context.Context, id, submissionID string, at time.Time) error {
	res, err := r.executor().ExecContext(ctx, `
		UPDATE membership_installments
		SET status = 'validated', payment_submission_id = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'`,
		id, submissionID, at)
	if err != nil {
		return mapError(err, "failed to validate installment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read affected rows")
	}
	if n > 0 {
		return nil
	}

	var status string
	err = r.executor().QueryRowContext(ctx, `SELECT status FROM membership_installments WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return errors.NotFound("installment not found").WithDetail("installment_id=" + id)
	}
	if err != nil {
		return mapError(err, "failed to read installment status")
	}
	return errors.Newf(errors.ErrCodeInstallmentApplied, "installment already %s", status).WithDetail("installment_id=" + id)
}

// Scanners
func scanInstallment(row scanner) (*domain.Installment, error) {
	inst := &domain.Installment{}
	var due, subID sql.NullString
	err := row.Scan(
		&inst.ID, &inst.MembershipID, &inst.Season, &inst.N, &due, &inst.Amount, &inst.Status,
		&subID, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inst.DueDate = nullString(due)
	inst.PaymentSubmissionID = nullString(subID)
	return inst, nil
}

//Personal.AI order the ending
