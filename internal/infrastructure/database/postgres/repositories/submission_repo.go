package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

const submissionColumns = `id, membership_id, installment_id, payer_name, amount_reported, currency, method,
	proof_url, proof_path, proof_content_type, note, admin_note, status,
	applied_installment_ids, applied_total, decided_at, created_at, updated_at`

type postgresSubmissionRepo struct {
	baseRepo
}

// NewPostgresSubmissionRepo returns a SubmissionRepository on the pool.
func NewPostgresSubmissionRepo(conn *postgres.Connection, log logging.Logger) domain.SubmissionRepository {
	return &postgresSubmissionRepo{baseRepo: baseRepo{conn: conn, log: log}}
}

func submissionNotFound(id string) error {
	return errors.NotFound("submission not found").WithDetail("submission_id=" + id)
}

func (r *postgresSubmissionRepo) Create(ctx context.Context, s *domain.PaymentSubmission) error {
	query := `
		INSERT INTO membership_payment_submissions (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	created := orNow(s.CreatedAt)
	_, err := r.executor().ExecContext(ctx, query,
		s.ID, s.MembershipID, s.InstallmentID, s.PayerName, s.AmountReported, s.Currency, s.Method,
		s.Proof.URL, s.Proof.Path, s.Proof.ContentType, s.Note, s.AdminNote, s.Status,
		pq.Array(s.AppliedInstallmentIDs), s.AppliedTotal, s.DecidedAt, created, created,
	)
	if err != nil {
		return mapError(err, "failed to create payment submission")
	}
	s.CreatedAt, s.UpdatedAt = created, created
	return nil
}

func (r *postgresSubmissionRepo) GetByID(ctx context.Context, id string) (*domain.PaymentSubmission, error) {
	s, err := scanSubmission(r.executor().QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM membership_payment_submissions WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, submissionNotFound(id)
	}
	if err != nil {
		return nil, mapError(err, "failed to get payment submission")
	}
	return s, nil
}

func (r *postgresSubmissionRepo) ListByMembership(ctx context.Context, membershipID string) ([]*domain.PaymentSubmission, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT `+submissionColumns+` FROM membership_payment_submissions WHERE membership_id = $1 ORDER BY created_at, id`,
		membershipID)
	if err != nil {
		return nil, mapError(err, "failed to list payment submissions")
	}
	defer rows.Close()

	out := []*domain.PaymentSubmission{}
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, mapError(err, "failed to scan payment submission")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "failed to iterate payment submissions")
	}
	return out, nil
}

// Decide writes a terminal decision on a pending submission.  Zero affected
// rows means the submission is missing or was decided concurrently.
func (r *postgresSubmissionRepo) Decide(ctx context.Context, id string, d domain.SubmissionDecision) error {
	res, err := r.executor().ExecContext(ctx, `
		UPDATE membership_payment_submissions SET
			status = $2,
			admin_note = $3,
			applied_installment_ids = $4,
			applied_total = $5,
			decided_at = $6,
			updated_at = $6
		WHERE id = $1 AND status = 'pending'`,
		id, d.Status, d.AdminNote, pq.Array(d.AppliedInstallmentIDs), d.AppliedTotal, d.DecidedAt,
	)
	if err != nil {
		return mapError(err, "failed to record submission decision")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read affected rows")
	}
	if n > 0 {
		return nil
	}

	var status string
	err = r.executor().QueryRowContext(ctx, `SELECT status FROM membership_payment_submissions WHERE id = $1`, id).Scan(&status)
	if err == sql.ErrNoRows {
		return submissionNotFound(id)
	}
	if err != nil {
		return mapError(err, "failed to read submission status")
	}
	return errors.Newf(errors.ErrCodeSubmissionDecided, "submission already %s", status).WithDetail("submission_id=" + id)
}

func (r *postgresSubmissionRepo) MarkError(ctx context.Context, id, adminNote string, at time.Time) error {
	res, err := r.executor().ExecContext(ctx,
		`UPDATE membership_payment_submissions SET status = 'error', admin_note = $2, updated_at = $3 WHERE id = $1`,
		id, adminNote, at)
	if err != nil {
		return mapError(err, "failed to mark payment submission as error")
	}
	return expectOne(res, submissionNotFound(id))
}

func (r *postgresSubmissionRepo) AttachProof(ctx context.Context, id string, proof domain.ProofRef, at time.Time) error {
	res, err := r.executor().ExecContext(ctx, `
		UPDATE membership_payment_submissions
		SET proof_url = $2, proof_path = $3, proof_content_type = $4, updated_at = $5
		WHERE id = $1`,
		id, proof.URL, proof.Path, proof.ContentType, at)
	if err != nil {
		return mapError(err, "failed to attach proof")
	}
	return expectOne(res, submissionNotFound(id))
}

// Scanners
func scanSubmission(row scanner) (*domain.PaymentSubmission, error) {
	s := &domain.PaymentSubmission{}
	var (
		instID, adminNote sql.NullString
		applied           pq.StringArray
		decidedAt         sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.MembershipID, &instID, &s.PayerName, &s.AmountReported, &s.Currency, &s.Method,
		&s.Proof.URL, &s.Proof.Path, &s.Proof.ContentType, &s.Note, &adminNote, &s.Status,
		&applied, &s.AppliedTotal, &decidedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.InstallmentID = nullString(instID)
	s.AdminNote = nullString(adminNote)
	if applied != nil {
		s.AppliedInstallmentIDs = []string(applied)
	}
	s.DecidedAt = nullTime(decidedAt)
	return s, nil
}

//Personal.AI order the ending
