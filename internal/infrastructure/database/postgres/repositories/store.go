package repositories

import (
	"context"
	"database/sql"

	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// Store groups the membership repositories behind one transaction boundary.
type Store struct {
	conn *postgres.Connection
	tx   *sql.Tx
	log  logging.Logger

	memberships  *postgresMembershipRepo
	installments *postgresInstallmentRepo
	submissions  *postgresSubmissionRepo
}

// NewStore returns a Store running on the connection pool.
func NewStore(conn *postgres.Connection, log logging.Logger) *Store {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return newStore(conn, nil, log)
}

func newStore(conn *postgres.Connection, tx *sql.Tx, log logging.Logger) *Store {
	base := baseRepo{conn: conn, tx: tx, log: log}
	return &Store{
		conn:         conn,
		tx:           tx,
		log:          log,
		memberships:  &postgresMembershipRepo{baseRepo: base},
		installments: &postgresInstallmentRepo{baseRepo: base},
		submissions:  &postgresSubmissionRepo{baseRepo: base},
	}
}

func (s *Store) Memberships() domain.MembershipRepository   { return s.memberships }
func (s *Store) Installments() domain.InstallmentRepository { return s.installments }
func (s *Store) Submissions() domain.SubmissionRepository   { return s.submissions }

// WithTx runs fn in a transaction.  A Store already bound to a transaction
// joins it instead of nesting.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	tx, err := s.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return mapError(err, "failed to begin transaction")
	}
	if err := fn(newStore(s.conn, tx, s.log)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error("transaction rollback failed", logging.Err(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}
	return nil
}

//Personal.AI order the ending
