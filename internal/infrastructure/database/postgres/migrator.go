// Package postgres manages the PostgreSQL connection pool and the schema
// migrations of the membership tables.  Migrations run at API server startup
// and can be driven from the CLI for rollbacks, status checks and recovery
// from a dirty state.
package postgres

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // Postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // File source driver
	"github.com/turtacn/ClubDues/internal/config"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
)

// MigrationState is the schema version as recorded by golang-migrate.
type MigrationState struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// Migrator runs migrations against a database URL.
type Migrator struct {
	dbURL      string
	sourceURL  string
	logger     logging.Logger
	newMigrate func(sourceURL, dbURL string) (migrateRunner, error)
}

// migrateRunner is the subset of *migrate.Migrate used here.
type migrateRunner interface {
	Up() error
	Steps(n int) error
	Version() (uint, bool, error)
	Force(version int) error
	Close() (error, error)
}

// NewMigrator builds a Migrator from the database config.
func NewMigrator(cfg config.DatabaseConfig, logger logging.Logger) *Migrator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Migrator{
		dbURL:     buildDSN(cfg),
		sourceURL: sourceURL(cfg.MigrationPath),
		logger:    logger,
		newMigrate: func(src, db string) (migrateRunner, error) {
			return migrate.New(src, db)
		},
	}
}

// sourceURL turns a directory into a file:// source URL.
func sourceURL(path string) string {
	if strings.HasPrefix(path, "file://") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return "file://" + filepath.ToSlash(path)
}

func (m *Migrator) open() (migrateRunner, error) {
	r, err := m.newMigrate(m.sourceURL, m.dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return r, nil
}

func closeRunner(r migrateRunner) {
	_, _ = r.Close()
}

// Up applies all pending migrations.  No pending migrations is not an error.
func (m *Migrator) Up() error {
	r, err := m.open()
	if err != nil {
		return err
	}
	defer closeRunner(r)

	if err := r.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.logger.Info("no pending migrations")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	m.logger.Info("migrations applied")
	return nil
}

// Down rolls back steps migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	r, err := m.open()
	if err != nil {
		return err
	}
	defer closeRunner(r)

	if err := r.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	m.logger.Info("migrations rolled back", logging.Int("steps", steps))
	return nil
}

// Status returns the applied version.  A database without migrations reports
// version 0.
func (m *Migrator) Status() (MigrationState, error) {
	r, err := m.open()
	if err != nil {
		return MigrationState{}, err
	}
	defer closeRunner(r)

	version, dirty, err := r.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return MigrationState{}, nil
		}
		return MigrationState{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return MigrationState{Version: version, Dirty: dirty}, nil
}

// Force sets the recorded version without running migrations.  It is the
// recovery path for a dirty state after a failed migration.
func (m *Migrator) Force(version int) error {
	r, err := m.open()
	if err != nil {
		return err
	}
	defer closeRunner(r)

	if err := r.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	m.logger.Warn("migration version forced", logging.Int("version", version))
	return nil
}

//Personal.AI order the ending
