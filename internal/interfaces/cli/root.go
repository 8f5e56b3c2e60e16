// Package cli implements clubdues, the operator command line.  Commands talk
// to the database directly through the membership service, so they work
// while the API server is down.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/ClubDues/internal/app"
	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/config"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Output formats.
const (
	OutputText  = "text"
	OutputJSON  = "json"
	OutputTable = "table"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Timeout      time.Duration
}

// Migrations is the schema migration surface used by the migrate commands.
type Migrations interface {
	Up() error
	Down(steps int) error
	Status() (postgres.MigrationState, error)
	Force(version int) error
}

// Dependencies lets main and tests choose how configuration, logging and
// the service are built.
type Dependencies struct {
	LoadConfig     func(path string) (*config.Config, error)
	NewLogger      func(level string) (logging.Logger, error)
	OpenService    func(cfg *config.Config, log logging.Logger) (appmembership.Service, func() error, error)
	OpenMigrations func(cfg *config.Config, log logging.Logger) Migrations
}

// DefaultDependencies connects to the configured PostgreSQL, Redis and
// Kafka.  Proof storage is not opened; the CLI never receives uploads.
func DefaultDependencies() Dependencies {
	return Dependencies{
		LoadConfig: config.LoadOrEnv,
		NewLogger: func(level string) (logging.Logger, error) {
			return logging.NewLogger(logging.LogConfig{
				Level:            level,
				Format:           "console",
				OutputPaths:      []string{"stderr"},
				ErrorOutputPaths: []string{"stderr"},
			})
		},
		OpenService: func(cfg *config.Config, log logging.Logger) (appmembership.Service, func() error, error) {
			rt, err := app.Open(cfg, log, app.Options{})
			if err != nil {
				return nil, nil, err
			}
			return rt.Service, rt.Close, nil
		},
		OpenMigrations: func(cfg *config.Config, log logging.Logger) Migrations {
			return postgres.NewMigrator(cfg.Database, log)
		},
	}
}

// CLIContext carries initialised dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	OutputFormat string
	Timeout      time.Duration

	deps    Dependencies
	svc     appmembership.Service
	closeFn func() error
}

// Service opens the membership service on first use.
func (c *CLIContext) Service() (appmembership.Service, error) {
	if c.svc != nil {
		return c.svc, nil
	}
	svc, closeFn, err := c.deps.OpenService(c.Config, c.Logger)
	if err != nil {
		return nil, err
	}
	c.svc, c.closeFn = svc, closeFn
	return svc, nil
}

// Close releases the service connections, if any were opened.
func (c *CLIContext) Close() error {
	if c.closeFn == nil {
		return nil
	}
	fn := c.closeFn
	c.closeFn, c.svc = nil, nil
	return fn()
}

// NewRootCommand creates the root command with global flags and every
// subcommand.
func NewRootCommand(deps Dependencies) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "clubdues",
		Short: "Operate the membership payment reconciliation engine",
		Long: `clubdues runs schema migrations and maintenance tasks against the
membership database: inspecting memberships, re-running status
reconciliation and rollups, proposing installments for a payment and
sweeping every membership.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts, deps)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cliCtx, err := GetCLIContext(cmd); err == nil {
				return cliCtx.Close()
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: CLUBDUES_* environment only)")
	pf.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", OutputText, "output format (text, json, table)")
	pf.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "operation timeout")

	cmd.AddCommand(
		NewMigrateCmd(),
		NewMembershipCmd(),
		NewSuggestCmd(),
		NewSweepCmd(),
		NewVersionCmd(),
	)
	return cmd
}

// persistentPreRun loads config and logger, then stores the CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions, deps Dependencies) error {
	if cmd.Name() == "version" {
		return nil
	}
	switch opts.OutputFormat {
	case OutputText, OutputJSON, OutputTable:
	default:
		return errors.InvalidParam(fmt.Sprintf("unknown output format %q (text, json, table)", opts.OutputFormat))
	}

	cfg, err := deps.LoadConfig(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}
	logger, err := deps.NewLogger(strings.ToLower(opts.LogLevel))
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}

	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger,
		OutputFormat: opts.OutputFormat,
		Timeout:      opts.Timeout,
		deps:         deps,
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// GetCLIContext extracts CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.InvalidParam("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.InvalidParam("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// withService runs fn with the membership service and a context bounded by
// the --timeout flag.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc appmembership.Service) error) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	svc, err := cliCtx.Service()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if cliCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cliCtx.Timeout)
		defer cancel()
	}
	return fn(ctx, svc)
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand(DefaultDependencies())
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

// NewVersionCmd prints build information.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "clubdues %s\ncommit: %s\nbuilt: %s\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

//Personal.AI order the ending
