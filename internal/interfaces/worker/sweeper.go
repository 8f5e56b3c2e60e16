package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
)

// SweeperConfig schedules the periodic reconcile sweep.
type SweeperConfig struct {
	// Schedule is a cron spec or descriptor such as "@every 15m".
	Schedule  string
	BatchSize int
	// Timeout bounds one sweep run.
	Timeout time.Duration
}

// Sweeper runs Sweep on a cron schedule.  A run that is still in progress
// when the next tick fires causes that tick to be skipped.
type Sweeper struct {
	svc    appmembership.Service
	cfg    SweeperConfig
	cron   *cron.Cron
	logger logging.Logger
}

// NewSweeper validates the schedule and registers the sweep job.
func NewSweeper(svc appmembership.Service, cfg SweeperConfig, logger logging.Logger) (*Sweeper, error) {
	logger = logger.Named("sweep")
	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	s := &Sweeper{svc: svc, cfg: cfg, cron: c, logger: logger}
	if _, err := c.AddFunc(cfg.Schedule, func() { _, _ = s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

// Start begins scheduling in the background.
func (s *Sweeper) Start() {
	s.logger.Info("sweep scheduled", logging.String("schedule", s.cfg.Schedule))
	s.cron.Start()
}

// Stop prevents new runs and waits for a running sweep, bounded by ctx.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs one sweep immediately.
func (s *Sweeper) RunOnce(ctx context.Context) (*appmembership.SweepReport, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	start := time.Now()
	report, err := s.svc.Sweep(ctx, &appmembership.SweepRequest{BatchSize: s.cfg.BatchSize})
	if err != nil {
		s.logger.Error("sweep failed", logging.Duration("duration", time.Since(start)), logging.Err(err))
		return nil, err
	}
	s.logger.Info("sweep finished",
		logging.Int("scanned", report.Scanned),
		logging.Int("status_changed", report.StatusChanged),
		logging.Int("rollup_changed", report.RollupChanged),
		logging.Int("failed", report.Failed),
		logging.Duration("duration", time.Since(start)))
	return report, nil
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	l logging.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(msg, kvFields(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(msg, append(kvFields(keysAndValues), logging.Err(err))...)
}

func kvFields(kv []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		fields = append(fields, logging.Any(key, kv[i+1]))
	}
	return fields
}

//Personal.AI order the ending
