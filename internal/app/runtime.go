// Package app wires the membership service to its infrastructure.  The API
// server, the worker and the operator CLI all build their dependencies here.
package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-multierror"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	"github.com/turtacn/ClubDues/internal/config"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/redis"
	"github.com/turtacn/ClubDues/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClubDues/internal/infrastructure/storage/minio"
	"github.com/turtacn/ClubDues/pkg/errors"
)

// Options selects the optional parts of the runtime.
type Options struct {
	// Storage connects to MinIO.  Without it proof uploads fail with
	// SERVICE_UNAVAILABLE, which suits processes that never receive uploads.
	Storage bool
	// Metrics registers the Prometheus collectors.
	Metrics bool
	// Component names the process in metrics ("apiserver", "worker").
	Component string
}

// Runtime owns every connection opened for one process.
type Runtime struct {
	Config   *config.Config
	Logger   logging.Logger
	DB       *postgres.Connection
	Redis    *redis.Client
	Storage  *minio.Client
	Producer *kafka.Producer

	Collector prometheus.MetricsCollector
	Metrics   *prometheus.AppMetrics
	Service   appmembership.Service

	closeOnce sync.Once
	closers   []namedCloser
}

type namedCloser struct {
	name string
	fn   func() error
}

// Open connects to the configured backends and builds the service.  On error
// everything opened so far is closed.
func Open(cfg *config.Config, logger logging.Logger, opts Options) (rt *Runtime, err error) {
	if cfg == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "configuration is required")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	rt = &Runtime{Config: cfg, Logger: logger}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	if opts.Metrics && cfg.Metrics.Enabled {
		cc := prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}
		if opts.Component != "" {
			cc.ConstLabels = map[string]string{"component": opts.Component}
		}
		collector, cerr := prometheus.NewMetricsCollector(cc, logger.Named("metrics"))
		if cerr != nil {
			return nil, errors.Wrap(cerr, errors.ErrCodeInvalidConfig, "failed to create metrics collector")
		}
		rt.Collector = collector
		rt.Metrics = prometheus.NewAppMetrics(collector)
	}

	rt.DB, err = postgres.NewConnection(cfg.Database, logger.Named("postgres"))
	if err != nil {
		return nil, err
	}
	rt.addCloser("postgres", rt.DB.Close)
	store := repositories.NewStore(rt.DB, logger.Named("repositories"))

	var plans domain.PlanCatalog = repositories.NewPostgresPlanCatalog(rt.DB, logger.Named("plans"))
	var locker appmembership.DecisionLocker
	if cfg.Redis.Enabled {
		rt.Redis, err = redis.NewClient(cfg.Redis, logger.Named("redis"))
		if err != nil {
			return nil, err
		}
		rt.addCloser("redis", rt.Redis.Close)
		cache := redis.NewCache(rt.Redis, logger.Named("cache"), redis.WithPrefix("clubdues:"))
		plans = redis.NewPlanCatalog(plans, cache, cfg.Redis.PlanCacheTTL)
		if cfg.Reconciliation.DecisionLock {
			locker = redis.NewDecisionLock(rt.Redis, cfg.Reconciliation.DecisionLockTTL, logger.Named("lock"))
		}
	} else if cfg.Reconciliation.DecisionLock {
		logger.Warn("decision lock requested but redis is disabled; decisions rely on row predicates only")
	}

	var proofs appmembership.ProofStorage = unavailableProofs{}
	if opts.Storage {
		rt.Storage, err = minio.NewClient(cfg.MinIO, logger.Named("minio"))
		if err != nil {
			return nil, err
		}
		rt.addCloser("minio", rt.Storage.Close)
		proofs = minio.NewProofStore(rt.Storage, logger.Named("proofs"))
	}

	var events appmembership.EventPublisher
	if cfg.Kafka.Enabled {
		rt.Producer, err = kafka.NewProducer(kafka.ProducerConfigFromKafka(cfg.Kafka), logger.Named("kafka"))
		if err != nil {
			return nil, err
		}
		rt.addCloser("kafka", rt.Producer.Close)
		events = kafka.NewEventPublisher(rt.Producer, cfg.Kafka.TopicPrefix)
	}

	var metrics appmembership.Metrics
	if rt.Metrics != nil {
		metrics = rt.Metrics
	}

	rt.Service, err = appmembership.NewService(store, plans, proofs, events, locker, metrics, logger.Named("membership"), ServiceConfig(cfg))
	if err != nil {
		return nil, err
	}
	return rt, nil
}

// ServiceConfig maps the file configuration onto the service settings.
func ServiceConfig(cfg *config.Config) appmembership.ServiceConfig {
	return appmembership.ServiceConfig{
		AtomicDecisions:     cfg.Reconciliation.AtomicDecisions,
		PublicBaseURL:       cfg.Server.PublicBaseURL,
		UpToDateMessage:     cfg.Reconciliation.UpToDateMessage,
		UnderReviewMessage:  cfg.Reconciliation.UnderReviewMessage,
		MaxProofBytes:       cfg.MinIO.MaxProofBytes,
		AllowedContentTypes: cfg.MinIO.AllowedContentTypes,
		SweepBatchSize:      cfg.Worker.SweepBatchSize,
	}
}

func (r *Runtime) addCloser(name string, fn func() error) {
	r.closers = append(r.closers, namedCloser{name: name, fn: fn})
}

// Close releases connections in reverse opening order and reports every
// failure.
func (r *Runtime) Close() error {
	var result *multierror.Error
	r.closeOnce.Do(func() {
		for i := len(r.closers) - 1; i >= 0; i-- {
			c := r.closers[i]
			if err := c.fn(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", c.name, err))
			}
		}
	})
	return result.ErrorOrNil()
}

// unavailableProofs rejects uploads in processes opened without storage.
type unavailableProofs struct{}

func (unavailableProofs) UploadProof(context.Context, string, string, *appmembership.ProofUpload) (*domain.ProofRef, error) {
	return nil, errors.New(errors.ErrCodeServiceUnavail, "proof storage is not configured")
}

//Personal.AI order the ending
