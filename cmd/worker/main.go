// Worker entry point: consumes reconcile requests from Kafka and runs the
// periodic membership sweep.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ClubDues/internal/app"
	"github.com/turtacn/ClubDues/internal/config"
	"github.com/turtacn/ClubDues/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ClubDues/internal/interfaces/http"
	"github.com/turtacn/ClubDues/internal/interfaces/http/handlers"
	"github.com/turtacn/ClubDues/internal/interfaces/worker"
)

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: CLUBDUES_* environment only)")
	healthAddr := flag.String("health-addr", ":8081", "listen address for /healthz, /readyz and /metrics; empty disables")
	flag.Parse()

	if err := run(*configPath, *healthAddr); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, healthAddr string) error {
	_ = godotenv.Load()

	cfg, err := config.LoadOrEnv(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)
	logger.Info("starting clubdues worker", logging.String("version", version))

	rt, err := app.Open(cfg, logger, app.Options{Metrics: true, Component: "worker"})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("failed to close connections", logging.Err(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w, err := buildWorker(ctx, cfg, rt, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(gctx) })

	if healthAddr != "" {
		srv, err := newHealthServer(healthAddr, rt, logger)
		if err != nil {
			return err
		}
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			return srv.Stop(context.Background())
		})
	}

	return g.Wait()
}

func buildWorker(ctx context.Context, cfg *config.Config, rt *app.Runtime, logger logging.Logger) (*worker.Worker, error) {
	var recorder worker.EventRecorder
	if rt.Metrics != nil {
		recorder = rt.Metrics
	}
	handler := worker.NewReconcileHandler(rt.Service, recorder, logger)

	sweeper, err := worker.NewSweeper(rt.Service, worker.SweeperConfig{
		Schedule:  cfg.Worker.SweepSchedule,
		BatchSize: cfg.Worker.SweepBatchSize,
		Timeout:   cfg.Worker.SweepTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.Kafka.Enabled {
		return worker.New(nil, "", handler, sweeper, logger), nil
	}

	topic := kafka.TopicName(cfg.Kafka.TopicPrefix, kafka.TopicReconcileRequested)
	if err := ensureTopics(ctx, cfg, logger); err != nil {
		// Brokers with auto-create still work; the consumer reports real
		// connectivity problems.
		logger.Warn("failed to ensure kafka topics", logging.Err(err))
	}
	consumer, err := kafka.NewConsumer(kafka.ConsumerConfigFromKafka(cfg.Kafka, topic), rt.Producer, logger.Named("consumer"))
	if err != nil {
		return nil, err
	}
	return worker.New(consumer, topic, handler, sweeper, logger), nil
}

func ensureTopics(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger.Named("topics"))
	if err != nil {
		return err
	}
	defer tm.Close()

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	return tm.EnsureTopics(ctx, kafka.DefaultTopics(cfg.Kafka.TopicPrefix))
}

// newHealthServer serves the probes and, when enabled, the metrics of the
// worker process.
func newHealthServer(addr string, rt *app.Runtime, logger logging.Logger) (*httpserver.Server, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid health address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid health port %q: %w", portStr, err)
	}

	checks := []handlers.HealthChecker{handlers.CheckFunc{ComponentName: "postgres", Fn: rt.DB.HealthCheck}}
	if rt.Redis != nil {
		checks = append(checks, handlers.CheckFunc{ComponentName: "redis", Fn: rt.Redis.Ping})
	}

	routerCfg := httpserver.RouterConfig{MetricsPath: rt.Config.Metrics.Path}
	if rt.Metrics != nil {
		routerCfg.HealthHandler = handlers.NewHealthHandler(version, rt.Metrics, checks...)
		routerCfg.MetricsHandler = rt.Collector.Handler()
	} else {
		routerCfg.HealthHandler = handlers.NewHealthHandler(version, nil, checks...)
	}

	srvCfg := config.ServerConfig{
		Host:            host,
		Port:            port,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
	return httpserver.NewServer(srvCfg, httpserver.NewRouter(routerCfg), logger.Named("health")), nil
}

//Personal.AI order the ending
