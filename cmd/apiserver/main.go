// API server entry point: public pay link and admin API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/turtacn/ClubDues/internal/app"
	"github.com/turtacn/ClubDues/internal/config"
	"github.com/turtacn/ClubDues/internal/infrastructure/auth/token"
	"github.com/turtacn/ClubDues/internal/infrastructure/database/postgres"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	httpserver "github.com/turtacn/ClubDues/internal/interfaces/http"
	"github.com/turtacn/ClubDues/internal/interfaces/http/handlers"
	"github.com/turtacn/ClubDues/internal/interfaces/http/middleware"
)

// version is injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: CLUBDUES_* environment only)")
	migrate := flag.Bool("migrate", false, "apply database migrations before serving")
	flag.Parse()

	if err := run(*configPath, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, migrate bool) error {
	// A missing .env is normal outside development.
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
	logger.Info("starting clubdues API server", logging.String("version", version))

	if configPath != "" {
		watchLogLevel(configPath, logger)
	}

	if migrate {
		if err := postgres.NewMigrator(cfg.Database, logger.Named("migrate")).Up(); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
	}

	rt, err := app.Open(cfg, logger, app.Options{Storage: true, Metrics: true, Component: "apiserver"})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("failed to close connections", logging.Err(err))
		}
	}()

	srv := httpserver.NewServer(cfg.Server, newRouter(cfg, rt, logger), logger.Named("http"))

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
		return err
	}
	logger.Info("API server stopped")
	return nil
}

func newRouter(cfg *config.Config, rt *app.Runtime, logger logging.Logger) http.Handler {
	verifier := token.NewVerifier(cfg.Auth)

	routerCfg := httpserver.RouterConfig{
		PayHandler:        handlers.NewPayHandler(rt.Service, cfg.MinIO.MaxProofBytes, logger),
		MembershipHandler: handlers.NewMembershipHandler(rt.Service, rt.Storage, logger),
		SubmissionHandler: handlers.NewSubmissionHandler(rt.Service, logger),
		AuthMiddleware:    middleware.NewAuthMiddleware(verifier, logger.Named("auth")),
		Logger:            logger.Named("access"),
		MetricsPath:       cfg.Metrics.Path,
	}

	logCfg := middleware.DefaultLoggingConfig()
	logCfg.SlowThreshold = cfg.Server.SlowRequest
	routerCfg.Logging = logCfg

	if cfg.Server.PayRateLimit > 0 {
		routerCfg.PayRateLimiter = middleware.NewTokenBucketLimiter(cfg.Server.PayRateLimit, cfg.Server.PayRateBurst)
	}

	if rt.Metrics != nil {
		routerCfg.Recorder = rt.Metrics
		routerCfg.MetricsHandler = rt.Collector.Handler()
		routerCfg.HealthHandler = handlers.NewHealthHandler(version, rt.Metrics, healthCheckers(rt)...)
	} else {
		routerCfg.HealthHandler = handlers.NewHealthHandler(version, nil, healthCheckers(rt)...)
	}

	return httpserver.NewRouter(routerCfg)
}

// watchLogLevel applies log.level edits without a restart.  Other settings
// need one.
func watchLogLevel(path string, logger logging.Logger) {
	err := config.Watch(path, func(next *config.Config) {
		if logging.SetLevel(logger, next.Log.Level) {
			logger.Info("log level changed", logging.String("level", next.Log.Level))
		}
	}, func(err error) {
		logger.Warn("ignoring invalid config change", logging.Err(err))
	})
	if err != nil {
		logger.Warn("config watch disabled", logging.Err(err))
	}
}

//Personal.AI order the ending
