package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerIdleTimeout     = 60 * time.Second
	DefaultServerShutdownTimeout = 30 * time.Second
	DefaultSlowRequest           = 2 * time.Second
	DefaultPayRateLimit          = 2.0
	DefaultPayRateBurst          = 10

	DefaultDBDriver        = "postgres"
	DefaultDBHost          = "localhost"
	DefaultDBPort          = 5432
	DefaultDBUser          = "clubdues"
	DefaultDBName          = "clubdues"
	DefaultDBMaxConns      = 25
	DefaultDBMaxIdleConns  = 10
	DefaultDBMigrationPath = "internal/infrastructure/database/postgres/migrations"

	DefaultRedisAddr     = "localhost:6379"
	DefaultRedisPoolSize = 10
	DefaultPlanCacheTTL  = 10 * time.Minute

	DefaultKafkaBroker     = "localhost:9092"
	DefaultKafkaGroupID    = "clubdues-worker"
	DefaultKafkaMaxRetries = 3

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "membership-proofs"
	DefaultMaxProofBytes = 10 << 20

	DefaultAdminRole = "admin"

	DefaultDecisionLockTTL    = 30 * time.Second
	DefaultUpToDateMessage    = "Membership dues are up to date."
	DefaultUnderReviewMessage = "A payment is under review."

	DefaultSweepSchedule  = "@every 15m"
	DefaultSweepBatchSize = 200
	DefaultSweepTimeout   = 10 * time.Minute

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "clubdues"
	DefaultMetricsPath      = "/metrics"
)

// DefaultAllowedContentTypes lists the proof formats accepted by default.
var DefaultAllowedContentTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills zero-value fields in cfg.  Explicit values win.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultServerIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.SlowRequest == 0 {
		cfg.Server.SlowRequest = DefaultSlowRequest
	}
	if cfg.Server.PayRateBurst == 0 {
		cfg.Server.PayRateBurst = DefaultPayRateBurst
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = DefaultDBDriver
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.User == "" {
		cfg.Database.User = DefaultDBUser
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = DefaultDBMaxConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDBMaxIdleConns
	}
	if cfg.Database.MigrationPath == "" {
		cfg.Database.MigrationPath = DefaultDBMigrationPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.PlanCacheTTL == 0 {
		cfg.Redis.PlanCacheTTL = DefaultPlanCacheTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}
	if cfg.MinIO.MaxProofBytes == 0 {
		cfg.MinIO.MaxProofBytes = DefaultMaxProofBytes
	}
	if len(cfg.MinIO.AllowedContentTypes) == 0 {
		cfg.MinIO.AllowedContentTypes = append([]string(nil), DefaultAllowedContentTypes...)
	}

	// ── Auth ──────────────────────────────────────────────────────────────────
	if cfg.Auth.AdminRole == "" {
		cfg.Auth.AdminRole = DefaultAdminRole
	}

	// ── Reconciliation ───────────────────────────────────────────────────────
	if cfg.Reconciliation.DecisionLockTTL == 0 {
		cfg.Reconciliation.DecisionLockTTL = DefaultDecisionLockTTL
	}
	if cfg.Reconciliation.UpToDateMessage == "" {
		cfg.Reconciliation.UpToDateMessage = DefaultUpToDateMessage
	}
	if cfg.Reconciliation.UnderReviewMessage == "" {
		cfg.Reconciliation.UnderReviewMessage = DefaultUnderReviewMessage
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.SweepSchedule == "" {
		cfg.Worker.SweepSchedule = DefaultSweepSchedule
	}
	if cfg.Worker.SweepBatchSize == 0 {
		cfg.Worker.SweepBatchSize = DefaultSweepBatchSize
	}
	if cfg.Worker.SweepTimeout == 0 {
		cfg.Worker.SweepTimeout = DefaultSweepTimeout
	}

	// ── Log / Metrics ────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
}

// setViperDefaults registers the keys whose defaults are not the Go zero
// value, so AutomaticEnv can resolve them even without a config file.
// Booleans defaulting to true must be registered here because ApplyDefaults
// cannot tell an explicit false from an unset field.
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.host", "")
	v.SetDefault("server.public_base_url", "")
	v.SetDefault("server.pay_rate_limit", DefaultPayRateLimit)
	v.SetDefault("database.driver", DefaultDBDriver)
	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", DefaultDBUser)
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", DefaultDBName)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.group_id", DefaultKafkaGroupID)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", DefaultMinIOBucket)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("reconciliation.atomic_decisions", true)
	v.SetDefault("reconciliation.decision_lock", false)
	v.SetDefault("worker.sweep_schedule", DefaultSweepSchedule)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("metrics.enabled", true)
}

//Personal.AI order the ending
